// Package services contains domain logic for validating and planning pipelines.
package services

import (
	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/ochairo/cauldron/internal/domain/entities"
)

// ErrDependencyCycle is returned when job needs form a cycle.
var ErrDependencyCycle = errors.New("job dependencies form a cycle")

// Plan is the execution order of a pipeline: stages in declared order,
// each holding waves of jobs that may run in parallel.
type Plan struct {
	Pipeline string
	Branch   string
	Stages   []StagePlan
}

// StagePlan holds the ordered parallel waves for one stage.
type StagePlan struct {
	Name    string
	Waves   [][]string
	Skipped []SkippedJob
}

// SkippedJob names a job excluded from the plan and why.
type SkippedJob struct {
	Name   string
	Reason string
}

// JobCount returns the number of jobs planned to run in the stage.
func (s *StagePlan) JobCount() int {
	n := 0
	for _, w := range s.Waves {
		n += len(w)
	}
	return n
}

// Planner computes execution plans from pipeline definitions.
type Planner struct{}

// NewPlanner creates a new planner.
func NewPlanner() *Planner {
	return &Planner{}
}

// Plan computes the execution plan for a branch. Jobs whose branch
// filters exclude the branch are planned as skipped, not dropped.
// An empty branch plans every job.
func (p *Planner) Plan(def *entities.Pipeline, branch string) (*Plan, error) {
	if _, err := buildJobGraph(def); err != nil {
		return nil, err
	}

	plan := &Plan{Pipeline: def.Name, Branch: branch}

	for _, stage := range def.Stages {
		stagePlan := StagePlan{Name: stage}

		runnable := map[string]*entities.Job{}
		for _, job := range def.JobsInStage(stage) {
			if branch != "" {
				match, err := job.RunsOn(branch)
				if err != nil {
					return nil, errors.Wrapf(err, "job %s", job.Name)
				}
				if !match {
					stagePlan.Skipped = append(stagePlan.Skipped, SkippedJob{
						Name:   job.Name,
						Reason: "branch filter excludes " + branch,
					})
					continue
				}
			}
			runnable[job.Name] = job
		}

		waves, err := computeWaves(def, stage, runnable)
		if err != nil {
			return nil, err
		}
		stagePlan.Waves = waves

		plan.Stages = append(plan.Stages, stagePlan)
	}

	return plan, nil
}

// buildJobGraph builds the needs graph across all jobs. The graph rejects
// cycles on edge insertion, which is the cycle check for the whole plan.
func buildJobGraph(def *entities.Pipeline) (graph.Graph[string, string], error) {
	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())

	for _, job := range def.Jobs {
		if err := g.AddVertex(job.Name); err != nil {
			return nil, errors.Wrapf(err, "unable to add job %s", job.Name)
		}
	}

	for _, job := range def.Jobs {
		for _, need := range job.Needs {
			if def.Job(need) == nil {
				return nil, errors.Errorf("job %s needs unknown job %s", job.Name, need)
			}
			err := g.AddEdge(need, job.Name)
			if errors.Is(err, graph.ErrEdgeCreatesCycle) {
				return nil, errors.Wrapf(ErrDependencyCycle, "job %s needs %s", job.Name, need)
			}
			if err != nil {
				return nil, errors.Wrapf(err, "unable to add dependency %s -> %s", need, job.Name)
			}
		}
	}

	return g, nil
}

// computeWaves orders the runnable jobs of one stage into parallel groups.
// Only needs pointing at runnable jobs of the same stage order waves;
// needs into earlier stages are satisfied by stage sequencing, and needs
// on branch-skipped jobs are treated as met.
func computeWaves(def *entities.Pipeline, stage string, runnable map[string]*entities.Job) ([][]string, error) {
	placed := map[string]bool{}
	remaining := make([]*entities.Job, 0, len(runnable))
	for _, job := range def.JobsInStage(stage) {
		if _, ok := runnable[job.Name]; ok {
			remaining = append(remaining, job)
		}
	}

	var waves [][]string
	for len(remaining) > 0 {
		var wave []string
		var next []*entities.Job

		for _, job := range remaining {
			ready := true
			for _, need := range job.Needs {
				dep, isRunnable := runnable[need]
				if isRunnable && dep.Stage == stage && !placed[need] {
					ready = false
					break
				}
			}
			if ready {
				wave = append(wave, job.Name)
			} else {
				next = append(next, job)
			}
		}

		if len(wave) == 0 {
			return nil, errors.Wrapf(ErrDependencyCycle, "stage %s", stage)
		}

		for _, name := range wave {
			placed[name] = true
		}
		waves = append(waves, wave)
		remaining = next
	}

	return waves, nil
}
