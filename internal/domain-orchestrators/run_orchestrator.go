// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ochairo/cauldron/internal/domain-adapters/gateways"
	"github.com/ochairo/cauldron/internal/domain/entities"
	"github.com/ochairo/cauldron/internal/domain/interfaces"
	"github.com/ochairo/cauldron/internal/domain/services"
)

// ShellRunner interface for executing script steps
type ShellRunner interface {
	RunStep(ctx context.Context, config gateways.StepConfig) *gateways.StepOutcome
}

// ArtifactCollector interface for collecting declared job artifacts
type ArtifactCollector interface {
	Collect(ctx context.Context, workDir string, patterns []string, destDir string) ([]string, error)
}

// RunOrchestrator executes a pipeline: stages sequentially in declared
// order, jobs within a stage as independent parallel units.
type RunOrchestrator struct {
	planner        *services.Planner
	shell          ShellRunner
	collector      ArtifactCollector
	logger         interfaces.Logger
	workDir        string
	artifactsDir   string
	defaultTimeout time.Duration
}

// RunOrchestratorConfig holds configuration for the orchestrator
type RunOrchestratorConfig struct {
	WorkDir        string
	ArtifactsDir   string
	DefaultTimeout time.Duration
}

// NewRunOrchestrator creates a new run orchestrator
func NewRunOrchestrator(
	shell ShellRunner,
	collector ArtifactCollector,
	logger interfaces.Logger,
	config RunOrchestratorConfig,
) *RunOrchestrator {
	workDir := config.WorkDir
	if workDir == "" {
		workDir = "."
	}
	defaultTimeout := config.DefaultTimeout
	if defaultTimeout == 0 {
		defaultTimeout = 60 * time.Minute
	}
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}

	return &RunOrchestrator{
		planner:        services.NewPlanner(),
		shell:          shell,
		collector:      collector,
		logger:         logger,
		workDir:        workDir,
		artifactsDir:   config.ArtifactsDir,
		defaultTimeout: defaultTimeout,
	}
}

// RunPipeline executes the full pipeline for a branch. Job failures are
// recorded in the returned run, not as an error; the error covers
// planning problems and cancellation only.
func (o *RunOrchestrator) RunPipeline(ctx context.Context, def *entities.Pipeline, branch string) (*entities.PipelineRun, error) {
	plan, err := o.planner.Plan(def, branch)
	if err != nil {
		return nil, fmt.Errorf("failed to plan pipeline: %w", err)
	}

	run := &entities.PipelineRun{
		ID:        uuid.NewString(),
		Pipeline:  def.Name,
		Branch:    branch,
		StartedAt: time.Now(),
	}

	o.logger.Info("pipeline run started",
		interfaces.F("pipeline", def.Name),
		interfaces.F("run_id", run.ID),
		interfaces.F("branch", branch))

	failed := false
	for _, stagePlan := range plan.Stages {
		for _, skipped := range stagePlan.Skipped {
			run.Jobs = append(run.Jobs, o.skipResult(def, skipped.Name, skipped.Reason))
		}

		if failed {
			for _, wave := range stagePlan.Waves {
				for _, name := range wave {
					run.Jobs = append(run.Jobs, o.skipResult(def, name, "earlier stage failed"))
				}
			}
			continue
		}

		stageFailed, err := o.runStage(ctx, def, run, stagePlan)
		if err != nil {
			return run, err
		}
		if stageFailed {
			failed = true
		}
	}

	run.Duration = time.Since(run.StartedAt)

	o.logger.Info("pipeline run finished",
		interfaces.F("run_id", run.ID),
		interfaces.F("ok", run.OK()),
		interfaces.F("duration", run.Duration))

	return run, nil
}

// runStage executes the waves of one stage. A non-allowed failure fails
// the stage, but only the transitive dependents of the failed job are
// skipped; later-wave jobs whose needs all succeeded still run.
func (o *RunOrchestrator) runStage(ctx context.Context, def *entities.Pipeline, run *entities.PipelineRun, stagePlan services.StagePlan) (bool, error) {
	stageFailed := false
	blocked := map[string]bool{}

	for _, wave := range stagePlan.Waves {
		results := make([]entities.JobResult, len(wave))
		group, waveCtx := errgroup.WithContext(ctx)

		for i, name := range wave {
			job := def.Job(name)
			if need := firstBlockedNeed(job, blocked); need != "" {
				blocked[name] = true
				results[i] = o.skipResult(def, name, fmt.Sprintf("dependency %s failed", need))
				continue
			}
			i, job := i, job
			group.Go(func() error {
				if err := waveCtx.Err(); err != nil {
					results[i] = o.skipResult(def, job.Name, "run cancelled")
					return nil
				}
				results[i] = o.runJob(waveCtx, def, run, job)
				return nil
			})
		}

		if err := group.Wait(); err != nil {
			return stageFailed, err
		}

		for _, result := range results {
			run.Jobs = append(run.Jobs, result)
			if (result.Status == entities.StatusFailed || result.Status == entities.StatusTimeout) && !result.AllowFailure {
				stageFailed = true
				blocked[result.JobName] = true
			}
		}

		if err := ctx.Err(); err != nil {
			return stageFailed, err
		}
	}

	return stageFailed, nil
}

// firstBlockedNeed returns the first need of the job that failed or was
// itself skipped for a failed dependency, or "".
func firstBlockedNeed(job *entities.Job, blocked map[string]bool) string {
	for _, need := range job.Needs {
		if blocked[need] {
			return need
		}
	}
	return ""
}

// runJob runs the steps of one job sequentially, stopping at the first
// non-zero exit. after_script always runs and never changes the status.
func (o *RunOrchestrator) runJob(ctx context.Context, def *entities.Pipeline, run *entities.PipelineRun, job *entities.Job) entities.JobResult {
	startTime := time.Now()
	result := entities.JobResult{
		JobName:      job.Name,
		Stage:        job.Stage,
		Status:       entities.StatusSuccess,
		AllowFailure: job.AllowFailure,
	}

	timeout := o.defaultTimeout
	if job.TimeoutMinutes > 0 {
		timeout = time.Duration(job.TimeoutMinutes) * time.Minute
	}
	jobCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	env := o.jobEnv(def, run, job)

	o.logger.Info("job started",
		interfaces.F("job", job.Name),
		interfaces.F("stage", job.Stage),
		interfaces.F("image", job.Image))

	for _, command := range job.Steps(def.Defaults) {
		outcome := o.shell.RunStep(jobCtx, gateways.StepConfig{
			Command:    command,
			WorkingDir: o.workDir,
			Env:        env,
			Timeout:    timeout,
		})
		result.Steps = append(result.Steps, stepResult(command, outcome))

		if !outcome.Success {
			if outcome.TimedOut {
				result.Status = entities.StatusTimeout
				result.Reason = fmt.Sprintf("job exceeded %v timeout", timeout)
			} else {
				result.Status = entities.StatusFailed
			}
			o.logger.Error("job step failed",
				interfaces.F("job", job.Name),
				interfaces.F("exit_code", outcome.ExitCode))
			break
		}
	}

	o.runAfterScript(ctx, job, env, &result)

	if result.Status == entities.StatusSuccess {
		o.collectArtifacts(ctx, job, &result)
	}

	result.Duration = time.Since(startTime)
	return result
}

// runAfterScript executes after_script steps with a fresh deadline so
// cleanup still runs when the job itself timed out.
func (o *RunOrchestrator) runAfterScript(ctx context.Context, job *entities.Job, env map[string]string, result *entities.JobResult) {
	if len(job.AfterScript) == 0 {
		return
	}

	afterCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	for _, command := range job.AfterScript {
		outcome := o.shell.RunStep(afterCtx, gateways.StepConfig{
			Command:    command,
			WorkingDir: o.workDir,
			Env:        env,
		})
		result.Steps = append(result.Steps, stepResult(command, outcome))
		if !outcome.Success {
			o.logger.Warn("after_script step failed",
				interfaces.F("job", job.Name),
				interfaces.F("exit_code", outcome.ExitCode))
		}
	}
}

func (o *RunOrchestrator) collectArtifacts(ctx context.Context, job *entities.Job, result *entities.JobResult) {
	if o.collector == nil || o.artifactsDir == "" || len(job.Artifacts) == 0 {
		return
	}

	destDir := filepath.Join(o.artifactsDir, job.Name)
	collected, err := o.collector.Collect(ctx, o.workDir, job.Artifacts, destDir)
	if err != nil {
		o.logger.Warn("artifact collection failed",
			interfaces.F("job", job.Name),
			interfaces.F("error", err))
		return
	}
	result.Artifacts = collected
}

func (o *RunOrchestrator) jobEnv(def *entities.Pipeline, run *entities.PipelineRun, job *entities.Job) map[string]string {
	env := map[string]string{}
	for k, v := range def.Variables {
		env[k] = v
	}
	for k, v := range job.Variables {
		env[k] = v
	}
	env["CAULDRON_PIPELINE"] = def.Name
	env["CAULDRON_RUN_ID"] = run.ID
	env["CAULDRON_BRANCH"] = run.Branch
	env["CAULDRON_JOB"] = job.Name
	env["CAULDRON_STAGE"] = job.Stage
	env["CAULDRON_JOB_IMAGE"] = job.Image
	return env
}

func (o *RunOrchestrator) skipResult(def *entities.Pipeline, jobName, reason string) entities.JobResult {
	job := def.Job(jobName)
	result := entities.JobResult{
		JobName: jobName,
		Status:  entities.StatusSkipped,
		Reason:  reason,
	}
	if job != nil {
		result.Stage = job.Stage
		result.AllowFailure = job.AllowFailure
	}

	o.logger.Debug("job skipped",
		interfaces.F("job", jobName),
		interfaces.F("reason", reason))

	return result
}

func stepResult(command string, outcome *gateways.StepOutcome) entities.StepResult {
	return entities.StepResult{
		Command:  command,
		ExitCode: outcome.ExitCode,
		Stdout:   outcome.Stdout,
		Stderr:   outcome.Stderr,
		Duration: outcome.Duration,
	}
}
