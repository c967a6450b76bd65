package entities

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultStage is the stage assigned when a definition declares no stages.
const DefaultStage = "test"

// Pipeline represents a parsed pipeline definition.
type Pipeline struct {
	Name      string
	Version   int
	Stages    []string
	Variables map[string]string
	Defaults  JobDefaults
	Jobs      []*Job // declaration order
}

// JobDefaults holds settings inherited by every job unless overridden.
type JobDefaults struct {
	Image          string
	BeforeScript   []string
	TimeoutMinutes int
}

// Job represents a single unit of work restricted to one stage.
type Job struct {
	Name           string
	Stage          string
	Image          string
	BeforeScript   []string
	Script         []string
	AfterScript    []string
	Only           BranchFilter
	Except         BranchFilter
	Needs          []string
	Variables      map[string]string
	TimeoutMinutes int
	AllowFailure   bool
	Artifacts      []string
}

// BranchFilter is a list of branch names or /regex/ patterns.
type BranchFilter []string

// Job returns the job with the given name, or nil.
func (p *Pipeline) Job(name string) *Job {
	for _, j := range p.Jobs {
		if j.Name == name {
			return j
		}
	}
	return nil
}

// JobsInStage returns the jobs assigned to a stage, in declaration order.
func (p *Pipeline) JobsInStage(stage string) []*Job {
	var jobs []*Job
	for _, j := range p.Jobs {
		if j.Stage == stage {
			jobs = append(jobs, j)
		}
	}
	return jobs
}

// StageIndex returns the position of a stage in the declared order, or -1.
func (p *Pipeline) StageIndex(stage string) int {
	for i, s := range p.Stages {
		if s == stage {
			return i
		}
	}
	return -1
}

// Steps returns the ordered shell steps executed for the job: inherited
// before_script, then the job's own before_script, then script.
// after_script is excluded; it runs regardless of step outcomes.
func (j *Job) Steps(defaults JobDefaults) []string {
	steps := make([]string, 0, len(defaults.BeforeScript)+len(j.BeforeScript)+len(j.Script))
	steps = append(steps, defaults.BeforeScript...)
	steps = append(steps, j.BeforeScript...)
	steps = append(steps, j.Script...)
	return steps
}

// RunsOn reports whether the job should run for the given branch,
// combining its only and except filters. A job with no filters runs
// on every branch.
func (j *Job) RunsOn(branch string) (bool, error) {
	if len(j.Only) > 0 {
		match, err := j.Only.Matches(branch)
		if err != nil {
			return false, err
		}
		if !match {
			return false, nil
		}
	}
	if len(j.Except) > 0 {
		match, err := j.Except.Matches(branch)
		if err != nil {
			return false, err
		}
		if match {
			return false, nil
		}
	}
	return true, nil
}

// Matches reports whether any entry matches the branch. Entries wrapped
// in slashes are treated as anchored regular expressions.
func (f BranchFilter) Matches(branch string) (bool, error) {
	for _, entry := range f {
		if pattern, ok := regexEntry(entry); ok {
			re, err := regexp.Compile("^(?:" + pattern + ")$")
			if err != nil {
				return false, fmt.Errorf("invalid branch pattern %s: %w", entry, err)
			}
			if re.MatchString(branch) {
				return true, nil
			}
			continue
		}
		if entry == branch {
			return true, nil
		}
	}
	return false, nil
}

// Validate checks every /regex/ entry compiles.
func (f BranchFilter) Validate() error {
	for _, entry := range f {
		if pattern, ok := regexEntry(entry); ok {
			if _, err := regexp.Compile(pattern); err != nil {
				return fmt.Errorf("invalid branch pattern %s: %w", entry, err)
			}
		}
	}
	return nil
}

func regexEntry(entry string) (string, bool) {
	if len(entry) >= 2 && strings.HasPrefix(entry, "/") && strings.HasSuffix(entry, "/") {
		return entry[1 : len(entry)-1], true
	}
	return "", false
}
