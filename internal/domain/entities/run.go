package entities

import "time"

// JobStatus is the terminal state of a job within a run.
type JobStatus string

// Job statuses.
const (
	StatusSuccess JobStatus = "success"
	StatusFailed  JobStatus = "failed"
	StatusTimeout JobStatus = "timeout"
	StatusSkipped JobStatus = "skipped"
)

// StepResult records the outcome of a single shell step.
type StepResult struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// JobResult records the outcome of one job in a run.
type JobResult struct {
	JobName      string
	Stage        string
	Status       JobStatus
	Reason       string // populated for skipped and timeout jobs
	AllowFailure bool
	Steps        []StepResult
	Artifacts    []string
	Duration     time.Duration
}

// PipelineRun records a full execution of a pipeline on a branch.
type PipelineRun struct {
	ID        string
	Pipeline  string
	Branch    string
	StartedAt time.Time
	Duration  time.Duration
	Jobs      []JobResult
}

// CountByStatus returns the number of jobs with the given status.
func (r *PipelineRun) CountByStatus(status JobStatus) int {
	n := 0
	for _, j := range r.Jobs {
		if j.Status == status {
			n++
		}
	}
	return n
}

// JobsByStatus returns the job results with the given status, in run order.
func (r *PipelineRun) JobsByStatus(status JobStatus) []JobResult {
	var jobs []JobResult
	for _, j := range r.Jobs {
		if j.Status == status {
			jobs = append(jobs, j)
		}
	}
	return jobs
}

// OK reports whether the run succeeded: no failed or timed-out jobs,
// except those marked allow_failure.
func (r *PipelineRun) OK() bool {
	for _, j := range r.Jobs {
		if (j.Status == StatusFailed || j.Status == StatusTimeout) && !j.AllowFailure {
			return false
		}
	}
	return true
}
