package services

import (
	"fmt"

	"github.com/ochairo/cauldron/internal/domain/entities"
)

// Lint rule identifiers.
const (
	RuleStageDuplicate  = "stage-duplicate"
	RuleStageUndeclared = "stage-undeclared"
	RuleStageEmpty      = "stage-empty"
	RuleScriptMissing   = "script-missing"
	RuleNeedsUnknown    = "needs-unknown"
	RuleNeedsLaterStage = "needs-later-stage"
	RuleNeedsCycle      = "needs-cycle"
	RuleBranchPattern   = "branch-pattern"
	RuleBranchNever     = "branch-never"
	RuleImageMissing    = "image-missing"
	RuleTimeoutInvalid  = "timeout-invalid"
)

// Linter validates pipeline definitions against schema rules.
type Linter struct{}

// NewLinter creates a new linter.
func NewLinter() *Linter {
	return &Linter{}
}

// Lint checks a definition and returns all findings. Error-severity
// findings mean the definition cannot be planned or run as written.
func (l *Linter) Lint(def *entities.Pipeline) *entities.LintReport {
	report := &entities.LintReport{Pipeline: def.Name}

	l.checkStages(def, report)
	for _, job := range def.Jobs {
		l.checkJob(def, job, report)
	}
	l.checkCycles(def, report)

	return report
}

func (l *Linter) checkStages(def *entities.Pipeline, report *entities.LintReport) {
	seen := map[string]bool{}
	for _, stage := range def.Stages {
		if seen[stage] {
			addError(report, RuleStageDuplicate, "",
				fmt.Sprintf("stage %q is declared more than once", stage))
		}
		seen[stage] = true

		if len(def.JobsInStage(stage)) == 0 {
			addWarning(report, RuleStageEmpty, "",
				fmt.Sprintf("stage %q has no jobs", stage))
		}
	}
}

func (l *Linter) checkJob(def *entities.Pipeline, job *entities.Job, report *entities.LintReport) {
	if def.StageIndex(job.Stage) < 0 {
		addError(report, RuleStageUndeclared, job.Name,
			fmt.Sprintf("references undeclared stage %q", job.Stage))
	}

	if len(job.Script) == 0 {
		addError(report, RuleScriptMissing, job.Name, "has no script")
	}

	for _, need := range job.Needs {
		dep := def.Job(need)
		if dep == nil {
			addError(report, RuleNeedsUnknown, job.Name,
				fmt.Sprintf("needs unknown job %q", need))
			continue
		}
		depIdx, jobIdx := def.StageIndex(dep.Stage), def.StageIndex(job.Stage)
		if depIdx >= 0 && jobIdx >= 0 && depIdx > jobIdx {
			addError(report, RuleNeedsLaterStage, job.Name,
				fmt.Sprintf("needs job %q from later stage %q", need, dep.Stage))
		}
	}

	if err := job.Only.Validate(); err != nil {
		addError(report, RuleBranchPattern, job.Name, err.Error())
	}
	if err := job.Except.Validate(); err != nil {
		addError(report, RuleBranchPattern, job.Name, err.Error())
	}
	if neverRuns(job) {
		addWarning(report, RuleBranchNever, job.Name,
			"every only entry is also excluded; job can never run")
	}

	if job.Image == "" {
		addWarning(report, RuleImageMissing, job.Name,
			"no image declared and no default image set")
	}

	if job.TimeoutMinutes < 0 {
		addError(report, RuleTimeoutInvalid, job.Name,
			fmt.Sprintf("timeout_minutes is %d", job.TimeoutMinutes))
	}
}

func (l *Linter) checkCycles(def *entities.Pipeline, report *entities.LintReport) {
	if _, err := buildJobGraph(def); err != nil {
		// Unknown needs are already reported per-job with more context
		if containsUnknownNeed(def) {
			return
		}
		addError(report, RuleNeedsCycle, "", err.Error())
	}
}

// neverRuns reports whether the only filter is fully shadowed by except.
// Regex entries are compared literally; overlap between patterns is not
// decidable here.
func neverRuns(job *entities.Job) bool {
	if len(job.Only) == 0 || len(job.Except) == 0 {
		return false
	}
	excluded := map[string]bool{}
	for _, e := range job.Except {
		excluded[e] = true
	}
	for _, o := range job.Only {
		if !excluded[o] {
			return false
		}
	}
	return true
}

func containsUnknownNeed(def *entities.Pipeline) bool {
	for _, job := range def.Jobs {
		for _, need := range job.Needs {
			if def.Job(need) == nil {
				return true
			}
		}
	}
	return false
}

func addError(report *entities.LintReport, rule, job, msg string) {
	report.Findings = append(report.Findings, entities.Finding{
		Rule: rule, Severity: entities.SeverityError, Job: job, Message: msg,
	})
}

func addWarning(report *entities.LintReport, rule, job, msg string) {
	report.Findings = append(report.Findings, entities.Finding{
		Rule: rule, Severity: entities.SeverityWarning, Job: job, Message: msg,
	})
}
