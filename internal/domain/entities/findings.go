package entities

// Severity classifies a lint finding.
type Severity string

// Finding severities.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding represents a single problem detected in a pipeline definition.
type Finding struct {
	Rule     string
	Severity Severity
	Job      string // empty for pipeline-level findings
	Message  string
}

// LintReport aggregates findings for one pipeline definition.
type LintReport struct {
	Pipeline string
	Findings []Finding
}

// Errors returns only error-severity findings.
func (r *LintReport) Errors() []Finding {
	return r.filter(SeverityError)
}

// Warnings returns only warning-severity findings.
func (r *LintReport) Warnings() []Finding {
	return r.filter(SeverityWarning)
}

// HasErrors reports whether the definition has at least one error.
func (r *LintReport) HasErrors() bool {
	return len(r.Errors()) > 0
}

func (r *LintReport) filter(severity Severity) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == severity {
			out = append(out, f)
		}
	}
	return out
}
