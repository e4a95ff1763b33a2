// Package hook defines the execution model shared by every hook: the
// per-invocation context, the result contract returned to the dispatcher,
// and the phased middleware pipeline that runs between them.
//
// DESIGN: One invocation = one Context threaded through a fixed phase
// order (BEFORE_EXECUTION → gate → EXECUTION → AFTER_EXECUTION, with
// ERROR replacing AFTER_EXECUTION when anything fails). Middleware
// short-circuit by returning Done(result); the runner stops the chain
// itself rather than relying on each middleware to check a shared field.
package hook

// Status classifies the outcome of one hook invocation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
	StatusFailure Status = "failure"
)

// Severity ranks a single finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// severityRank orders severities for threshold comparisons.
var severityRank = map[Severity]int{
	SeverityCritical: 4,
	SeverityHigh:     3,
	SeverityMedium:   2,
	SeverityLow:      1,
}

// AtLeast reports whether s is as severe as min. Unknown severities rank lowest.
func (s Severity) AtLeast(min Severity) bool {
	return severityRank[s] >= severityRank[min]
}

// Issue is a single finding attached to a result, in the order discovered.
type Issue struct {
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	File        string   `json:"file,omitempty"`
	Line        int      `json:"line,omitempty"`
}

// Result is the outcome contract of one invocation. It is built up during
// the pipeline run and must not be mutated once returned to the caller.
type Result struct {
	Status      Status         `json:"status"`
	Message     string         `json:"message"`
	Data        map[string]any `json:"data,omitempty"`
	ShouldBlock bool           `json:"should_block"`
	Issues      []Issue        `json:"issues,omitempty"`
}

// Success returns a passing result.
func Success(message string) *Result {
	return &Result{Status: StatusSuccess, Message: message}
}

// Warning returns a non-fatal result carrying findings.
func Warning(message string, issues ...Issue) *Result {
	return &Result{Status: StatusWarning, Message: message, Issues: issues}
}

// Skipped returns the result used when the gate declines execution.
func Skipped(message string) *Result {
	return &Result{Status: StatusSkipped, Message: message}
}

// Failure returns the result synthesized for unexpected errors.
func Failure(message string) *Result {
	return &Result{Status: StatusFailure, Message: message}
}

// WithIssues appends findings and returns the same result for chaining
// during construction.
func (r *Result) WithIssues(issues ...Issue) *Result {
	r.Issues = append(r.Issues, issues...)
	return r
}

// WithData sets one data bag entry, allocating the map on first use.
func (r *Result) WithData(key string, value any) *Result {
	if r.Data == nil {
		r.Data = make(map[string]any)
	}
	r.Data[key] = value
	return r
}

// MaxSeverity returns the most severe issue attached, or "" when none exist.
func (r *Result) MaxSeverity() Severity {
	var max Severity
	for _, issue := range r.Issues {
		if max == "" || issue.Severity.AtLeast(max) {
			max = issue.Severity
		}
	}
	return max
}

// ExitCode maps the result to the process exit code contract understood by
// the version-control tool: 0 lets the operation proceed, nonzero aborts it.
func (r *Result) ExitCode() int {
	if r.ShouldBlock {
		return 1
	}
	return 0
}
