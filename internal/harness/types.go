package harness

import (
	"github.com/roach88/aiden/internal/build"
)

// Trace event names.
const (
	EventBuildStart     = "build_start"
	EventIterationStart = "iteration_start"
	EventIterationEnd   = "iteration_end"
	EventBuildEnd       = "build_end"
)

// TraceEvent is one observer notification, reduced to its deterministic parts.
type TraceEvent struct {
	Seq       int                 `json:"seq"`
	Event     string              `json:"event"`
	State     build.State         `json:"state"`
	Iteration *int                `json:"iteration,omitempty"`
	Condition string              `json:"condition,omitempty"`
	Accepted  *bool               `json:"accepted,omitempty"`
	Reason    string              `json:"reason,omitempty"`
	Output    string              `json:"output,omitempty"`
	Checks    []build.CheckResult `json:"checks,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when the expect clause and every assertion hold.
	Pass bool `json:"pass"`

	// State is the transformation's final state.
	State build.State `json:"state"`

	// Trace holds every observer event in order.
	Trace []TraceEvent `json:"trace"`

	// Errors lists expectation and assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
