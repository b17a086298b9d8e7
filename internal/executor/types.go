package executor

import (
	"context"
	"strings"
	"time"

	"github.com/roach88/aiden/internal/environment"
)

// Executor runs one candidate code artifact and reports what happened.
//
// Contract:
//   - Candidate failures (raised errors, timeouts) are reported in Result.Err,
//     never as the returned error.
//   - The returned error is non-nil only for harness faults (*HarnessError) or
//     when ctx is cancelled by the caller.
//   - Output captured before a failure is always present in the Result.
//   - No retries: one Request, one Result.
type Executor interface {
	Execute(ctx context.Context, req Request) (Result, error)
}

// Request is an immutable description of one execution.
type Request struct {
	// ID identifies the execution in logs and scratch file names.
	ID string

	// Code is the candidate source text.
	Code string

	// Workdir must exist and be writable. The candidate runs with it as its
	// current directory; files it writes there are kept.
	Workdir string

	// Timeout is the wall-clock budget measured from dispatch. Must be > 0.
	Timeout time.Duration

	// Environment is the resolved environment the execution belongs to.
	Environment environment.Environment

	// Env holds extra environment variables for the candidate process,
	// typically the dataset bindings produced by BindDatasets.
	Env map[string]string
}

// Stream identifies which output stream a chunk came from.
type Stream string

const (
	Stdout Stream = "stdout"
	Stderr Stream = "stderr"
)

// Chunk is one piece of output in emission order.
type Chunk struct {
	Stream Stream `json:"stream"`
	Text   string `json:"text"`
}

// Condition is the terminal classification of an execution.
type Condition string

const (
	ConditionNoError Condition = "no_error"
	ConditionRaised  Condition = "raised"
	ConditionTimeout Condition = "timeout"
)

// Result is produced exactly once per Request.
type Result struct {
	ExecutionID string
	Output      []Chunk

	// Err is nil, *ExecutionError or *TimeoutError.
	Err error

	// ExitCode is the process exit status; -1 when the process was killed.
	ExitCode int

	Duration time.Duration
}

// Condition classifies r.Err.
func (r Result) Condition() Condition {
	switch {
	case r.Err == nil:
		return ConditionNoError
	case IsTimeoutError(r.Err):
		return ConditionTimeout
	default:
		return ConditionRaised
	}
}

// Succeeded reports whether the run completed within budget without error.
func (r Result) Succeeded() bool {
	return r.Err == nil
}

// Text concatenates all captured output in order.
func (r Result) Text() string {
	var b strings.Builder
	for _, c := range r.Output {
		b.WriteString(c.Text)
	}
	return b.String()
}

// StreamText concatenates the output of one stream in order.
func (r Result) StreamText(s Stream) string {
	var b strings.Builder
	for _, c := range r.Output {
		if c.Stream == s {
			b.WriteString(c.Text)
		}
	}
	return b.String()
}

// ErrorMessage returns r.Err's message, or "" when there is no error.
func (r Result) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
