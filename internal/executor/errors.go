package executor

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for errors.Is matching.
var (
	// ErrExecution is matched by ExecutionError: the candidate raised.
	ErrExecution = errors.New("candidate code raised an error")

	// ErrTimeout is matched by TimeoutError: the candidate exceeded its budget.
	ErrTimeout = errors.New("candidate code exceeded its time budget")

	// ErrHarness is matched by HarnessError: the isolation mechanism failed.
	ErrHarness = errors.New("execution harness failure")

	// ErrInvalidRequest indicates a Request that fails validation.
	ErrInvalidRequest = errors.New("invalid execution request")
)

// ExecutionError reports an unhandled error raised by candidate code.
type ExecutionError struct {
	// Type is the error classification when one could be parsed
	// (e.g. "ValueError"); empty otherwise.
	Type string

	// Message is the error message.
	Message string

	// ExitCode is the candidate process's exit status.
	ExitCode int
}

func (e *ExecutionError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	return e.Message
}

// Is reports whether target is ErrExecution.
func (e *ExecutionError) Is(target error) bool {
	return target == ErrExecution
}

// TimeoutError reports that the candidate was forcibly terminated after
// exceeding its time budget.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("execution timed out after %v", e.Timeout)
}

// Is reports whether target is ErrTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// HarnessError reports a failure of the executor itself (invalid request,
// unusable working directory, interpreter missing, spawn failure).
// Harness errors are fatal to a build.
type HarnessError struct {
	Op  string
	Err error
}

func (e *HarnessError) Error() string {
	return fmt.Sprintf("harness %s: %v", e.Op, e.Err)
}

func (e *HarnessError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrHarness.
func (e *HarnessError) Is(target error) bool {
	return target == ErrHarness
}

// IsExecutionError returns true if err is (or wraps) an ExecutionError.
func IsExecutionError(err error) bool {
	var ee *ExecutionError
	return errors.As(err, &ee)
}

// IsTimeoutError returns true if err is (or wraps) a TimeoutError.
func IsTimeoutError(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// IsHarnessError returns true if err is (or wraps) a HarnessError.
func IsHarnessError(err error) bool {
	var he *HarnessError
	return errors.As(err, &he)
}

func harnessErr(op string, err error) *HarnessError {
	return &HarnessError{Op: op, Err: err}
}
