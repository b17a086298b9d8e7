package build

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is matching.
var (
	// ErrTerminal is returned by Build for a transformation that is ready or
	// error. Use Machine.Rebuild to start it again.
	ErrTerminal = errors.New("transformation is in a terminal state")

	// ErrNotBuilt is returned by Rebuild for a transformation still in draft.
	ErrNotBuilt = errors.New("transformation has not been built")

	// ErrBuildInProgress is returned when a transformation is already building.
	ErrBuildInProgress = errors.New("transformation build already in progress")

	// ErrNotReady is returned by Save before the transformation is ready.
	ErrNotReady = errors.New("transformation is not ready")

	// ErrBuildExhausted is matched by BuildExhaustedError.
	ErrBuildExhausted = errors.New("build budget exhausted without an accepted candidate")
)

// TransitionError reports an illegal state transition.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal transition %s -> %s", e.From, e.To)
}

// Is matches ErrTerminal, ErrBuildInProgress or ErrNotBuilt depending on the
// source state.
func (e *TransitionError) Is(target error) bool {
	switch target {
	case ErrTerminal:
		return e.From.IsTerminal()
	case ErrBuildInProgress:
		return e.From == StateBuilding
	case ErrNotBuilt:
		return e.From == StateDraft
	}
	return false
}

// BuildExhaustedError is returned when the iteration or time budget ran out
// before any candidate was accepted.
type BuildExhaustedError struct {
	// Iterations is the number of iterations attempted.
	Iterations int

	// Last is the final rejected iteration, nil when none ran.
	Last *IterationRecord
}

func (e *BuildExhaustedError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("build exhausted after %d iterations", e.Iterations)
	}
	return fmt.Sprintf("build exhausted after %d iterations: last rejection: %s", e.Iterations, e.Last.Reason)
}

// Is reports whether target is ErrBuildExhausted.
func (e *BuildExhaustedError) Is(target error) bool {
	return target == ErrBuildExhausted
}

// IsBuildExhaustedError returns true if err is (or wraps) a BuildExhaustedError.
func IsBuildExhaustedError(err error) bool {
	var be *BuildExhaustedError
	return errors.As(err, &be)
}
