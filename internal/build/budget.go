package build

import "time"

// Budget tracks the iterations and wall-clock time a build may still spend.
//
// The iteration cap and the duration cap are independent; whichever runs out
// first ends the build. A zero maxDuration means time is unbounded and every
// iteration gets the full per-iteration timeout.
type Budget struct {
	maxIterations int
	maxDuration   time.Duration
	iterTimeout   time.Duration
	start         time.Time
	used          int
}

// NewBudget creates a budget starting at start.
func NewBudget(maxIterations int, maxDuration, iterTimeout time.Duration, start time.Time) *Budget {
	return &Budget{
		maxIterations: maxIterations,
		maxDuration:   maxDuration,
		iterTimeout:   iterTimeout,
		start:         start,
	}
}

// Next consumes one iteration and returns the timeout it may use:
// min(iterTimeout, time remaining). ok is false when either cap is spent.
func (b *Budget) Next(now time.Time) (timeout time.Duration, ok bool) {
	if b.used >= b.maxIterations {
		return 0, false
	}
	timeout = b.iterTimeout
	if b.maxDuration > 0 {
		remaining := b.maxDuration - now.Sub(b.start)
		if remaining <= 0 {
			return 0, false
		}
		timeout = min(timeout, remaining)
	}
	b.used++
	return timeout, true
}

// Used returns the number of iterations consumed.
func (b *Budget) Used() int {
	return b.used
}

// MaxIterations returns the iteration cap.
func (b *Budget) MaxIterations() int {
	return b.maxIterations
}
