package callback

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/aiden/internal/build"
)

// ChainOfThought narrates a build as System thoughts.
//
// Thoughts are kept per build ID, so one narrator can observe concurrent
// builds on the same Machine. A build's steps are replaced when that build
// ID starts again. Every thought is also forwarded to the configured emitters.
type ChainOfThought struct {
	mu       sync.Mutex
	logs     map[string]*StepLog
	last     string
	emitters []Emitter
}

// NewChainOfThought creates a narrator forwarding to emitters.
func NewChainOfThought(emitters ...Emitter) *ChainOfThought {
	return &ChainOfThought{logs: make(map[string]*StepLog), emitters: emitters}
}

// FullChainOfThought returns every step of the most recently started build.
func (c *ChainOfThought) FullChainOfThought() []Step {
	c.mu.Lock()
	last := c.last
	c.mu.Unlock()
	return c.Steps(last)
}

// Steps returns the steps recorded for buildID.
func (c *ChainOfThought) Steps(buildID string) []Step {
	c.mu.Lock()
	l := c.logs[buildID]
	c.mu.Unlock()
	if l == nil {
		return nil
	}
	return l.Steps()
}

func (c *ChainOfThought) logFor(buildID string, fresh bool) *StepLog {
	c.mu.Lock()
	defer c.mu.Unlock()
	l := c.logs[buildID]
	if l == nil || fresh {
		l = &StepLog{}
		c.logs[buildID] = l
	}
	if fresh {
		c.last = buildID
	}
	return l
}

func (c *ChainOfThought) emit(l *StepLog, message string) {
	l.EmitThought(SystemAgent, message)
	for _, e := range c.emitters {
		e.EmitThought(SystemAgent, message)
	}
}

// OnBuildStart implements build.Observer.
func (c *ChainOfThought) OnBuildStart(_ context.Context, info build.BuildStateInfo) error {
	msg := fmt.Sprintf("🚀 Starting build for: %s", info.Intent)
	if info.Provider != "" {
		msg += fmt.Sprintf(" (provider: %s)", info.Provider)
	}
	c.emit(c.logFor(info.BuildID, true), msg)
	return nil
}

// OnIterationStart implements build.Observer.
func (c *ChainOfThought) OnIterationStart(_ context.Context, info build.BuildStateInfo) error {
	c.emit(c.logFor(info.BuildID, false), fmt.Sprintf("📊 Starting iteration %d", iteration(info)))
	return nil
}

// OnIterationEnd implements build.Observer.
func (c *ChainOfThought) OnIterationEnd(_ context.Context, info build.BuildStateInfo) error {
	if info.Node != nil {
		c.emit(c.logFor(info.BuildID, false), fmt.Sprintf("📋 Iteration %d completed.", iteration(info)))
	} else {
		c.emit(c.logFor(info.BuildID, false), fmt.Sprintf("📋 Iteration %d failed: No performance metrics available", iteration(info)))
	}
	return nil
}

// OnBuildEnd implements build.Observer.
func (c *ChainOfThought) OnBuildEnd(_ context.Context, info build.BuildStateInfo) error {
	l := c.logFor(info.BuildID, false)
	if info.Err != nil {
		c.emit(l, fmt.Sprintf("❌ Build failed: %v", info.Err))
		return nil
	}
	c.emit(l, "✅ Model build completed")
	return nil
}

// iteration returns the 1-based iteration number of info.
func iteration(info build.BuildStateInfo) int {
	if info.Iteration == nil {
		return 0
	}
	return *info.Iteration + 1
}

var _ build.Observer = (*ChainOfThought)(nil)
