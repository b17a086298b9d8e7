package callback

import (
	"fmt"
	"io"
	"sync"
)

// SystemAgent is the agent name used for build lifecycle thoughts.
const SystemAgent = "System"

// Emitter receives chain-of-thought messages.
type Emitter interface {
	EmitThought(agent, message string)
}

// Step is one emitted thought.
type Step struct {
	Agent   string `json:"agent"`
	Message string `json:"message"`
}

// StepLog is an Emitter that keeps every thought in order.
//
// Thread-safety: safe for concurrent use via internal mutex.
type StepLog struct {
	mu    sync.Mutex
	steps []Step
}

// EmitThought implements Emitter.
func (l *StepLog) EmitThought(agent, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.steps = append(l.steps, Step{Agent: agent, Message: message})
}

// Steps returns a copy of the recorded steps.
func (l *StepLog) Steps() []Step {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Step(nil), l.steps...)
}

// Clear drops all recorded steps.
func (l *StepLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.steps = nil
}

// WriterEmitter prints each thought as "[agent] message" on its own line.
type WriterEmitter struct {
	mu sync.Mutex
	W  io.Writer
}

// EmitThought implements Emitter. Write errors are dropped.
func (e *WriterEmitter) EmitThought(agent, message string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fmt.Fprintf(e.W, "[%s] %s\n", agent, message)
}
