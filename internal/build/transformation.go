package build

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Spec describes what a Transformation should do.
type Spec struct {
	// ID is generated (UUIDv7) when empty.
	ID string

	Intent string

	// Provider identifies the model backing the generator, e.g. "openai/gpt-4o-mini".
	Provider string

	Inputs []string
	Output string

	// Plan is the base solution plan handed to the first iteration.
	Plan string
}

// Transformation is one unit of work moving through the build state machine.
//
// Thread-safety: all methods are safe for concurrent use. The state itself
// is only advanced by Machine.Build.
type Transformation struct {
	mu sync.Mutex

	spec  Spec
	state State
	plan  string

	records         []IterationRecord
	finalCode       string
	finalArtifactID string
	err             error

	buildID    string
	startedAt  time.Time
	finishedAt time.Time
}

// NewTransformation creates a transformation in draft.
func NewTransformation(spec Spec) *Transformation {
	if spec.ID == "" {
		spec.ID = UUIDv7Generator{}.Generate()
	}
	spec.Inputs = append([]string(nil), spec.Inputs...)
	return &Transformation{
		spec:  spec,
		state: StateDraft,
		plan:  spec.Plan,
	}
}

// ID returns the transformation ID.
func (t *Transformation) ID() string {
	return t.spec.ID
}

// Spec returns a copy of the transformation's spec.
func (t *Transformation) Spec() Spec {
	s := t.spec
	s.Inputs = append([]string(nil), s.Inputs...)
	return s
}

// State returns the current state.
func (t *Transformation) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Plan returns the base plan plus accumulated rejection feedback.
func (t *Transformation) Plan() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.plan
}

// Records returns a copy of the iteration records in order.
func (t *Transformation) Records() []IterationRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]IterationRecord, len(t.records))
	copy(out, t.records)
	return out
}

// FinalCode returns the accepted code; empty unless ready.
func (t *Transformation) FinalCode() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.finalCode
}

// FinalArtifactID returns the accepted artifact's ID; empty unless ready.
func (t *Transformation) FinalArtifactID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.finalArtifactID
}

// Err returns the error that moved the transformation to error, if any.
func (t *Transformation) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// BuildID returns the ID of the most recent build, empty before the first.
func (t *Transformation) BuildID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buildID
}

// Elapsed returns the duration of the last completed build.
func (t *Transformation) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finishedAt.IsZero() {
		return 0
	}
	return t.finishedAt.Sub(t.startedAt)
}

// Save writes the accepted code to path, creating parent directories.
func (t *Transformation) Save(path string) error {
	t.mu.Lock()
	state, code := t.state, t.finalCode
	t.mu.Unlock()

	if state != StateReady {
		return fmt.Errorf("save %s: %w (state %s)", t.spec.ID, ErrNotReady, state)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("save %s: %w", t.spec.ID, err)
	}
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		return fmt.Errorf("save %s: %w", t.spec.ID, err)
	}
	return nil
}

// begin moves draft -> building, or ready/error -> building when restart is
// set. A restart discards the previous build's records, accepted code and error.
func (t *Transformation) begin(buildID string, at time.Time, restart bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if restart != t.state.IsTerminal() {
		return &TransitionError{From: t.state, To: StateBuilding}
	}
	if err := t.transition(StateBuilding); err != nil {
		return err
	}
	t.buildID = buildID
	t.startedAt = at
	t.finishedAt = time.Time{}
	t.plan = t.spec.Plan
	t.records = nil
	t.finalCode = ""
	t.finalArtifactID = ""
	t.err = nil
	return nil
}

func (t *Transformation) appendRecord(rec IterationRecord, feedback string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = append(t.records, rec)
	if feedback != "" {
		t.plan += feedback
	}
}

// succeed moves building -> ready with rec as the accepted iteration.
func (t *Transformation) succeed(rec IterationRecord, at time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.transition(StateReady); err != nil {
		return err
	}
	t.finalCode = rec.Code
	t.finalArtifactID = rec.ArtifactID
	t.finishedAt = at
	return nil
}

// fail moves building -> error.
func (t *Transformation) fail(cause error, at time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.transition(StateError); err != nil {
		return err
	}
	t.err = cause
	t.finishedAt = at
	return nil
}

// transition must be called with mu held.
func (t *Transformation) transition(to State) error {
	if !canTransition(t.state, to) {
		return &TransitionError{From: t.state, To: to}
	}
	t.state = to
	return nil
}
