package build

import (
	"context"
	"time"

	"github.com/roach88/aiden/internal/executor"
)

// Generator produces candidate code. It is the only boundary to the language
// model; implementations may block on network I/O and must honour ctx.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (Candidate, error)
}

// GenerationRequest is what a Generator sees for one iteration.
type GenerationRequest struct {
	Task          string
	Plan          string
	InputDatasets []string
	OutputDataset string

	// Iteration is the 0-based iteration index.
	Iteration int
}

// Candidate is one generated code artifact.
type Candidate struct {
	Code string

	// ArtifactID is optional; the machine derives it from Code when empty.
	ArtifactID string
}

// Check evaluates an executed candidate. A nil error means the check passed.
type Check interface {
	Name() string
	Check(ctx context.Context, in CheckInput) error
}

// CheckInput is what a Check sees after a candidate ran without error.
type CheckInput struct {
	TransformationID string
	Workdir          string
	InputDatasets    []string
	OutputDataset    string
	Result           executor.Result
}

// CheckResult records the outcome of one Check.
type CheckResult struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
}

// CheckFunc adapts a function to the Check interface.
type CheckFunc struct {
	CheckName string
	Fn        func(ctx context.Context, in CheckInput) error
}

// Name returns the check name.
func (c CheckFunc) Name() string { return c.CheckName }

// Check calls Fn.
func (c CheckFunc) Check(ctx context.Context, in CheckInput) error { return c.Fn(ctx, in) }

// IterationRecord is the append-only record of one iteration.
type IterationRecord struct {
	// Index is 0-based.
	Index int

	ArtifactID  string
	Code        string
	ExecutionID string

	// Result is nil when generation failed and nothing ran.
	Result *executor.Result

	Accepted bool

	// Reason explains a rejection; empty when accepted.
	Reason string

	Checks    []CheckResult
	StartedAt time.Time
	Duration  time.Duration
}

// Node is the diagnostic attached to an iteration whose candidate ran
// without error. Rejected-by-check candidates still get a node.
type Node struct {
	ArtifactID  string
	ExecutionID string
	Output      string
	Duration    time.Duration
	Checks      []CheckResult
}

// Clock supplies wall-clock time. Tests inject testutil.ManualClock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
