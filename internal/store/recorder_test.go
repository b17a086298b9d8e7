package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/roach88/aiden/internal/artifact"
	"github.com/roach88/aiden/internal/build"
	"github.com/roach88/aiden/internal/executor"
	"github.com/roach88/aiden/internal/generate"
	"github.com/roach88/aiden/internal/testutil"
)

// raisingExecutor fails code containing "raise" and succeeds otherwise.
type raisingExecutor struct{}

func (raisingExecutor) Execute(_ context.Context, req executor.Request) (executor.Result, error) {
	res := executor.Result{ExecutionID: req.ID, Duration: 20 * time.Millisecond}
	if strings.Contains(req.Code, "raise") {
		res.ExitCode = 1
		res.Output = []executor.Chunk{{Stream: executor.Stderr, Text: "ValueError: bad\n"}}
		res.Err = &executor.ExecutionError{Type: "ValueError", Message: "bad", ExitCode: 1}
		return res, nil
	}
	res.Output = []executor.Chunk{{Stream: executor.Stdout, Text: "ok\n"}}
	return res, nil
}

func TestRecorder_JournalsBuild(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	gen := generate.NewScripted("raise ValueError('bad')", "print('ok')")
	m := build.NewMachine(gen, raisingExecutor{},
		build.WithWorkdir(t.TempDir()),
		build.WithClock(testutil.NewManualClock(time.Second)),
		build.WithIDGenerator(testutil.NewFixedIDGenerator("build-1")),
		build.WithObserver(NewRecorder(s)),
	)
	tf := build.NewTransformation(build.Spec{ID: "tf-1", Intent: "clean emails"})

	if err := m.Build(ctx, tf); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	b, err := s.ReadBuild(ctx, "build-1")
	if err != nil {
		t.Fatalf("ReadBuild() error = %v", err)
	}
	if b.State != build.StateReady {
		t.Errorf("State = %s, want ready", b.State)
	}
	if b.TransformationID != "tf-1" || b.Intent != "clean emails" {
		t.Errorf("build = %+v", b)
	}
	if b.FinalArtifactID != artifact.ID("print('ok')") {
		t.Errorf("FinalArtifactID = %s", b.FinalArtifactID)
	}
	if !b.FinishedAt.After(b.StartedAt) {
		t.Errorf("FinishedAt %v not after StartedAt %v", b.FinishedAt, b.StartedAt)
	}

	its, err := s.ReadIterations(ctx, "build-1")
	if err != nil {
		t.Fatalf("ReadIterations() error = %v", err)
	}
	if len(its) != 2 {
		t.Fatalf("len(iterations) = %d, want 2", len(its))
	}
	if its[0].Accepted || its[0].Condition != executor.ConditionRaised {
		t.Errorf("iteration 0 = %+v", its[0])
	}
	if !its[1].Accepted || its[1].Condition != executor.ConditionNoError {
		t.Errorf("iteration 1 = %+v", its[1])
	}

	code, err := s.ReadArtifact(ctx, b.FinalArtifactID)
	if err != nil {
		t.Fatalf("ReadArtifact() error = %v", err)
	}
	if code != "print('ok')" {
		t.Errorf("code = %q", code)
	}
}

func TestRecorder_JournalsFailure(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	gen := generate.NewScripted("raise 1", "raise 2")
	m := build.NewMachine(gen, raisingExecutor{},
		build.WithWorkdir(t.TempDir()),
		build.WithMaxIterations(2),
		build.WithIDGenerator(testutil.NewFixedIDGenerator("build-x")),
		build.WithObserver(NewRecorder(s)),
	)
	tf := build.NewTransformation(build.Spec{ID: "tf-1", Intent: "never works"})

	if err := m.Build(ctx, tf); !build.IsBuildExhaustedError(err) {
		t.Fatalf("Build() error = %v, want BuildExhaustedError", err)
	}

	b, err := s.ReadBuild(ctx, "build-x")
	if err != nil {
		t.Fatalf("ReadBuild() error = %v", err)
	}
	if b.State != build.StateError || b.Error == "" {
		t.Errorf("build = %+v, want error state with message", b)
	}
	if b.FinalArtifactID != "" {
		t.Errorf("FinalArtifactID = %q, want empty", b.FinalArtifactID)
	}

	its, err := s.ReadIterations(ctx, "build-x")
	if err != nil {
		t.Fatalf("ReadIterations() error = %v", err)
	}
	if len(its) != 2 {
		t.Errorf("len(iterations) = %d, want 2", len(its))
	}
}
