package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/roach88/aiden/internal/build"
	"github.com/roach88/aiden/internal/check"
	"github.com/roach88/aiden/internal/dataset"
	"github.com/roach88/aiden/internal/executor"
	"github.com/roach88/aiden/internal/generate"
	"github.com/roach88/aiden/internal/registry"
	"github.com/roach88/aiden/internal/store"
	"github.com/roach88/aiden/internal/testutil"
)

// workdirToken replaces the scratch working directory in traces.
const workdirToken = "$WORKDIR"

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh scratch directory and a fresh in-memory
// journal. The returned error is reserved for setup failures; build
// failures are reported through the result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	workdir, err := os.MkdirTemp("", "aiden-harness-")
	if err != nil {
		return nil, fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workdir)

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	reg := registry.New()
	if err := writeDatasets(reg, scenario.Datasets, workdir); err != nil {
		return nil, err
	}
	datasetEnv, err := executor.BindDatasets(reg, scenario.Inputs, scenario.Output)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	trace := &traceObserver{workdir: workdir}

	m := build.NewMachine(
		generate.NewScripted(scenario.Candidates...),
		executor.NewLocal(
			executor.WithInterpreter(scenario.Suffix, scenario.Interpreter...),
			executor.WithLogger(logger),
		),
		build.WithMaxIterations(scenario.MaxIterations),
		build.WithIterationTimeout(scenario.iterationTimeout),
		build.WithChecks(checksFor(scenario.Checks, reg, logger)...),
		build.WithObserver(trace),
		build.WithObserver(store.NewRecorder(st)),
		build.WithLogger(logger),
		build.WithClock(testutil.NewManualClock(0)),
		build.WithIDGenerator(testutil.NewFixedIDGenerator(scenario.BuildID)),
		build.WithWorkdir(workdir),
		build.WithDatasetEnv(datasetEnv),
	)

	tf := build.NewTransformation(build.Spec{
		ID:     scenario.Name,
		Intent: scenario.Intent,
		Plan:   scenario.Plan,
		Inputs: scenario.Inputs,
		Output: scenario.Output,
	})

	result := NewResult()
	buildErr := m.Build(ctx, tf)
	result.State = tf.State()
	result.Trace = trace.events()

	if exp := scenario.Expect; exp != nil {
		if tf.State() != exp.State {
			result.AddError(fmt.Sprintf("expect: state = %s, want %s (build error: %v)", tf.State(), exp.State, buildErr))
		}
		if exp.Iterations > 0 && len(tf.Records()) != exp.Iterations {
			result.AddError(fmt.Sprintf("expect: %d iterations, got %d", exp.Iterations, len(tf.Records())))
		}
	}

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func writeDatasets(reg *registry.Registry, fixtures []DatasetFixture, workdir string) error {
	datasets := make([]dataset.Dataset, 0, len(fixtures))
	for _, f := range fixtures {
		if f.Content != "" {
			path := filepath.Join(workdir, f.FileName())
			if err := os.WriteFile(path, []byte(f.Content), 0o644); err != nil {
				return fmt.Errorf("write dataset %s: %w", f.Name, err)
			}
		}
		var schema dataset.Schema
		if len(f.Fields) > 0 {
			schema = dataset.Schema(f.Fields)
		}
		datasets = append(datasets, dataset.New(f.FileName(), f.Format, schema).Named(f.Name))
	}
	return dataset.Register(reg, datasets...)
}

func checksFor(names []string, reg *registry.Registry, logger *slog.Logger) []build.Check {
	checks := make([]build.Check, 0, len(names))
	for _, name := range names {
		switch name {
		case CheckOutputExists:
			checks = append(checks, check.OutputExists{Registry: reg})
		case CheckOutputSchema:
			checks = append(checks, check.Schema{Registry: reg, Logger: logger})
		}
	}
	return checks
}

// traceObserver records deterministic trace events.
type traceObserver struct {
	mu      sync.Mutex
	workdir string
	trace   []TraceEvent
}

func (o *traceObserver) OnBuildStart(_ context.Context, info build.BuildStateInfo) error {
	o.add(TraceEvent{Event: EventBuildStart, State: info.State})
	return nil
}

func (o *traceObserver) OnIterationStart(_ context.Context, info build.BuildStateInfo) error {
	o.add(TraceEvent{Event: EventIterationStart, State: info.State, Iteration: info.Iteration})
	return nil
}

func (o *traceObserver) OnIterationEnd(_ context.Context, info build.BuildStateInfo) error {
	ev := TraceEvent{Event: EventIterationEnd, State: info.State, Iteration: info.Iteration}
	if rec := info.Record; rec != nil {
		accepted := rec.Accepted
		ev.Accepted = &accepted
		ev.Reason = o.clean(rec.Reason)
		for _, c := range rec.Checks {
			c.Message = o.clean(c.Message)
			ev.Checks = append(ev.Checks, c)
		}
		if rec.Result != nil {
			ev.Condition = string(rec.Result.Condition())
			ev.Output = o.clean(rec.Result.Text())
		}
	}
	o.add(ev)
	return nil
}

func (o *traceObserver) OnBuildEnd(_ context.Context, info build.BuildStateInfo) error {
	ev := TraceEvent{Event: EventBuildEnd, State: info.State}
	if info.Err != nil {
		ev.Error = o.clean(info.Err.Error())
	}
	o.add(ev)
	return nil
}

func (o *traceObserver) add(ev TraceEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	ev.Seq = len(o.trace) + 1
	o.trace = append(o.trace, ev)
}

func (o *traceObserver) events() []TraceEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]TraceEvent{}, o.trace...)
}

func (o *traceObserver) clean(s string) string {
	return strings.ReplaceAll(s, o.workdir, workdirToken)
}
