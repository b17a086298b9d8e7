package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/aiden/internal/artifact"
	"github.com/roach88/aiden/internal/environment"
	"github.com/roach88/aiden/internal/executor"
)

// Defaults for Machine.
const (
	DefaultMaxIterations    = 3
	DefaultIterationTimeout = 5 * time.Minute

	// feedbackLimit bounds the diagnostic appended to the plan per rejection.
	feedbackLimit = 2000
	feedbackKeep  = 900
)

// Machine runs builds. One Machine may build many transformations
// concurrently; each Build call owns its transformation for its duration.
type Machine struct {
	gen    Generator
	exec   executor.Executor
	checks []Check

	maxIterations    int
	iterationTimeout time.Duration
	maxDuration      time.Duration

	observers  Observers
	logger     *slog.Logger
	clock      Clock
	ids        IDGenerator
	workdir    string
	env        environment.Environment
	datasetEnv map[string]string
}

// Option configures a Machine.
type Option func(*Machine)

// WithMaxIterations sets the iteration cap (default 3). Values below 1 keep the default.
func WithMaxIterations(n int) Option {
	return func(m *Machine) {
		if n >= 1 {
			m.maxIterations = n
		}
	}
}

// WithIterationTimeout sets the per-iteration execution timeout (default 5m).
func WithIterationTimeout(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.iterationTimeout = d
		}
	}
}

// WithMaxDuration caps the wall-clock time of a whole build. Zero means unbounded.
func WithMaxDuration(d time.Duration) Option {
	return func(m *Machine) {
		m.maxDuration = d
	}
}

// WithChecks adds acceptance checks, run in order after a clean execution.
func WithChecks(checks ...Check) Option {
	return func(m *Machine) {
		m.checks = append(m.checks, checks...)
	}
}

// WithObserver adds an observer. Observers are notified in the order added.
func WithObserver(o Observer) Option {
	return func(m *Machine) {
		m.observers = append(m.observers, o)
	}
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithClock sets the clock used for timestamps and the duration cap.
func WithClock(c Clock) Option {
	return func(m *Machine) {
		m.clock = c
	}
}

// WithIDGenerator sets the build ID generator (default UUIDv7Generator).
func WithIDGenerator(g IDGenerator) Option {
	return func(m *Machine) {
		m.ids = g
	}
}

// WithWorkdir sets the working directory candidates run in. Defaults to the
// environment's workdir.
func WithWorkdir(dir string) Option {
	return func(m *Machine) {
		m.workdir = dir
	}
}

// WithEnvironment sets the environment passed to every execution.
func WithEnvironment(env environment.Environment) Option {
	return func(m *Machine) {
		m.env = env
	}
}

// WithDatasetEnv sets extra environment variables for every execution,
// typically the output of executor.BindDatasets.
func WithDatasetEnv(env map[string]string) Option {
	return func(m *Machine) {
		m.datasetEnv = env
	}
}

// NewMachine creates a build machine.
func NewMachine(gen Generator, exec executor.Executor, opts ...Option) *Machine {
	m := &Machine{
		gen:              gen,
		exec:             exec,
		maxIterations:    DefaultMaxIterations,
		iterationTimeout: DefaultIterationTimeout,
		clock:            systemClock{},
		ids:              UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.workdir == "" {
		m.workdir = m.env.Workdir
	}
	return m
}

// Build runs t to a terminal state.
//
// Returns nil when t is ready. Otherwise t is in error and the returned error
// is a *BuildExhaustedError, a wrapped *executor.HarnessError, or the context
// error. A t that is not in draft is rejected without any state change.
func (m *Machine) Build(ctx context.Context, t *Transformation) error {
	return m.run(ctx, t, false)
}

// Rebuild starts a fresh build of a ready or error transformation. The
// previous build's state, records and code stay readable until this call and
// are discarded when the new build begins. A t in draft or building is
// rejected without any state change.
func (m *Machine) Rebuild(ctx context.Context, t *Transformation) error {
	return m.run(ctx, t, true)
}

func (m *Machine) run(ctx context.Context, t *Transformation, restart bool) error {
	if s := t.State(); restart != s.IsTerminal() {
		return &TransitionError{From: s, To: StateBuilding}
	}
	buildID := m.ids.Generate()
	start := m.clock.Now()
	if err := t.begin(buildID, start, restart); err != nil {
		return err
	}

	spec := t.Spec()
	base := BuildStateInfo{
		BuildID:          buildID,
		TransformationID: spec.ID,
		Intent:           spec.Intent,
		Provider:         spec.Provider,
	}
	logger := m.logger.With("build_id", buildID, "transformation_id", spec.ID)
	logger.Info("build starting", "max_iterations", m.maxIterations, "provider", spec.Provider)
	m.notify(ctx, logger, "build_start", base, StateBuilding, Observer.OnBuildStart)

	budget := NewBudget(m.maxIterations, m.maxDuration, m.iterationTimeout, start)
	var last *IterationRecord

	for {
		if err := ctx.Err(); err != nil {
			return m.fail(ctx, logger, t, base, err)
		}
		timeout, ok := budget.Next(m.clock.Now())
		if !ok {
			break
		}
		i := budget.Used() - 1

		rec, node, fatal := m.iterate(ctx, logger, t, spec, base, i, timeout)

		feedback := ""
		if !rec.Accepted && fatal == nil {
			feedback = rejectionFeedback(rec)
		}
		t.appendRecord(rec, feedback)

		info := base
		info.Iteration = &i
		info.Node = node
		info.Record = &rec
		m.notify(ctx, logger, "iteration_end", info, StateBuilding, Observer.OnIterationEnd)

		if fatal != nil {
			return m.fail(ctx, logger, t, base, fatal)
		}
		if rec.Accepted {
			return m.succeed(ctx, logger, t, base, rec)
		}
		logger.Info("iteration rejected", "iteration", i+1, "reason", rec.Reason)
		last = &rec
	}

	return m.fail(ctx, logger, t, base, &BuildExhaustedError{Iterations: budget.Used(), Last: last})
}

// iterate runs one generate, execute, evaluate cycle. The returned error is
// non-nil only for faults that end the build.
func (m *Machine) iterate(
	ctx context.Context,
	logger *slog.Logger,
	t *Transformation,
	spec Spec,
	base BuildStateInfo,
	i int,
	timeout time.Duration,
) (IterationRecord, *Node, error) {
	started := m.clock.Now()
	rec := IterationRecord{Index: i, StartedAt: started}
	finish := func() { rec.Duration = m.clock.Now().Sub(started) }

	info := base
	info.Iteration = &i
	m.notify(ctx, logger, "iteration_start", info, StateBuilding, Observer.OnIterationStart)

	cand, err := m.gen.Generate(ctx, GenerationRequest{
		Task:          spec.Intent,
		Plan:          t.Plan(),
		InputDatasets: spec.Inputs,
		OutputDataset: spec.Output,
		Iteration:     i,
	})
	if err != nil {
		rec.Reason = fmt.Sprintf("generation failed: %v", err)
		finish()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return rec, nil, ctxErr
		}
		return rec, nil, nil
	}

	rec.Code = cand.Code
	rec.ArtifactID = cand.ArtifactID
	if rec.ArtifactID == "" {
		rec.ArtifactID = artifact.ID(cand.Code)
	}
	rec.ExecutionID = fmt.Sprintf("%s-%d", base.BuildID, i)

	res, err := m.exec.Execute(ctx, executor.Request{
		ID:          rec.ExecutionID,
		Code:        cand.Code,
		Workdir:     m.workdir,
		Timeout:     timeout,
		Environment: m.env,
		Env:         m.datasetEnv,
	})
	rec.Result = &res
	if err != nil {
		rec.Reason = err.Error()
		finish()
		return rec, nil, fmt.Errorf("iteration %d: %w", i+1, err)
	}
	if res.Err != nil {
		rec.Reason = fmt.Sprintf("execution %s: %s", res.Condition(), res.ErrorMessage())
		finish()
		return rec, nil, nil
	}

	rec.Checks = m.runChecks(ctx, logger, CheckInput{
		TransformationID: spec.ID,
		Workdir:          m.workdir,
		InputDatasets:    spec.Inputs,
		OutputDataset:    spec.Output,
		Result:           res,
	})
	rec.Accepted = true
	for _, c := range rec.Checks {
		if !c.Passed {
			rec.Accepted = false
			rec.Reason = fmt.Sprintf("check %s failed: %s", c.Name, c.Message)
			break
		}
	}
	finish()

	node := &Node{
		ArtifactID:  rec.ArtifactID,
		ExecutionID: rec.ExecutionID,
		Output:      res.Text(),
		Duration:    res.Duration,
		Checks:      rec.Checks,
	}
	return rec, node, nil
}

// runChecks runs every check; a panicking check counts as failed.
func (m *Machine) runChecks(ctx context.Context, logger *slog.Logger, in CheckInput) []CheckResult {
	if len(m.checks) == 0 {
		return nil
	}
	results := make([]CheckResult, 0, len(m.checks))
	for _, c := range m.checks {
		err := runCheck(ctx, c, in)
		r := CheckResult{Name: c.Name(), Passed: err == nil}
		if err != nil {
			r.Message = err.Error()
			logger.Debug("check failed", "check", c.Name(), "error", err)
		}
		results = append(results, r)
	}
	return results
}

func runCheck(ctx context.Context, c Check, in CheckInput) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("check panicked: %v", r)
		}
	}()
	return c.Check(ctx, in)
}

func (m *Machine) succeed(ctx context.Context, logger *slog.Logger, t *Transformation, base BuildStateInfo, rec IterationRecord) error {
	if err := t.succeed(rec, m.clock.Now()); err != nil {
		return err
	}
	logger.Info("build ready", "iteration", rec.Index+1, "artifact_id", artifact.ShortID(rec.ArtifactID))

	info := base
	info.FinalArtifactID = rec.ArtifactID
	m.notify(ctx, logger, "build_end", info, StateReady, Observer.OnBuildEnd)
	return nil
}

func (m *Machine) fail(ctx context.Context, logger *slog.Logger, t *Transformation, base BuildStateInfo, cause error) error {
	if err := t.fail(cause, m.clock.Now()); err != nil {
		return errors.Join(cause, err)
	}
	logger.Warn("build failed", "error", cause)

	info := base
	info.Err = cause
	m.notify(ctx, logger, "build_end", info, StateError, Observer.OnBuildEnd)
	return cause
}

// notify calls the observers and logs their failures. Observers still hear
// about the end of a cancelled build.
func (m *Machine) notify(
	ctx context.Context,
	logger *slog.Logger,
	event string,
	info BuildStateInfo,
	state State,
	call func(Observer, context.Context, BuildStateInfo) error,
) {
	if len(m.observers) == 0 {
		return
	}
	info.State = state
	info.At = m.clock.Now()
	ctx = context.WithoutCancel(ctx)
	if err := call(m.observers, ctx, info); err != nil {
		logger.Warn("observer failed", "event", event, "error", err)
	}
}

func rejectionFeedback(rec IterationRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n\nIteration %d was rejected: %s", rec.Index+1, rec.Reason)
	if rec.Result != nil {
		if out := strings.TrimSpace(rec.Result.Text()); out != "" {
			b.WriteString("\nOutput:\n")
			b.WriteString(out)
		}
	}
	return artifact.TrimLongString(b.String(), feedbackLimit, feedbackKeep)
}
