package build

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/roach88/aiden/internal/executor"
	"github.com/roach88/aiden/internal/testutil"
)

// fakeGenerator returns codes[i] for iteration i, or errs[i] when set.
type fakeGenerator struct {
	mu    sync.Mutex
	codes []string
	errs  map[int]error
	reqs  []GenerationRequest
}

func (g *fakeGenerator) Generate(ctx context.Context, req GenerationRequest) (Candidate, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reqs = append(g.reqs, req)
	if err := g.errs[req.Iteration]; err != nil {
		return Candidate{}, err
	}
	if req.Iteration >= len(g.codes) {
		return Candidate{}, fmt.Errorf("no candidate for iteration %d", req.Iteration)
	}
	return Candidate{Code: g.codes[req.Iteration]}, nil
}

func (g *fakeGenerator) requests() []GenerationRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]GenerationRequest(nil), g.reqs...)
}

// fakeExecutor maps code to a canned outcome. Code prefixed "raise:" raises,
// "timeout" times out, "harness" fails the harness, "block" waits for ctx.
type fakeExecutor struct {
	mu      sync.Mutex
	reqs    []executor.Request
	clock   *testutil.ManualClock
	advance time.Duration
}

func (e *fakeExecutor) Execute(ctx context.Context, req executor.Request) (executor.Result, error) {
	e.mu.Lock()
	e.reqs = append(e.reqs, req)
	e.mu.Unlock()
	if e.clock != nil {
		e.clock.Advance(e.advance)
	}

	res := executor.Result{ExecutionID: req.ID, ExitCode: 0, Duration: time.Millisecond}
	switch {
	case req.Code == "harness":
		return executor.Result{ExecutionID: req.ID}, &executor.HarnessError{Op: "start", Err: errors.New("spawn failed")}
	case req.Code == "block":
		<-ctx.Done()
		return res, ctx.Err()
	case req.Code == "timeout":
		res.ExitCode = -1
		res.Err = &executor.TimeoutError{Timeout: req.Timeout}
	case len(req.Code) > 6 && req.Code[:6] == "raise:":
		res.ExitCode = 1
		res.Output = []executor.Chunk{{Stream: executor.Stderr, Text: req.Code[6:] + "\n"}}
		res.Err = &executor.ExecutionError{Type: "ValueError", Message: req.Code[6:], ExitCode: 1}
	default:
		res.Output = []executor.Chunk{{Stream: executor.Stdout, Text: "ran " + req.Code + "\n"}}
	}
	return res, nil
}

func (e *fakeExecutor) requests() []executor.Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]executor.Request(nil), e.reqs...)
}

// recorder captures observer events as compact strings.
type recorder struct {
	mu     sync.Mutex
	events []string
	infos  []BuildStateInfo
}

func (r *recorder) add(kind string, info BuildStateInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := kind + ":" + string(info.State)
	if info.Iteration != nil {
		s += fmt.Sprintf(":%d", *info.Iteration)
	}
	if kind == "iteration_end" {
		if info.Node != nil {
			s += ":node"
		} else {
			s += ":nonode"
		}
	}
	r.events = append(r.events, s)
	r.infos = append(r.infos, info)
}

func (r *recorder) OnBuildStart(_ context.Context, info BuildStateInfo) error {
	r.add("build_start", info)
	return nil
}

func (r *recorder) OnIterationStart(_ context.Context, info BuildStateInfo) error {
	r.add("iteration_start", info)
	return nil
}

func (r *recorder) OnIterationEnd(_ context.Context, info BuildStateInfo) error {
	r.add("iteration_end", info)
	return nil
}

func (r *recorder) OnBuildEnd(_ context.Context, info BuildStateInfo) error {
	r.add("build_end", info)
	return nil
}

type failingObserver struct {
	BaseObserver
	panicOn string
}

func (o failingObserver) OnBuildStart(context.Context, BuildStateInfo) error {
	if o.panicOn == "build_start" {
		panic("boom")
	}
	return errors.New("observer unavailable")
}

func (o failingObserver) OnIterationEnd(context.Context, BuildStateInfo) error {
	if o.panicOn == "iteration_end" {
		panic("boom")
	}
	return errors.New("observer unavailable")
}
