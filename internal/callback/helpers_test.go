package callback

import (
	"context"

	"github.com/roach88/aiden/internal/build"
	"github.com/roach88/aiden/internal/executor"
)

type scripted []string

func (s scripted) Generate(_ context.Context, req build.GenerationRequest) (build.Candidate, error) {
	return build.Candidate{Code: s[req.Iteration]}, nil
}

type okExecutor struct{}

func (okExecutor) Execute(_ context.Context, req executor.Request) (executor.Result, error) {
	return executor.Result{ExecutionID: req.ID}, nil
}
