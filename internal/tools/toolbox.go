package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/aiden/internal/dataset"
	"github.com/roach88/aiden/internal/executor"
	"github.com/roach88/aiden/internal/registry"
)

// Timeout limits for execute_code.
const (
	// DefaultTimeout applies when execute_code is called without a timeout.
	DefaultTimeout = 5 * time.Minute

	// MaxTimeoutSeconds is the largest timeout a caller may request.
	MaxTimeoutSeconds = 3600
)

// ErrInvalidTimeout is returned for a negative or too large execute_code timeout.
var ErrInvalidTimeout = errors.New("invalid timeout")

// Toolbox implements the tools over a registry and an executor.
type Toolbox struct {
	registry *registry.Registry
	exec     executor.Executor
	workdir  string
	timeout  time.Duration
	logger   *slog.Logger
}

// Option configures a Toolbox.
type Option func(*Toolbox)

// WithWorkdir sets the working directory used when a call names none.
func WithWorkdir(dir string) Option {
	return func(t *Toolbox) {
		t.workdir = dir
	}
}

// WithTimeout sets the default execution timeout.
func WithTimeout(d time.Duration) Option {
	return func(t *Toolbox) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(t *Toolbox) {
		t.logger = logger
	}
}

// New creates a toolbox.
func New(reg *registry.Registry, exec executor.Executor, opts ...Option) *Toolbox {
	t := &Toolbox{
		registry: reg,
		exec:     exec,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	return t
}

// ExecuteCodeInput is the argument of execute_code.
type ExecuteCodeInput struct {
	NodeID            string   `json:"node_id,omitempty" jsonschema:"identifier of the solution node, used to label the execution"`
	Code              string   `json:"code" jsonschema:"the transformation code to run"`
	WorkingDir        string   `json:"working_dir,omitempty" jsonschema:"directory the code runs in; defaults to the environment workdir"`
	InputDatasetNames []string `json:"input_dataset_names,omitempty" jsonschema:"registered datasets the code reads"`
	OutputDatasetName string   `json:"output_dataset_name,omitempty" jsonschema:"registered dataset the code writes"`
	TimeoutSeconds    int      `json:"timeout,omitempty" jsonschema:"execution budget in seconds, at most 3600"`
}

// ExecuteCodeOutput is the result of execute_code.
// Exception is nil exactly when Success is true.
type ExecuteCodeOutput struct {
	Success   bool    `json:"success"`
	Exception *string `json:"exception,omitempty"`
	Output    string  `json:"output"`
}

// ExecuteCode runs in.Code once. Candidate failures are reported in the
// output; the returned error is reserved for unknown datasets, harness
// faults and cancellation.
func (t *Toolbox) ExecuteCode(ctx context.Context, in ExecuteCodeInput) (ExecuteCodeOutput, error) {
	if in.TimeoutSeconds < 0 || in.TimeoutSeconds > MaxTimeoutSeconds {
		return ExecuteCodeOutput{}, fmt.Errorf("%w: %d seconds (want 1..%d, or 0 for the default)",
			ErrInvalidTimeout, in.TimeoutSeconds, MaxTimeoutSeconds)
	}
	env, err := executor.BindDatasets(t.registry, in.InputDatasetNames, in.OutputDatasetName)
	if err != nil {
		return ExecuteCodeOutput{}, err
	}

	timeout := t.timeout
	if in.TimeoutSeconds > 0 {
		timeout = time.Duration(in.TimeoutSeconds) * time.Second
	}
	workdir := in.WorkingDir
	if workdir == "" {
		workdir = t.workdir
	}
	id := in.NodeID
	if id == "" {
		id = uuid.NewString()
	}

	res, err := t.exec.Execute(ctx, executor.Request{
		ID:      id,
		Code:    in.Code,
		Workdir: workdir,
		Timeout: timeout,
		Env:     env,
	})
	if err != nil {
		return ExecuteCodeOutput{}, fmt.Errorf("execute %s: %w", id, err)
	}

	out := ExecuteCodeOutput{Success: res.Succeeded(), Output: res.Text()}
	if !out.Success {
		msg := res.ErrorMessage()
		out.Exception = &msg
	}
	t.logger.Debug("tool executed code", "node_id", id, "condition", res.Condition())
	return out, nil
}

// DatasetSummary is one entry of list_datasets.
type DatasetSummary struct {
	Name   string             `json:"name"`
	Kind   dataset.SourceKind `json:"kind"`
	Format string             `json:"format"`
}

// ListDatasetsOutput is the result of list_datasets.
type ListDatasetsOutput struct {
	Datasets []DatasetSummary `json:"datasets"`
}

// ListDatasets returns every registered dataset sorted by name.
func (t *Toolbox) ListDatasets(ctx context.Context) ListDatasetsOutput {
	all := registry.GetAllAs[dataset.Dataset](t.registry, dataset.Category)
	out := ListDatasetsOutput{Datasets: make([]DatasetSummary, 0, len(all))}
	for name, d := range all {
		out.Datasets = append(out.Datasets, DatasetSummary{Name: name, Kind: d.Kind, Format: d.Format})
	}
	sort.Slice(out.Datasets, func(i, j int) bool {
		return out.Datasets[i].Name < out.Datasets[j].Name
	})
	return out
}

// DescribeDatasetInput is the argument of describe_dataset.
type DescribeDatasetInput struct {
	Name string `json:"name" jsonschema:"registered dataset name"`
}

// DescribeDatasetOutput is the result of describe_dataset.
type DescribeDatasetOutput struct {
	Dataset dataset.Dataset `json:"dataset"`
	Fields  []string        `json:"fields"`
}

// DescribeDataset returns the full handle of one dataset.
func (t *Toolbox) DescribeDataset(ctx context.Context, in DescribeDatasetInput) (DescribeDatasetOutput, error) {
	d, err := dataset.Lookup(t.registry, in.Name)
	if err != nil {
		return DescribeDatasetOutput{}, err
	}
	return DescribeDatasetOutput{Dataset: d, Fields: d.Schema.Fields()}, nil
}
