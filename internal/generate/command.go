package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/roach88/aiden/internal/artifact"
	"github.com/roach88/aiden/internal/build"
	"github.com/roach88/aiden/internal/dataset"
	"github.com/roach88/aiden/internal/registry"
)

// DefaultCommandTimeout bounds one call of the generator command.
const DefaultCommandTimeout = 2 * time.Minute

// ErrEmptyResponse is returned when the command produced no code.
var ErrEmptyResponse = errors.New("generator returned no code")

// CommandRequest is the JSON document written to the command's stdin.
type CommandRequest struct {
	Task          string                     `json:"task"`
	Plan          string                     `json:"plan"`
	InputDatasets []string                   `json:"input_datasets"`
	OutputDataset string                     `json:"output_dataset,omitempty"`
	Iteration     int                        `json:"iteration"`
	Provider      string                     `json:"provider,omitempty"`
	Datasets      map[string]dataset.Dataset `json:"datasets,omitempty"`
}

// commandResponse is the optional JSON form of the command's stdout.
type commandResponse struct {
	Code string `json:"code"`
}

// Command runs an external program per generation.
//
// stdout is either a JSON object {"code": "..."} or free text, from which
// fenced code blocks are extracted. A non-zero exit is a generation error
// carrying the tail of stderr.
type Command struct {
	argv     []string
	provider string
	timeout  time.Duration
	registry *registry.Registry
	logger   *slog.Logger
}

// CommandOption configures a Command.
type CommandOption func(*Command)

// WithProvider names the model the command should use. It is sent in the
// request and exported as AIDEN_PROVIDER.
func WithProvider(provider string) CommandOption {
	return func(c *Command) {
		c.provider = provider
	}
}

// WithTimeout bounds each call (default 2m). Non-positive values are ignored.
func WithTimeout(d time.Duration) CommandOption {
	return func(c *Command) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRegistry makes the command request carry the full descriptions of the
// input and output datasets.
func WithRegistry(r *registry.Registry) CommandOption {
	return func(c *Command) {
		c.registry = r
	}
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(logger *slog.Logger) CommandOption {
	return func(c *Command) {
		c.logger = logger
	}
}

// NewCommand creates a generator running argv.
func NewCommand(argv []string, opts ...CommandOption) (*Command, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, errors.New("generator command is empty")
	}
	c := &Command{argv: argv, timeout: DefaultCommandTimeout}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// Generate implements build.Generator.
func (c *Command) Generate(ctx context.Context, req build.GenerationRequest) (build.Candidate, error) {
	payload, err := c.request(req)
	if err != nil {
		return build.Candidate{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.argv[0], c.argv[1:]...)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.WaitDelay = time.Second
	cmd.Env = append(os.Environ(), "AIDEN_PROVIDER="+c.provider)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger.Debug("generator command starting", "command", c.argv[0], "iteration", req.Iteration)
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return build.Candidate{}, fmt.Errorf("generator command: %w", ctxErr)
		}
		msg := artifact.TrimLongString(strings.TrimSpace(stderr.String()), 500, 200)
		if msg == "" {
			return build.Candidate{}, fmt.Errorf("generator command: %w", err)
		}
		return build.Candidate{}, fmt.Errorf("generator command: %w: %s", err, msg)
	}

	code := parseResponse(stdout.Bytes())
	if code == "" {
		return build.Candidate{}, ErrEmptyResponse
	}
	return build.Candidate{Code: code, ArtifactID: artifact.ID(code)}, nil
}

func (c *Command) request(req build.GenerationRequest) ([]byte, error) {
	cr := CommandRequest{
		Task:          req.Task,
		Plan:          req.Plan,
		InputDatasets: req.InputDatasets,
		OutputDataset: req.OutputDataset,
		Iteration:     req.Iteration,
		Provider:      c.provider,
	}
	if c.registry != nil {
		names := append([]string(nil), req.InputDatasets...)
		if req.OutputDataset != "" {
			names = append(names, req.OutputDataset)
		}
		datasets, err := dataset.LookupMultiple(c.registry, names)
		if err != nil {
			return nil, fmt.Errorf("describe datasets: %w", err)
		}
		cr.Datasets = datasets
	}
	payload, err := json.Marshal(cr)
	if err != nil {
		return nil, fmt.Errorf("marshal generation request: %w", err)
	}
	return payload, nil
}

func parseResponse(out []byte) string {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var resp commandResponse
		if err := json.Unmarshal(trimmed, &resp); err == nil && resp.Code != "" {
			return artifact.ExtractCode(resp.Code)
		}
	}
	return artifact.ExtractCode(string(trimmed))
}

var _ build.Generator = (*Command)(nil)
