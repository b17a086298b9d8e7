package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"
)

// Defaults for Local.
const (
	DefaultInterpreter = "python3"
	DefaultSuffix      = ".py"
	DefaultWaitDelay   = 2 * time.Second
)

// Local runs candidate code in a child process on this machine.
//
// Each execution writes the code to a scratch file under the working
// directory and runs it with the configured interpreter in its own process
// group. On deadline the whole group is killed; cooperative exit is never
// relied on.
//
// Thread-safety: Local is immutable after construction and safe for
// concurrent use; each Execute call owns its own child process.
type Local struct {
	interpreter []string
	suffix      string
	waitDelay   time.Duration
	baseEnv     []string
	extraEnv    []string
	logger      *slog.Logger
}

// LocalOption configures a Local executor.
type LocalOption func(*Local)

// WithInterpreter sets the interpreter argv and the scratch file suffix.
// The script path is appended as the final argument.
//
// Example: WithInterpreter(".sh", "sh")
func WithInterpreter(suffix string, argv ...string) LocalOption {
	return func(l *Local) {
		if len(argv) > 0 {
			l.interpreter = argv
		}
		l.suffix = suffix
	}
}

// WithWaitDelay bounds how long Execute waits for output pipes to close
// after the child exits or is killed.
func WithWaitDelay(d time.Duration) LocalOption {
	return func(l *Local) {
		l.waitDelay = d
	}
}

// WithBaseEnv replaces the inherited process environment (default os.Environ()).
func WithBaseEnv(env []string) LocalOption {
	return func(l *Local) {
		l.baseEnv = env
	}
}

// WithEnv adds KEY=VALUE entries after the base environment.
func WithEnv(kv ...string) LocalOption {
	return func(l *Local) {
		l.extraEnv = append(l.extraEnv, kv...)
	}
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(logger *slog.Logger) LocalOption {
	return func(l *Local) {
		l.logger = logger
	}
}

// NewLocal creates a local executor. Defaults to python3 with unbuffered output.
func NewLocal(opts ...LocalOption) *Local {
	l := &Local{
		interpreter: []string{DefaultInterpreter},
		suffix:      DefaultSuffix,
		waitDelay:   DefaultWaitDelay,
		baseEnv:     os.Environ(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// Execute runs req.Code once and returns its Result.
func (l *Local) Execute(ctx context.Context, req Request) (Result, error) {
	res := Result{ExecutionID: req.ID, ExitCode: -1}

	if err := validateRequest(req); err != nil {
		return res, harnessErr("validate", err)
	}

	interpreter, err := exec.LookPath(l.interpreter[0])
	if err != nil {
		return res, harnessErr("lookup interpreter", err)
	}

	// Creating the scratch dir doubles as the writability check.
	scratch, err := os.MkdirTemp(req.Workdir, ".aiden-run-")
	if err != nil {
		return res, harnessErr("prepare workdir", err)
	}
	defer os.RemoveAll(scratch)

	script := filepath.Join(scratch, "main"+l.suffix)
	if err := os.WriteFile(script, []byte(req.Code), 0o644); err != nil {
		return res, harnessErr("write script", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	args := append(append([]string{}, l.interpreter[1:]...), script)
	cmd := exec.CommandContext(runCtx, interpreter, args...)
	cmd.Dir = req.Workdir
	cmd.Env = l.environ(req)
	cmd.WaitDelay = l.waitDelay

	out := &capture{}
	cmd.Stdout = out.stream(Stdout)
	cmd.Stderr = out.stream(Stderr)
	isolate(cmd)

	l.logger.Debug("execution starting", "execution_id", req.ID, "workdir", req.Workdir, "timeout", req.Timeout)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return res, harnessErr("start", err)
	}
	waitErr := cmd.Wait()
	reap(cmd)

	res.Duration = time.Since(start)
	res.Output = out.snapshot()
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	switch {
	case waitErr == nil:
		// Completed within budget.
	case errors.Is(waitErr, exec.ErrWaitDelay) && res.ExitCode == 0:
		l.logger.Warn("execution left output pipes open", "execution_id", req.ID)
	case ctx.Err() != nil:
		return res, ctx.Err()
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		res.Err = &TimeoutError{Timeout: req.Timeout}
	default:
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return res, harnessErr("wait", waitErr)
		}
		res.Err = classifyFailure(res.StreamText(Stderr), res.ExitCode)
	}

	l.logger.Debug("execution finished",
		"execution_id", req.ID,
		"condition", res.Condition(),
		"exit_code", res.ExitCode,
		"duration", res.Duration,
	)
	return res, nil
}

func (l *Local) environ(req Request) []string {
	env := append([]string{}, l.baseEnv...)
	env = append(env, l.extraEnv...)
	env = append(env,
		"PYTHONUNBUFFERED=1",
		"PYTHONDONTWRITEBYTECODE=1",
		"AIDEN_EXECUTION_ID="+req.ID,
		"AIDEN_WORKDIR="+req.Workdir,
	)

	keys := make([]string, 0, len(req.Env))
	for k := range req.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+req.Env[k])
	}
	return env
}

func validateRequest(req Request) error {
	if req.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %v", ErrInvalidRequest, req.Timeout)
	}
	if req.Workdir == "" {
		return fmt.Errorf("%w: working directory is required", ErrInvalidRequest)
	}
	info, err := os.Stat(req.Workdir)
	if err != nil {
		return fmt.Errorf("%w: working directory: %v", ErrInvalidRequest, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: working directory %s is not a directory", ErrInvalidRequest, req.Workdir)
	}
	return nil
}
