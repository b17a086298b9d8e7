package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/aiden/internal/executor"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	Workdir     string
	Timeout     time.Duration
	Interpreter []string
	Env         []string // KEY=VALUE pairs
}

// ExecResult is the JSON payload of the exec command.
type ExecResult struct {
	ExecutionID string           `json:"execution_id"`
	Condition   string           `json:"condition"`
	ExitCode    int              `json:"exit_code"`
	Error       string           `json:"error,omitempty"`
	Output      []executor.Chunk `json:"output"`
	DurationMS  int64            `json:"duration_ms"`
}

// interpreters maps script extensions to the default interpreter.
var interpreters = map[string][]string{
	".py": {"python3"},
	".sh": {"sh"},
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <script>",
		Short: "Run one script in the sandbox",
		Long: `Run a script once through the local executor, with the same
isolation, timeout and error classification a build uses.

The interpreter is chosen from the script extension (.py: python3,
.sh: sh) unless --interpreter is given.

Exit codes:
  0 - Script completed without error
  1 - Script raised or timed out
  2 - Command error (unreadable script, unusable workdir, etc.)

Examples:
  aiden exec ./clean.py --workdir ./work
  aiden exec ./probe.sh --timeout 10s --env LIMIT=5 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Workdir, "workdir", ".", "working directory for the script")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 5*time.Minute, "wall-clock budget")
	cmd.Flags().StringSliceVar(&opts.Interpreter, "interpreter", nil, "interpreter argv (script path is appended)")
	cmd.Flags().StringArrayVar(&opts.Env, "env", nil, "extra environment variable KEY=VALUE (repeatable)")

	return cmd
}

func runExec(opts *ExecOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	code, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read script", err)
	}
	workdir, err := filepath.Abs(opts.Workdir)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid workdir", err)
	}
	env, err := parseEnv(opts.Env)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --env", err)
	}

	suffix := strings.ToLower(filepath.Ext(path))
	argv := opts.Interpreter
	if len(argv) == 0 {
		argv = interpreters[suffix]
	}
	if len(argv) == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("no interpreter for %q: pass --interpreter", suffix))
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	local := executor.NewLocal(
		executor.WithInterpreter(suffix, argv...),
		executor.WithLogger(logger),
	)
	res, err := local.Execute(ctx, executor.Request{
		ID:      uuid.NewString(),
		Code:    string(code),
		Workdir: workdir,
		Timeout: opts.Timeout,
		Env:     env,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "execution failed", err)
	}

	out := ExecResult{
		ExecutionID: res.ExecutionID,
		Condition:   string(res.Condition()),
		ExitCode:    res.ExitCode,
		Error:       res.ErrorMessage(),
		Output:      res.Output,
		DurationMS:  res.Duration.Milliseconds(),
	}
	if out.Output == nil {
		out.Output = []executor.Chunk{}
	}

	if res.Succeeded() {
		if opts.Format == "json" {
			return formatter.Success(out)
		}
		fmt.Fprint(cmd.OutOrStdout(), res.Text())
		formatter.VerboseLog("%s in %v", out.Condition, res.Duration)
		return nil
	}

	if opts.Format == "json" {
		_ = formatter.ErrorWithData(ErrCodeExecFailed, out.Error, nil, out)
	} else {
		fmt.Fprint(cmd.OutOrStdout(), res.Text())
		_ = formatter.Error(ErrCodeExecFailed, fmt.Sprintf("%s: %s", out.Condition, out.Error), nil)
	}
	return WrapExitError(ExitFailure, "script "+out.Condition, res.Err)
}

func parseEnv(pairs []string) (map[string]string, error) {
	env := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected KEY=VALUE, got %q", p)
		}
		env[k] = v
	}
	return env, nil
}
