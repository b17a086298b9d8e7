package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/aiden/internal/executor"
	"github.com/roach88/aiden/internal/tools"
)

// NewToolsCommand creates the tools command.
func NewToolsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools <config>",
		Short: "Serve the agent tools over MCP on stdio",
		Long: `Serve execute_code, list_datasets and describe_dataset as MCP tools
on stdin/stdout, over the datasets and environment declared in a config
file. Logs go to stderr.

Example:
  aiden tools ./emails.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTools(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runTools(opts *RootOptions, path string, cmd *cobra.Command) error {
	// stdout carries the protocol; everything else goes to stderr.
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.ErrOrStderr(), Verbose: opts.Verbose}
	logger := newLogger(opts, cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(formatter, path)
	if err != nil {
		return err
	}
	ws, err := openWorkspace(ctx, cfg, logger, false)
	if err != nil {
		return err
	}

	exec := executor.ForEnvironment(ws.env, append(cfg.ExecutorOptions(), executor.WithLogger(logger))...)
	tb := tools.New(ws.reg, exec,
		tools.WithWorkdir(ws.env.Workdir),
		tools.WithTimeout(cfg.IterationTimeout()),
		tools.WithLogger(logger),
	)

	logger.Info("serving tools", "config", path, "workdir", ws.env.Workdir)
	if err := tb.Serve(ctx, Version); err != nil && ctx.Err() == nil {
		return WrapExitError(ExitFailure, "tool server failed", err)
	}
	return nil
}
