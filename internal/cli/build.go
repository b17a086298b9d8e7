package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/aiden/internal/build"
	"github.com/roach88/aiden/internal/callback"
	"github.com/roach88/aiden/internal/check"
	"github.com/roach88/aiden/internal/description"
	"github.com/roach88/aiden/internal/executor"
	"github.com/roach88/aiden/internal/generate"
	"github.com/roach88/aiden/internal/store"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	Database   string // journal path; defaults to the config's store
	Candidates string // directory of scripted candidates
	Save       string // where to write the accepted code
	Markdown   bool   // render the description as markdown

	// Clock and IDs override the machine defaults (for testing).
	Clock build.Clock
	IDs   build.IDGenerator
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	return newBuildCommand(&BuildOptions{RootOptions: rootOpts})
}

func newBuildCommand(opts *BuildOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <config>",
		Short: "Build a transformation from a config file",
		Long: `Build a transformation described by a YAML or HCL config file.

Candidates come from the configured generator command, or from the files
in --candidates (one candidate per file, in name order). Each candidate is
executed in the configured environment; the first accepted one makes the
transformation ready. Every build is journaled to the SQLite database.

Exit codes:
  0 - Transformation is ready
  1 - Build ended in error, or the config is invalid
  2 - Command error (unreadable config, journal unavailable, etc.)

Examples:
  aiden build ./emails.yaml
  aiden build ./emails.hcl --candidates ./candidates --save ./clean.py
  aiden build ./emails.yaml --db ./aiden.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (default: config store)")
	cmd.Flags().StringVar(&opts.Candidates, "candidates", "", "directory of scripted candidates")
	cmd.Flags().StringVar(&opts.Save, "save", "", "write the accepted code to this path")
	cmd.Flags().BoolVar(&opts.Markdown, "markdown", false, "render the description as markdown")

	return cmd
}

func runBuild(opts *BuildOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(formatter, path)
	if err != nil {
		return err
	}
	ws, err := openWorkspace(ctx, cfg, logger, true)
	if err != nil {
		return err
	}

	gen, err := newGenerator(opts, ws, logger)
	if err != nil {
		return err
	}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = cfg.Resolve(cfg.Store)
	}
	formatter.VerboseLog("Journal: %s", dbPath)
	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing journal", "error", closeErr)
		}
	}()

	if abandoned, err := st.AbandonIncomplete(ctx, time.Now()); err != nil {
		logger.Warn("recovering journal failed", "error", err)
	} else if len(abandoned) > 0 {
		logger.Warn("abandoned interrupted builds", "builds", abandoned)
	}

	datasetEnv, err := executor.BindDatasets(ws.reg, cfg.Inputs, cfg.Output)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to bind datasets", err)
	}

	machineOpts := append(cfg.MachineOptions(),
		build.WithObserver(store.NewRecorder(st)),
		build.WithObserver(callback.LogObserver{Logger: logger}),
		build.WithLogger(logger),
		build.WithWorkdir(ws.env.Workdir),
		build.WithEnvironment(ws.env),
		build.WithDatasetEnv(datasetEnv),
	)
	if opts.Verbose {
		emitter := &callback.WriterEmitter{W: cmd.ErrOrStderr()}
		machineOpts = append(machineOpts, build.WithObserver(callback.NewChainOfThought(emitter)))
	}
	if cfg.Build.Checks {
		machineOpts = append(machineOpts, build.WithChecks(
			check.OutputExists{Registry: ws.reg},
			check.Schema{Registry: ws.reg, Logger: logger},
		))
	}
	if opts.Clock != nil {
		machineOpts = append(machineOpts, build.WithClock(opts.Clock))
	}
	if opts.IDs != nil {
		machineOpts = append(machineOpts, build.WithIDGenerator(opts.IDs))
	}

	exec := executor.ForEnvironment(ws.env, append(cfg.ExecutorOptions(), executor.WithLogger(logger))...)
	machine := build.NewMachine(gen, exec, machineOpts...)

	tf := build.NewTransformation(cfg.Spec())
	buildErr := machine.Build(ctx, tf)
	desc := description.FromTransformation(tf, ws.reg)

	if buildErr != nil {
		var payload any = renderDescription(opts, desc)
		if opts.Format == "json" {
			payload = desc
		}
		_ = formatter.ErrorWithData(ErrCodeBuildFailed, buildErr.Error(), tf.BuildID(), payload)
		if errors.Is(buildErr, context.Canceled) {
			return WrapExitError(ExitCommandError, "build interrupted", buildErr)
		}
		return WrapExitError(ExitFailure, "build failed", buildErr)
	}

	if err := ws.publish(ctx, logger); err != nil {
		return WrapExitError(ExitCommandError, "failed to publish output", err)
	}
	if opts.Save != "" {
		if err := tf.Save(opts.Save); err != nil {
			return WrapExitError(ExitCommandError, "failed to save transformation", err)
		}
		formatter.VerboseLog("Saved %s", opts.Save)
	}

	if opts.Format == "json" {
		return formatter.Success(desc)
	}
	return formatter.Success(renderDescription(opts, desc))
}

func newGenerator(opts *BuildOptions, ws *workspace, logger *slog.Logger) (build.Generator, error) {
	if opts.Candidates != "" {
		gen, err := generate.FromDir(opts.Candidates)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load candidates", err)
		}
		return gen, nil
	}

	gc := ws.cfg.Generator
	if gc == nil || len(gc.Command) == 0 {
		return nil, NewExitError(ExitCommandError, "no generator: pass --candidates or set generator.command in the config")
	}
	gen, err := generate.NewCommand(gc.Command,
		generate.WithProvider(ws.cfg.Spec().Provider),
		generate.WithTimeout(ws.cfg.GeneratorTimeout()),
		generate.WithRegistry(ws.reg),
		generate.WithLogger(logger),
	)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid generator", err)
	}
	return gen, nil
}

func renderDescription(opts *BuildOptions, d description.Description) string {
	if opts.Markdown {
		return d.AsMarkdown()
	}
	return d.AsText()
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
