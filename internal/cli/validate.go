package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/aiden/internal/config"
)

// ValidationResult summarizes a valid config.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	ID       string   `json:"id,omitempty"`
	Datasets []string `json:"datasets"`
	Inputs   []string `json:"inputs"`
	Output   string   `json:"output,omitempty"`
	Provider string   `json:"provider"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config>",
		Short: "Validate a config file without building",
		Long: `Load a YAML or HCL config, apply environment overrides and defaults,
and report every problem found. Nothing is executed and no environment
or journal is created.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	cfg, err := config.Load(path)
	if err != nil {
		return outputValidateError(formatter, err)
	}

	result := ValidationResult{
		Valid:    true,
		ID:       cfg.ID,
		Datasets: make([]string, 0, len(cfg.Datasets)),
		Inputs:   append([]string{}, cfg.Inputs...),
		Output:   cfg.Output,
		Provider: cfg.Spec().Provider,
	}
	for _, d := range cfg.Datasets {
		result.Datasets = append(result.Datasets, d.Name)
	}
	formatter.VerboseLog("Loaded %s: %d dataset(s)", path, len(result.Datasets))

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success(fmt.Sprintf("✓ %s is valid (inputs: %s, output: %s)",
		path, strings.Join(result.Inputs, ", "), orDash(result.Output)))
}

func outputValidateError(f *OutputFormatter, err error) error {
	var ve *config.ValidationError
	switch {
	case errors.Is(err, fs.ErrNotExist):
		_ = f.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load config", err)
	case !errors.As(err, &ve):
		_ = f.Error(ErrCodeInvalidConfig, err.Error(), nil)
		return WrapExitError(ExitFailure, "invalid config", err)
	}

	if f.Format == "json" {
		_ = f.Error(ErrCodeInvalidConfig, fmt.Sprintf("%d problem(s) in %s", len(ve.Problems), ve.Path), ve.Problems)
	} else {
		fmt.Fprintf(f.Writer, "✗ %s\n", ve.Path)
		for _, p := range ve.Problems {
			fmt.Fprintf(f.Writer, "  - %s\n", p)
		}
	}
	return WrapExitError(ExitFailure, "invalid config", err)
}
