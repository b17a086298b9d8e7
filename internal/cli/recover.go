package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/aiden/internal/store"
)

// RecoverOptions holds flags for the recover command.
type RecoverOptions struct {
	*RootOptions
	Database string
	DryRun   bool
}

// RecoverResult lists the builds found still building.
type RecoverResult struct {
	Builds    []string `json:"builds"`
	Abandoned bool     `json:"abandoned"`
}

// NewRecoverCommand creates the recover command.
func NewRecoverCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecoverOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Close builds interrupted by a crash",
		Long: `Find journaled builds that never reached a terminal state and mark
them as error. A build started by a process that died stays in the
building state until recovered; aiden build also recovers on startup.

Examples:
  aiden recover --db ./aiden.db
  aiden recover --db ./aiden.db --dry-run --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecover(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "list interrupted builds without changing them")

	return cmd
}

func runRecover(opts *RecoverOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	ctx := commandContext(cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer st.Close()

	result := RecoverResult{Builds: []string{}}
	if opts.DryRun {
		builds, err := st.FindIncompleteBuilds(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to find incomplete builds", err)
		}
		for _, b := range builds {
			result.Builds = append(result.Builds, b.ID)
		}
	} else {
		ids, err := st.AbandonIncomplete(ctx, time.Now())
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to abandon incomplete builds", err)
		}
		result.Builds = append(result.Builds, ids...)
		result.Abandoned = true
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	if len(result.Builds) == 0 {
		fmt.Fprintln(w, "No interrupted builds.")
		return nil
	}
	verb := "Found"
	if result.Abandoned {
		verb = "Abandoned"
	}
	fmt.Fprintf(w, "%s %d interrupted build(s):\n", verb, len(result.Builds))
	for _, id := range result.Builds {
		fmt.Fprintf(w, "  %s\n", id)
	}
	return nil
}
