package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/aiden/internal/artifact"
	"github.com/roach88/aiden/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database         string
	TransformationID string
	Limit            int
	Code             bool // print each iteration's code
}

// BuildDetail is one build with its iterations.
type BuildDetail struct {
	Build      store.BuildRow       `json:"build"`
	Iterations []store.IterationRow `json:"iterations"`
	FinalCode  string               `json:"final_code,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [build-id]",
		Short: "Show journaled builds",
		Long: `List journaled builds newest first, or show one build's iterations.

Examples:
  aiden history --db ./aiden.db
  aiden history --db ./aiden.db --transformation emails-clean --limit 5
  aiden history --db ./aiden.db 0191c6a2-7f3e-7c1a-9f5e-1b2c3d4e5f60 --code`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runHistoryBuild(opts, args[0], cmd)
			}
			return runHistoryList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.TransformationID, "transformation", "", "only builds of this transformation")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum builds to list (0 for all)")
	cmd.Flags().BoolVar(&opts.Code, "code", false, "print the code of every iteration")

	return cmd
}

func runHistoryList(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer st.Close()

	builds, err := st.ListBuilds(commandContext(cmd), opts.TransformationID, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list builds", err)
	}

	if opts.Format == "json" {
		return formatter.Success(builds)
	}
	if len(builds) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No builds found.")
		return nil
	}
	writeBuildTable(cmd.OutOrStdout(), builds)
	return nil
}

func runHistoryBuild(opts *HistoryOptions, buildID string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	ctx := commandContext(cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer st.Close()

	b, err := st.ReadBuild(ctx, buildID)
	if errors.Is(err, store.ErrBuildNotFound) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("build %s not found", buildID), nil)
		return WrapExitError(ExitCommandError, "build not found", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read build", err)
	}
	iterations, err := st.ReadIterations(ctx, buildID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read iterations", err)
	}

	detail := BuildDetail{Build: b, Iterations: iterations}
	if b.FinalArtifactID != "" {
		if detail.FinalCode, err = st.ReadArtifact(ctx, b.FinalArtifactID); err != nil {
			return WrapExitError(ExitCommandError, "failed to read final artifact", err)
		}
	}

	if opts.Format == "json" {
		return formatter.Success(detail)
	}

	w := cmd.OutOrStdout()
	writeBuildTable(w, []store.BuildRow{b})
	if b.Error != "" {
		fmt.Fprintf(w, "\nError: %s\n", b.Error)
	}
	fmt.Fprintln(w)
	for _, it := range iterations {
		mark := "✗"
		if it.Accepted {
			mark = "✓"
		}
		fmt.Fprintf(w, "%s iteration %d  %s  %s  %v\n",
			mark, it.Index+1, artifact.ShortID(it.ArtifactID), orDash(string(it.Condition)), it.Duration)
		if it.Reason != "" {
			fmt.Fprintf(w, "    %s\n", it.Reason)
		}
		if opts.Code {
			code, err := st.ReadArtifact(ctx, it.ArtifactID)
			if err == nil {
				fmt.Fprintln(w, artifact.FormatSnippet(code))
			}
		}
	}
	return nil
}

func writeBuildTable(w io.Writer, builds []store.BuildRow) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BUILD\tTRANSFORMATION\tSTATE\tSTARTED\tARTIFACT")
	for _, b := range builds {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			b.ID, orDash(b.TransformationID), b.State,
			b.StartedAt.UTC().Format(time.RFC3339), orDash(artifact.ShortID(b.FinalArtifactID)))
	}
	tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
