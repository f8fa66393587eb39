package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rmoran/callprep/internal/model"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate counts for the database",
		Long: `Show aggregate statistics: project counts by status, linked recording
and analysis totals, and total recorded duration in seconds.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(rootOpts, cmd)
		},
	}
	return cmd
}

func runStats(opts *RootOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.ProjectStats(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to compute stats", err)
	}

	out := formatter(cmd, opts)
	if opts.Format != "text" {
		return out.Success(stats)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Projects:   %d\n", stats.TotalProjects)
	for _, status := range model.AllProjectStatuses {
		fmt.Fprintf(w, "  %-12s %d\n", status, stats.ProjectsByStatus[status])
	}
	fmt.Fprintf(w, "Recordings: %d\n", stats.TotalRecordings)
	fmt.Fprintf(w, "Analyses:   %d\n", stats.TotalAnalyses)
	fmt.Fprintf(w, "Duration:   %.1fs\n", stats.TotalRecordingDuration)
	return nil
}
