package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// WipeOptions holds flags for the wipe command.
type WipeOptions struct {
	*RootOptions
	Yes bool
}

// NewWipeCommand creates the wipe command.
func NewWipeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WipeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete every entity in the database",
		Long: `Delete all projects, recordings, and analyses in a single transaction.

Refuses to run without --yes. The database file and its schema are kept.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWipe(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Yes, "yes", false, "confirm deletion of all data")
	return cmd
}

func runWipe(opts *WipeOptions, cmd *cobra.Command) error {
	if !opts.Yes {
		return NewExitError(ExitCommandError, "refusing to wipe without --yes")
	}

	ctx := context.Background()

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Wipe(ctx); err != nil {
		return WrapExitError(ExitCommandError, "failed to wipe database", err)
	}

	out := formatter(cmd, opts.RootOptions)
	if opts.Format != "text" {
		return out.Success(map[string]string{"status": "wiped"})
	}
	fmt.Fprintln(cmd.OutOrStdout(), "All data deleted.")
	return nil
}
