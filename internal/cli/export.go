package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	OutputPath string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all entities as a structured snapshot",
		Long: `Export every project, recording, and analysis as one document.

Audio payloads are omitted; recording metadata still carries the original
file size and MIME type. With --format text the snapshot is written as
JSON. Use -o to write to a file instead of stdout.`,
		Example: `  callprep export --db ./callprep.db -o snapshot.json
  callprep export --format yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.OutputPath, "output", "o", "", "write snapshot to file instead of stdout")
	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	snapshot, err := st.ExportAll(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to export", err)
	}

	var data []byte
	if opts.Format == "yaml" {
		data, err = yaml.Marshal(snapshot)
	} else {
		data, err = json.MarshalIndent(snapshot, "", "  ")
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode snapshot", err)
	}

	if opts.OutputPath != "" {
		if err := os.WriteFile(opts.OutputPath, data, 0o644); err != nil {
			return WrapExitError(ExitCommandError, "failed to write snapshot", err)
		}
		out := formatter(cmd, opts.RootOptions)
		out.VerboseLog("wrote %d bytes to %s", len(data), opts.OutputPath)
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d projects, %d recordings, %d analyses to %s\n",
			len(snapshot.Projects), len(snapshot.Recordings), len(snapshot.Analyses), opts.OutputPath)
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
