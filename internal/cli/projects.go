package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rmoran/callprep/internal/model"
	"github.com/rmoran/callprep/internal/store"
)

// ProjectsOptions holds flags for the projects subcommands.
type ProjectsOptions struct {
	*RootOptions
	Status string
}

// ProjectSummary is one row of the projects listing.
type ProjectSummary struct {
	ID         string              `json:"id" yaml:"id"`
	Name       string              `json:"name" yaml:"name"`
	Status     model.ProjectStatus `json:"status" yaml:"status"`
	Recordings int                 `json:"recordings" yaml:"recordings"`
	UpdatedAt  time.Time           `json:"updated_at" yaml:"updated_at"`
}

// ProjectDetail is the full view of a single project.
type ProjectDetail struct {
	Project    model.Project          `json:"project" yaml:"project"`
	Recordings []model.Recording      `json:"recordings" yaml:"recordings"`
	Analyses   []model.AnalysisRecord `json:"analyses" yaml:"analyses"`
}

// NewProjectsCommand creates the projects command group.
func NewProjectsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProjectsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Inspect and manage projects",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List projects, most recently updated first",
		Example: `  callprep projects list --db ./callprep.db
  callprep projects list --status in_progress --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectsList(opts, cmd)
		},
	}
	listCmd.Flags().StringVar(&opts.Status, "status", "", "filter by status (draft|in_progress|completed|archived)")

	showCmd := &cobra.Command{
		Use:           "show <project-id>",
		Short:         "Show one project with its recordings and analyses",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectsShow(opts, cmd, args[0])
		},
	}

	deleteCmd := &cobra.Command{
		Use:           "delete <project-id>",
		Short:         "Delete a project and everything it owns",
		Long:          "Delete a project, cascading to its recordings and their analyses.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectsDelete(opts, cmd, args[0])
		},
	}

	cmd.AddCommand(listCmd, showCmd, deleteCmd)
	return cmd
}

func runProjectsList(opts *ProjectsOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	var projects []model.Project
	if opts.Status != "" {
		status := model.ProjectStatus(opts.Status)
		if !status.Valid() {
			return NewExitError(ExitCommandError, fmt.Sprintf("unknown status %q", opts.Status))
		}
		projects, err = st.ListProjectsByStatus(ctx, status)
	} else {
		projects, err = st.ListProjects(ctx)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list projects", err)
	}

	summaries := make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		summaries = append(summaries, ProjectSummary{
			ID:         p.ID,
			Name:       p.Name,
			Status:     p.Status,
			Recordings: len(p.RecordingIDs),
			UpdatedAt:  p.UpdatedAt,
		})
	}

	out := formatter(cmd, opts.RootOptions)
	if opts.Format != "text" {
		return out.Success(summaries)
	}

	w := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No projects.")
		return nil
	}
	for _, s := range summaries {
		fmt.Fprintf(w, "%s  %-12s  %2d recordings  %s  %s\n",
			s.UpdatedAt.Format(time.RFC3339), s.Status, s.Recordings, s.ID, s.Name)
	}
	return nil
}

func runProjectsShow(opts *ProjectsOptions, cmd *cobra.Command, id string) error {
	ctx := context.Background()

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	project, err := st.GetProject(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return NewExitError(ExitFailure, fmt.Sprintf("project not found: %s", id))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load project", err)
	}

	recordings, err := st.RecordingsByProject(ctx, id)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load recordings", err)
	}
	analyses, err := st.AnalysesByProject(ctx, id)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load analyses", err)
	}

	detail := ProjectDetail{Project: project, Recordings: recordings, Analyses: analyses}

	out := formatter(cmd, opts.RootOptions)
	if opts.Format != "text" {
		return out.Success(detail)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Project: %s (%s)\n", project.Name, project.ID)
	fmt.Fprintf(w, "Status:  %s\n", project.Status)
	fmt.Fprintf(w, "Updated: %s\n", project.UpdatedAt.Format(time.RFC3339))
	if project.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", project.Description)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "=== Recordings (%d) ===\n", len(recordings))
	if len(recordings) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, r := range recordings {
		transcribed := " "
		if r.Transcript != nil {
			transcribed = "T"
		}
		fmt.Fprintf(w, "  [%s] %7.1fs  %-18s  %s  %s\n",
			transcribed, r.Duration, r.MIMEType, r.ID, r.Name)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "=== Analyses (%d) ===\n", len(analyses))
	if len(analyses) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, a := range analyses {
		fmt.Fprintf(w, "  %5.1f%%  %s  recording=%s\n",
			a.Result.CoverageRate, a.ID, a.RecordingID)
	}
	return nil
}

func runProjectsDelete(opts *ProjectsOptions, cmd *cobra.Command, id string) error {
	ctx := context.Background()

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	deleted, err := st.DeleteProject(ctx, id)
	if store.IsCascadeError(err) {
		// The intent log replays the remainder on next open.
		return WrapExitError(ExitFailure, "cascade incomplete, will resume on next open", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to delete project", err)
	}
	if !deleted {
		return NewExitError(ExitFailure, fmt.Sprintf("project not found: %s", id))
	}

	out := formatter(cmd, opts.RootOptions)
	if opts.Format != "text" {
		return out.Success(map[string]string{"deleted": id})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", id)
	return nil
}
