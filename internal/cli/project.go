package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/heimdex/clipforge/internal/timeline"
)

func newProjectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Create, list and inspect projects",
	}
	cmd.AddCommand(newProjectNewCommand(rootOpts))
	cmd.AddCommand(newProjectListCommand(rootOpts))
	cmd.AddCommand(newProjectShowCommand(rootOpts))
	cmd.AddCommand(newProjectDeleteCommand(rootOpts))
	return cmd
}

type projectSummary struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Tracks   int     `json:"tracks"`
	Clips    int     `json:"clips"`
	Duration float64 `json:"duration"`
}

func summarize(p timeline.Project) projectSummary {
	s := projectSummary{ID: p.ID.String(), Name: p.Name}
	if seq := p.Current(); seq != nil {
		s.Tracks = len(seq.Tracks)
		s.Clips = len(seq.Clips)
		s.Duration = seq.Duration()
	}
	return s
}

func newProjectNewCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "new <name>",
		Short: "Create an empty project with default tracks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			p := timeline.NewProject(args[0], timeNow())
			if err := a.repo.SaveProject(cmd.Context(), p); err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), summarize(p))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created project %q (%s)\n", p.Name, p.ID)
			return nil
		},
	}
}

func newProjectListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects, most recently edited first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			projects, err := a.repo.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), projects)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tUPDATED")
			for _, p := range projects {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Name, humanize.Time(p.UpdatedAt))
			}
			return tw.Flush()
		},
	}
}

func newProjectShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show a project's tracks and clips",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			p, err := a.loadProject(cmd.Context(), id)
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), p)
			}

			out := cmd.OutOrStdout()
			s := summarize(*p)
			fmt.Fprintf(out, "%s (%s)\n", s.Name, s.ID)
			fmt.Fprintf(out, "%d tracks, %d clips, %gs\n", s.Tracks, s.Clips, s.Duration)
			seq := p.Current()
			if seq == nil {
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, tr := range seq.Tracks {
				fmt.Fprintf(tw, "%s\t%s\n", tr.Label(), tr.DisplayName)
				for _, c := range seq.ClipsOnTrack(tr.ID) {
					fmt.Fprintf(tw, "  %s\t%s\t%gs-%gs\t%s\n", c.ID.String()[:8], c.Name, c.StartTime, c.End(), c.PrimaryFilter.DisplayName())
				}
			}
			return tw.Flush()
		},
	}
}

func newProjectDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.loadProject(cmd.Context(), args[0]); err != nil {
				return err
			}
			if err := a.repo.DeleteProject(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted project %s\n", args[0])
			return nil
		},
	}
}
