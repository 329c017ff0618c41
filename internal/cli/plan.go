package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/heimdex/clipforge/internal/composition"
	"github.com/heimdex/clipforge/internal/export"
)

// resolveProject resolves a stored project without opening an editing
// session.
func resolveProject(ctx context.Context, a *app, id string) (*composition.Plan, string, error) {
	p, err := a.loadProject(ctx, id)
	if err != nil {
		return nil, "", err
	}
	seq := p.Current()
	if seq == nil {
		return nil, "", fmt.Errorf("project %s has no sequence", p.ID)
	}
	plan, err := a.resolver.Resolve(ctx, *seq)
	if err != nil {
		return nil, "", err
	}
	return plan, p.Name, nil
}

func newPlanCommand(rootOpts *RootOptions) *cobra.Command {
	var projectID string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Resolve a project's composition",
		Long: `Probe every clip's media and print the resolved composition: segments per
track, skipped clips with the reason, render size and the effect spans.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			plan, _, err := resolveProject(cmd.Context(), a, projectID)
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), plan)
			}
			return printPlan(cmd, plan)
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project id (defaults to the most recent)")
	return cmd
}

func printPlan(cmd *cobra.Command, plan *composition.Plan) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "duration %gs at %d fps, render %dx%d, effects %v\n",
		plan.Duration, plan.FrameRate, plan.RenderSize.Width, plan.RenderSize.Height, plan.EffectsEnabled)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	channels := append(append([]composition.Channel{}, plan.Video...), plan.Audio...)
	for _, ch := range channels {
		for _, seg := range ch.Segments {
			tl := seg.Timeline()
			fmt.Fprintf(tw, "%s\t%s\t%gs-%gs\tsrc %gs\n", ch.TrackName, seg.ClipName, tl.Start, tl.End(), seg.Source.Start)
		}
	}
	for _, o := range plan.Overlays {
		fmt.Fprintf(tw, "%s\t%s\t%gs-%gs\t\n", o.Kind.Label(), o.Name, o.Timeline.Start, o.Timeline.End())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, sk := range plan.Skipped {
		fmt.Fprintf(out, "skipped %s: %s\n", sk.ClipName, sk.Reason)
	}
	for _, span := range plan.EffectSpans() {
		if span.Filter.IsSet() {
			fmt.Fprintf(out, "effect %s %gs-%gs\n", span.Filter.DisplayName(), span.Start, span.End)
		}
	}
	return nil
}

type exportOptions struct {
	*RootOptions
	ProjectID string
	Title     string
	FrameRate float64
	OutDir    string
}

func newExportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a project's composition",
	}
	cmd.AddCommand(newExportEDLCommand(rootOpts))
	return cmd
}

func newExportEDLCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &exportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "edl",
		Short: "Write a CMX3600 edit decision list",
		Long: `Resolve the project and write <title>.edl to the exports directory (or --out).

Examples:
  clipforge export edl
  clipforge export edl --title "Rough Cut" --fps 29.97 --out ./edl`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts.RootOptions, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			plan, name, err := resolveProject(ctx, a, opts.ProjectID)
			if err != nil {
				return err
			}

			outDir := opts.OutDir
			if outDir == "" {
				outDir = a.cfg.ExportsDir()
			}
			if outDir, err = filepath.Abs(outDir); err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			title := opts.Title
			if title == "" {
				title = name
			}

			res, err := a.exporter.Export(ctx, plan, export.Options{
				Title:     title,
				FrameRate: opts.FrameRate,
				MediaDir:  a.cfg.MediaDir(),
				OutputDir: outDir,
			})
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d events to %s\n", res.EventCount, res.OutputPath)
			for _, skipped := range res.SkippedClips {
				fmt.Fprintf(cmd.OutOrStdout(), "skipped %s\n", skipped)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.ProjectID, "project", "", "project id (defaults to the most recent)")
	cmd.Flags().StringVar(&opts.Title, "title", "", "EDL title and file name (defaults to the project name)")
	cmd.Flags().Float64Var(&opts.FrameRate, "fps", 0, "timecode frame rate (defaults to the sequence rate)")
	cmd.Flags().StringVar(&opts.OutDir, "out", "", "output directory (defaults to the exports directory)")
	return cmd
}
