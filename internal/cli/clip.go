package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

type clipAddOptions struct {
	*RootOptions
	ProjectID string
	Start     float64
}

func newClipCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clip",
		Short: "Place media on a project's timeline",
	}
	cmd.AddCommand(newClipAddCommand(rootOpts))
	return cmd
}

func newClipAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &clipAddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <asset-id>",
		Short: "Add an imported asset to the first video track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts.RootOptions, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			asset, err := a.repo.GetAsset(ctx, args[0])
			if err != nil {
				return err
			}
			if asset == nil {
				return fmt.Errorf("asset %s not found", args[0])
			}
			session, err := a.openSession(ctx, opts.ProjectID, false)
			if err != nil {
				return err
			}
			clip, addErr := session.AddToTimeline(asset.TimelineAsset(), opts.Start)

			closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
			defer cancel()
			if err := session.Close(closeCtx); err != nil {
				return fmt.Errorf("save project: %w", err)
			}
			if addErr != nil {
				return addErr
			}

			if opts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), clip)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s) at %gs\n", clip.Name, clip.ID, clip.StartTime)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.ProjectID, "project", "", "project id (defaults to the most recent)")
	cmd.Flags().Float64Var(&opts.Start, "start", 0, "timeline start in seconds")
	return cmd
}
