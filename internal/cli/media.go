package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/heimdex/clipforge/internal/store"
)

func newMediaCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "media",
		Short: "Manage the media library",
	}
	cmd.AddCommand(newMediaImportCommand(rootOpts))
	cmd.AddCommand(newMediaListCommand(rootOpts))
	return cmd
}

func newMediaImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <path>...",
		Short: "Copy video files into the library",
		Long: `Copy video files into the media directory and record their metadata.
A file already in the library (same content fingerprint) is not copied again.

Examples:
  clipforge media import ~/Movies/harbor.mov
  clipforge media import *.mp4 --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			imported := make([]*store.Asset, 0, len(args))
			for _, path := range args {
				asset, err := a.library.Import(cmd.Context(), path)
				if err != nil {
					return fmt.Errorf("import %s: %w", path, err)
				}
				imported = append(imported, asset)
			}
			if rootOpts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), imported)
			}
			for _, asset := range imported {
				fmt.Fprintf(cmd.OutOrStdout(), "imported %s as %s (%s, %gs)\n",
					asset.DisplayName, asset.ID, humanize.Bytes(uint64(max(asset.Size, 0))), asset.DurationSeconds)
			}
			return nil
		},
	}
}

func newMediaListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List imported media",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			assets, err := a.repo.ListAssets(cmd.Context())
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), assets)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tDURATION\tSIZE\tRESOLUTION\tIMPORTED")
			for _, asset := range assets {
				fmt.Fprintf(tw, "%s\t%s\t%gs\t%s\t%dx%d\t%s\n",
					asset.ID, asset.DisplayName, asset.DurationSeconds,
					humanize.Bytes(uint64(max(asset.Size, 0))),
					asset.Width, asset.Height, humanize.Time(asset.CreatedAt))
			}
			return tw.Flush()
		},
	}
}
