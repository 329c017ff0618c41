package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/heimdex/clipforge/internal/templates"
)

func newTemplatesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the bundled title and sticker templates",
		Long: `List the templates that can be placed on the timeline from the shell
("template <id> [start]") or the API (POST /templates/{id}/clips).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := templates.LoadBundled()
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), catalog.Packs())
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "PACK\tID\tKIND\tNAME\tDURATION")
			for _, p := range catalog.Packs() {
				for _, t := range p.Templates {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%gs\n", p.Name, t.ID, t.Kind, t.DisplayName, t.Duration())
				}
			}
			return tw.Flush()
		},
	}
}
