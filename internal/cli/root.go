// Package cli wires the clipforge command tree.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/heimdex/clipforge/internal/config"
	"github.com/heimdex/clipforge/internal/media"
)

// RootOptions holds global flags and the hooks tests replace.
type RootOptions struct {
	Verbose bool
	Format  string

	// LoadConfig defaults to config.New.
	LoadConfig func() (config.Config, error)
	// Prober replaces the cached ffprobe prober when set.
	Prober media.Prober
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	if opts.LoadConfig == nil {
		opts.LoadConfig = func() (config.Config, error) { return config.New() }
	}

	cmd := &cobra.Command{
		Use:           "clipforge",
		Short:         "ClipForge non-linear video editing core",
		Long:          "Edit timelines, resolve compositions and export edit decision lists from the command line, an interactive shell or a local HTTP API.",
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log debug output to stderr")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newProjectCommand(opts))
	cmd.AddCommand(newMediaCommand(opts))
	cmd.AddCommand(newClipCommand(opts))
	cmd.AddCommand(newTemplatesCommand(opts))
	cmd.AddCommand(newPlanCommand(opts))
	cmd.AddCommand(newExportCommand(opts))
	cmd.AddCommand(newShellCommand(opts))

	return cmd
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
