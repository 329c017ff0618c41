package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/heimdex/clipforge/internal/shell"
)

func newShellCommand(rootOpts *RootOptions) *cobra.Command {
	var projectID string

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Edit a project interactively",
		Long: `Open the most recent project (or --project) in an interactive editor with
history and tab completion. Edits are saved as you go.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			a, err := openApp(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			session, err := a.openSession(ctx, projectID, true)
			if err != nil {
				return err
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if err := session.Close(closeCtx); err != nil {
					a.logger.Error("failed to save project", "error", err)
				}
			}()

			sh := shell.New(shell.Config{
				Session:     session,
				Assets:      a.repo,
				Importer:    a.library,
				Exporter:    a.exporter,
				Templates:   a.templates,
				ExportsDir:  a.cfg.ExportsDir(),
				MediaDir:    a.cfg.MediaDir(),
				HistoryFile: filepath.Join(a.cfg.DataDir(), "shell_history"),
				Out:         cmd.OutOrStdout(),
				Logger:      a.logger,
			})
			return sh.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project id (defaults to the most recent)")
	return cmd
}
