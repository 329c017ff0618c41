package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/heimdex/clipforge/internal/api"
	"github.com/heimdex/clipforge/internal/config"
	"github.com/heimdex/clipforge/internal/media"
	"github.com/heimdex/clipforge/internal/playback"
)

type serveOptions struct {
	*RootOptions
	Port      int
	ProjectID string
}

func newServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &serveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local editing API",
		Long: `Open the most recent project (or --project) and serve the editing API on
127.0.0.1. Requests need the bearer token printed at startup.

Examples:
  clipforge serve
  clipforge serve --port 9000 --project 6f1c...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "listen port (defaults to config)")
	cmd.Flags().StringVar(&opts.ProjectID, "project", "", "project id to open")
	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, opts *serveOptions) error {
	startTime := time.Now()
	a, err := openApp(opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	token, err := a.ensureAuthToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	session, err := a.openSession(ctx, opts.ProjectID, true)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := session.Close(closeCtx); err != nil {
			a.logger.Error("failed to save project on shutdown", "error", err)
		}
	}()

	port := opts.Port
	if port == 0 {
		port = a.cfg.Port()
	}
	server := api.NewServer(api.ServerConfig{
		Port:       port,
		Session:    session,
		Repository: a.repo,
		Library:    a.library,
		Playback:   playback.NewServer(a.cfg.MediaDir(), a.logger),
		Exporter:   a.exporter,
		Templates:  a.templates,
		ExportsDir: a.cfg.ExportsDir(),
		MediaDir:   a.cfg.MediaDir(),
		Metrics:    a.metrics,
		Logger:     a.logger,
		StartTime:  startTime,
		Version:    config.Version,
	})

	if err := server.Listen(); err != nil {
		return err
	}

	p := session.Snapshot()
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  ClipForge %s\n", config.Version)
	fmt.Fprintf(out, "  API URL:    http://%s\n", server.Addr())
	fmt.Fprintf(out, "  Auth Token: %s\n", token)
	fmt.Fprintf(out, "  Project:    %s (%s)\n", p.Name, p.ID)
	fmt.Fprintln(out)

	g, gctx := errgroup.WithContext(ctx)

	if a.cfg.WatchMedia() {
		watcher, err := media.NewWatcher(a.cfg.MediaDir(), a.cache, a.logger)
		if err != nil {
			a.logger.Warn("media watcher unavailable", "error", err)
		} else {
			defer watcher.Close()
			watcher.OnChange(func(string, fsnotify.Op) { session.Refresh() })
			g.Go(func() error {
				if err := watcher.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
		}
	}

	g.Go(func() error { return server.Serve(gctx) })

	err = g.Wait()
	a.logger.Info("shutdown complete")
	return err
}
