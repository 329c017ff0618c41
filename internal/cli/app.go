package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/heimdex/clipforge/internal/composition"
	"github.com/heimdex/clipforge/internal/config"
	"github.com/heimdex/clipforge/internal/editor"
	"github.com/heimdex/clipforge/internal/export"
	"github.com/heimdex/clipforge/internal/logging"
	"github.com/heimdex/clipforge/internal/media"
	"github.com/heimdex/clipforge/internal/metrics"
	"github.com/heimdex/clipforge/internal/store"
	"github.com/heimdex/clipforge/internal/templates"
	"github.com/heimdex/clipforge/internal/timeline"
)

var timeNow = time.Now

var ErrNoProject = errors.New("no project found, create one with: clipforge project new <name>")

// app is the runtime every command builds on.
type app struct {
	cfg       config.Config
	logger    *slog.Logger
	db        *store.DB
	repo      *store.SQLiteRepository
	metrics   *metrics.Metrics
	cache     *media.CachedProber
	prober    media.Prober
	library   *media.Library
	resolver  *composition.Resolver
	exporter  *export.EDLBackend
	templates *templates.Catalog
}

func openApp(opts *RootOptions, logOut io.Writer) (*app, error) {
	cfg, err := opts.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	level := cfg.LogLevel()
	if opts.Verbose {
		level = "debug"
	}
	logger := logging.NewLoggerTo(logOut, level)

	database, err := store.Open(cfg.DBPath(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		db:      database,
		repo:    store.NewRepository(database.Conn()),
		metrics: metrics.New(),
	}

	base := opts.Prober
	if base == nil {
		ff := media.NewFFprobe(cfg.FFprobePath(), cfg.MediaDir(), cfg.ProbeTimeout(), logger)
		if !ff.Available() {
			logger.Warn("ffprobe not found, media probing will fail", "path", cfg.FFprobePath())
		}
		base = ff
	}
	a.cache = media.NewCachedProber(base, cfg.ProbeCacheSize(), cfg.ProbeCacheTTL(), logger)
	a.cache.OnProbe = func(_ string, err error) { a.metrics.Probed(err) }
	a.prober = a.cache

	a.library = media.NewLibrary(cfg.MediaDir(), a.prober, a.repo, logger)
	a.resolver = composition.NewResolver(a.prober, logger, cfg.ResolveConcurrency())
	a.exporter = export.NewEDLBackend(logger, a.metrics)
	if a.templates, err = templates.LoadBundled(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	return a, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// loadProject returns the project with id, or the most recently updated
// one when id is empty.
func (a *app) loadProject(ctx context.Context, id string) (*timeline.Project, error) {
	var (
		p   *timeline.Project
		err error
	)
	if id == "" {
		p, err = a.repo.LoadMostRecentProject(ctx)
	} else {
		p, err = a.repo.GetProject(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if p == nil {
		if id != "" {
			return nil, fmt.Errorf("project %s not found", id)
		}
		return nil, ErrNoProject
	}
	return p, nil
}

// openSession starts an editing session that saves back to the store.
// With create set, an empty store gets a fresh project.
func (a *app) openSession(ctx context.Context, id string, create bool) (*editor.Session, error) {
	p, err := a.loadProject(ctx, id)
	if errors.Is(err, ErrNoProject) && create {
		fresh := timeline.NewProject("Untitled", timeNow())
		if err := a.repo.SaveProject(ctx, fresh); err != nil {
			return nil, err
		}
		p, err = &fresh, nil
	}
	if err != nil {
		return nil, err
	}
	return editor.NewSession(*p, editor.Options{
		Resolver:  a.resolver,
		Store:     a.repo,
		SaveDelay: a.cfg.SaveDebounce(),
		Logger:    a.logger,
		Metrics:   a.metrics,
	}), nil
}

// ensureAuthToken returns the API token, generating one on first use.
func (a *app) ensureAuthToken(ctx context.Context) (string, error) {
	existing, err := a.repo.GetConfig(ctx, store.ConfigKeyAuthToken)
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := a.repo.SetConfig(ctx, store.ConfigKeyAuthToken, token); err != nil {
		return "", err
	}
	return token, nil
}
