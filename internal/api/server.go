package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/heimdex/clipforge/internal/editor"
	"github.com/heimdex/clipforge/internal/export"
	"github.com/heimdex/clipforge/internal/logging"
	"github.com/heimdex/clipforge/internal/media"
	"github.com/heimdex/clipforge/internal/metrics"
	"github.com/heimdex/clipforge/internal/playback"
	"github.com/heimdex/clipforge/internal/store"
	"github.com/heimdex/clipforge/internal/templates"
)

// Server is the loopback HTTP front end for one editing session.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	logger     *slog.Logger
}

type ServerConfig struct {
	Port       int
	Session    *editor.Session
	Repository store.Repository
	Library    *media.Library
	Playback   *playback.Server
	Exporter   export.Backend
	Templates  *templates.Catalog
	ExportsDir string
	MediaDir   string
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
	StartTime  time.Time
	Version    string
}

const shutdownGrace = 10 * time.Second

func NewServer(cfg ServerConfig) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              net.JoinHostPort("127.0.0.1", strconv.Itoa(cfg.Port)),
			Handler:           NewRouter(cfg),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			// Media responses stream for as long as the player reads.
			IdleTimeout: 60 * time.Second,
		},
		logger: logging.WithComponent(cfg.Logger, "api"),
	}
}

// Listen binds the listening socket. A zero port picks a free one, which
// Addr reports afterwards.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	s.listener = ln
	s.httpServer.Addr = ln.Addr().String()
	return nil
}

// Serve handles requests until ctx is cancelled, then drains in-flight
// requests for up to shutdownGrace.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("serving", "addr", s.httpServer.Addr)
		errc <- s.httpServer.Serve(s.listener)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
