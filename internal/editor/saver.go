package editor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/heimdex/clipforge/internal/logging"
	"github.com/heimdex/clipforge/internal/metrics"
	"github.com/heimdex/clipforge/internal/timeline"
)

const DefaultSaveDelay = 400 * time.Millisecond

// ProjectSaver persists project documents.
type ProjectSaver interface {
	SaveProject(ctx context.Context, p timeline.Project) error
}

// Saver debounces project persistence: only the latest snapshot scheduled
// within the delay window is written.
type Saver struct {
	store   ProjectSaver
	delay   time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics

	// saveMu orders writes so an older snapshot never lands after a newer one.
	saveMu sync.Mutex

	mu      sync.Mutex
	timer   *time.Timer
	pending *timeline.Project
}

func NewSaver(store ProjectSaver, delay time.Duration, logger *slog.Logger, m *metrics.Metrics) *Saver {
	if delay <= 0 {
		delay = DefaultSaveDelay
	}
	return &Saver{
		store:   store,
		delay:   delay,
		logger:  logging.WithComponent(logger, "saver"),
		metrics: m,
	}
}

// Schedule replaces the pending snapshot and restarts the delay.
func (s *Saver) Schedule(p timeline.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = &p
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = s.Flush(ctx)
	})
}

// Pending reports whether a snapshot is waiting to be written.
func (s *Saver) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Flush writes the pending snapshot now, if there is one.
func (s *Saver) Flush(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	p := s.pending
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	if p == nil {
		return nil
	}
	err := s.store.SaveProject(ctx, *p)
	s.metrics.Saved(err)
	if err != nil {
		s.mu.Lock()
		if s.pending == nil {
			s.pending = p
		}
		s.mu.Unlock()
		s.logger.Error("project save failed", "project_id", p.ID.String(), "error", err)
		return err
	}
	s.logger.Debug("project saved", "project_id", p.ID.String())
	return nil
}
