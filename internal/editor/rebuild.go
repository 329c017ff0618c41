package editor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/heimdex/clipforge/internal/composition"
	"github.com/heimdex/clipforge/internal/logging"
	"github.com/heimdex/clipforge/internal/metrics"
	"github.com/heimdex/clipforge/internal/timeline"
)

// PlanResolver turns a sequence snapshot into a plan.
type PlanResolver interface {
	Resolve(ctx context.Context, seq timeline.Sequence) (*composition.Plan, error)
}

// Rebuilder runs resolves in the background. A new request cancels the one
// in flight, and a finished resolve is published only if the document has
// not moved on since it was requested.
type Rebuilder struct {
	resolver PlanResolver
	current  func() uint64
	logger   *slog.Logger
	metrics  *metrics.Metrics

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu       sync.Mutex
	cancel   context.CancelFunc
	latest   *composition.Plan
	onUpdate func(*composition.Plan)
}

// NewRebuilder creates a rebuilder. current reports the document version
// that results are checked against at publish time.
func NewRebuilder(resolver PlanResolver, current func() uint64, logger *slog.Logger, m *metrics.Metrics) *Rebuilder {
	ctx, stop := context.WithCancel(context.Background())
	return &Rebuilder{
		resolver: resolver,
		current:  current,
		logger:   logging.WithComponent(logger, "rebuilder"),
		metrics:  m,
		ctx:      ctx,
		stop:     stop,
	}
}

// OnPublish registers fn to be called with every published plan.
func (r *Rebuilder) OnPublish(fn func(*composition.Plan)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onUpdate = fn
}

// Request schedules a resolve of seq at version. It never blocks on the
// resolve itself.
func (r *Rebuilder) Request(seq timeline.Sequence, version uint64) {
	r.mu.Lock()
	if r.ctx.Err() != nil {
		r.mu.Unlock()
		return
	}
	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(r.ctx)
	r.cancel = cancel
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer cancel()
		r.run(ctx, seq, version)
	}()
}

func (r *Rebuilder) run(ctx context.Context, seq timeline.Sequence, version uint64) {
	start := time.Now()
	plan, err := r.resolver.Resolve(ctx, seq)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			r.metrics.ResolveFinished(metrics.ResolveCancelled, elapsed)
			return
		}
		r.metrics.ResolveFinished(metrics.ResolveFailed, elapsed)
		r.logger.Error("resolve failed", "version", version, "error", err)
		return
	}
	plan.Version = version

	r.mu.Lock()
	if r.current() != version {
		r.mu.Unlock()
		r.metrics.ResolveFinished(metrics.ResolveStale, elapsed)
		r.logger.Debug("discarding stale plan", "version", version)
		return
	}
	r.latest = plan
	fn := r.onUpdate
	r.mu.Unlock()

	r.metrics.ResolveFinished(metrics.ResolvePublished, elapsed)
	r.metrics.PlanPublished(plan.SegmentCount(), len(plan.Skipped))
	r.logger.Debug("plan published",
		"version", version,
		"segments", plan.SegmentCount(),
		"skipped", len(plan.Skipped),
		"duration_ms", elapsed.Milliseconds(),
	)
	if fn != nil {
		fn(plan)
	}
}

// Latest returns the newest published plan, or nil before the first one.
func (r *Rebuilder) Latest() *composition.Plan {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest
}

// Wait blocks until every requested resolve has finished.
func (r *Rebuilder) Wait() {
	r.wg.Wait()
}

// Stop cancels in-flight work, waits for it and refuses new requests.
func (r *Rebuilder) Stop() {
	r.mu.Lock()
	r.stop()
	r.mu.Unlock()
	r.wg.Wait()
}
