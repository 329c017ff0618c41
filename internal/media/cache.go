package media

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/heimdex/clipforge/internal/logging"
)

const (
	DefaultCacheSize = 512
	DefaultCacheTTL  = 10 * time.Minute
)

// CachedProber memoises successful probes in an expiring LRU and collapses
// concurrent probes of the same reference into one call. Failures are not
// cached.
//
// The shared call runs detached from every caller's context, so a caller
// that gives up does not fail the others waiting on the same reference.
// The wrapped prober is expected to bound its own run time.
type CachedProber struct {
	next   Prober
	cache  *expirable.LRU[string, Info]
	group  singleflight.Group
	logger *slog.Logger

	mu    sync.Mutex
	epoch uint64
	gens  map[string]uint64

	// OnProbe, if set, is called once per probe that reached next.
	// Cancellations are not reported.
	OnProbe func(ref string, err error)
}

func NewCachedProber(next Prober, size int, ttl time.Duration, logger *slog.Logger) *CachedProber {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedProber{
		next:   next,
		cache:  expirable.NewLRU[string, Info](size, nil, ttl),
		gens:   make(map[string]uint64),
		logger: logging.WithComponent(logger, "probe_cache"),
	}
}

type generation struct{ epoch, ref uint64 }

func (c *CachedProber) generation(ref string) generation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return generation{c.epoch, c.gens[ref]}
}

func (c *CachedProber) Probe(ctx context.Context, ref string) (*Info, error) {
	if info, ok := c.cache.Get(ref); ok {
		return &info, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(ref, func() (any, error) {
		return c.probe(detached, ref)
	})

	select {
	case <-ctx.Done():
		return nil, &ProbeError{Ref: ref, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug("shared in-flight probe", "ref", ref)
		}
		info := res.Val.(Info)
		return &info, nil
	}
}

func (c *CachedProber) probe(ctx context.Context, ref string) (Info, error) {
	started := c.generation(ref)
	info, err := c.next.Probe(ctx, ref)
	if c.OnProbe != nil && !errors.Is(err, context.Canceled) {
		c.OnProbe(ref, err)
	}
	if err != nil {
		return Info{}, err
	}

	c.mu.Lock()
	current := generation{c.epoch, c.gens[ref]}
	if current == started {
		c.cache.Add(ref, *info)
	}
	c.mu.Unlock()
	if current != started {
		c.logger.Debug("discarded probe of changed media", "ref", ref)
	}
	return *info, nil
}

// Invalidate drops the cached entry for ref. A probe of ref already in
// flight still answers its callers but is not cached, and later callers
// start a fresh probe.
func (c *CachedProber) Invalidate(ref string) {
	c.mu.Lock()
	c.gens[ref]++
	removed := c.cache.Remove(ref)
	c.mu.Unlock()
	c.group.Forget(ref)
	if removed {
		c.logger.Debug("invalidated probe", "ref", ref)
	}
}

func (c *CachedProber) Purge() {
	c.mu.Lock()
	c.epoch++
	c.cache.Purge()
	c.mu.Unlock()
}

func (c *CachedProber) Len() int {
	return c.cache.Len()
}
