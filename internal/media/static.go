package media

import (
	"context"
	"sync"
	"time"
)

// StaticProber answers probes from fixed tables. It backs tests and
// environments without ffprobe.
type StaticProber struct {
	mu     sync.Mutex
	infos  map[string]Info
	errs   map[string]error
	delay  time.Duration
	probes map[string]int
}

func NewStaticProber() *StaticProber {
	return &StaticProber{
		infos:  make(map[string]Info),
		errs:   make(map[string]error),
		probes: make(map[string]int),
	}
}

// Set registers the info returned for ref.
func (s *StaticProber) Set(ref string, info Info) *StaticProber {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.infos[ref] = info
	delete(s.errs, ref)
	return s
}

// Fail makes probes of ref return err.
func (s *StaticProber) Fail(ref string, err error) *StaticProber {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[ref] = err
	return s
}

// SetDelay makes every probe wait d or until its context is done.
func (s *StaticProber) SetDelay(d time.Duration) *StaticProber {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
	return s
}

// Calls returns how many times ref was probed.
func (s *StaticProber) Calls(ref string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.probes[ref]
}

func (s *StaticProber) Probe(ctx context.Context, ref string) (*Info, error) {
	s.mu.Lock()
	s.probes[ref]++
	delay := s.delay
	info, ok := s.infos[ref]
	err := s.errs[ref]
	s.mu.Unlock()

	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, &ProbeError{Ref: ref, Err: ctx.Err()}
		case <-t.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, &ProbeError{Ref: ref, Err: err}
	}
	if ref == "" {
		return nil, &ProbeError{Ref: ref, Err: ErrNoMediaReference}
	}
	if err != nil {
		return nil, &ProbeError{Ref: ref, Err: err}
	}
	if !ok {
		return nil, &ProbeError{Ref: ref, Err: ErrNotFound}
	}
	return &info, nil
}
