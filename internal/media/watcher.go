package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/heimdex/clipforge/internal/logging"
)

// Invalidator drops cached metadata for a media reference.
type Invalidator interface {
	Invalidate(ref string)
}

// Watcher invalidates cached probes when files in the media directory
// change on disk.
type Watcher struct {
	dir    string
	fsw    *fsnotify.Watcher
	cache  Invalidator
	logger *slog.Logger

	onChange func(ref string, op fsnotify.Op)
}

func NewWatcher(dir string, cache Invalidator, logger *slog.Logger) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", logging.SanitizePath(dir), err)
	}
	return &Watcher{
		dir:    dir,
		fsw:    fsw,
		cache:  cache,
		logger: logging.WithComponent(logger, "media_watcher"),
	}, nil
}

// OnChange registers a callback run after each invalidation. It must be
// set before Run.
func (w *Watcher) OnChange(fn func(ref string, op fsnotify.Op)) {
	w.onChange = fn
}

// Run processes events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	rel, err := filepath.Rel(w.dir, ev.Name)
	if err != nil {
		return
	}
	if !IsMediaFile(rel) {
		return
	}
	w.cache.Invalidate(rel)
	w.logger.Debug("media changed", "ref", rel, "op", ev.Op.String())
	if w.onChange != nil {
		w.onChange(rel, ev.Op)
	}
}

func (w *Watcher) Close() error {
	return w.fsw.Close()
}
