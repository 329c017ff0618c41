// Package editor owns a live editing session: the project document, its
// undo history, drag gestures, and the background resolve and save work
// that follows every edit.
//
// All document access goes through the session lock. Each mutation bumps
// the version and takes a deep snapshot before the lock is released; the
// snapshot is then handed to the rebuilder and the saver, neither of which
// ever takes the session lock.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/heimdex/clipforge/internal/commands"
	"github.com/heimdex/clipforge/internal/composition"
	"github.com/heimdex/clipforge/internal/logging"
	"github.com/heimdex/clipforge/internal/metrics"
	"github.com/heimdex/clipforge/internal/templates"
	"github.com/heimdex/clipforge/internal/timeline"
)

var (
	ErrNoVideoTrack   = errors.New("sequence has no video track")
	ErrNoTrackOfKind  = errors.New("sequence has no track of that kind")
	ErrNoDrag         = errors.New("no drag in progress")
	ErrDragInProgress = errors.New("a drag is in progress")
	ErrNothingToUndo  = errors.New("nothing to undo")
	ErrNothingToRedo  = errors.New("nothing to redo")
	ErrNoResolver     = errors.New("session has no resolver")
)

// Options configures a Session. Resolver and Store are optional; without
// them edits are neither resolved nor persisted.
type Options struct {
	Resolver  PlanResolver
	Store     ProjectSaver
	SaveDelay time.Duration
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

// HistoryState describes the undo/redo stacks for menus and status lines.
type HistoryState struct {
	CanUndo  bool   `json:"canUndo"`
	CanRedo  bool   `json:"canRedo"`
	UndoName string `json:"undoName,omitempty"`
	RedoName string `json:"redoName,omitempty"`
}

type drag struct {
	clipID uuid.UUID
	origin float64
}

// Session is a single-writer editing session over one project.
type Session struct {
	mu        sync.Mutex
	project   timeline.Project
	history   *commands.History
	selection uuid.UUID
	drag      *drag
	now       func() time.Time

	version atomic.Uint64

	resolver  PlanResolver
	rebuilder *Rebuilder
	saver     *Saver
	base      *slog.Logger
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewSession opens p for editing and requests the first resolve.
func NewSession(p timeline.Project, opts Options) *Session {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &Session{
		project:  p.Clone(),
		history:  commands.NewHistory(now),
		now:      now,
		resolver: opts.Resolver,
		base:     logging.WithComponent(opts.Logger, "editor"),
		metrics:  opts.Metrics,
	}
	s.logger = logging.WithProjectID(s.base, p.ID.String())
	if opts.Resolver != nil {
		s.rebuilder = NewRebuilder(opts.Resolver, s.Version, opts.Logger, opts.Metrics)
	}
	if opts.Store != nil {
		s.saver = NewSaver(opts.Store, opts.SaveDelay, opts.Logger, opts.Metrics)
	}
	s.mu.Lock()
	v, snap := s.bumpLocked()
	s.mu.Unlock()
	s.requestRebuild(snap, v)
	return s
}

// Version increases with every change to the document.
func (s *Session) Version() uint64 {
	return s.version.Load()
}

// Snapshot returns a deep copy of the document.
func (s *Session) Snapshot() timeline.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project.Clone()
}

// Sequence returns a deep copy of the current sequence.
func (s *Session) Sequence() (timeline.Sequence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq := s.project.Current()
	if seq == nil {
		return timeline.Sequence{}, timeline.ErrNoSequence
	}
	return seq.Clone(), nil
}

// Replace swaps in another project, dropping history, selection and any
// drag. The new document is saved.
func (s *Session) Replace(p timeline.Project) {
	s.mu.Lock()
	s.project = p.Clone()
	s.history.Reset()
	s.selection = uuid.Nil
	s.drag = nil
	s.logger = logging.WithProjectID(s.base, p.ID.String())
	v, snap := s.bumpLocked()
	s.mu.Unlock()
	s.publish(snap, v)
}

// Rename renames the project. It is not an undoable edit.
func (s *Session) Rename(name string) error {
	if name == "" {
		return commands.ErrInvalidName
	}
	s.mu.Lock()
	s.project.Name = name
	s.project.Touch(s.now())
	v, snap := s.bumpLocked()
	s.mu.Unlock()
	s.publish(snap, v)
	return nil
}

// Execute applies a command built against the current sequence and records
// it in the history.
func (s *Session) Execute(build func(seq timeline.Sequence) (commands.Command, error)) (bool, error) {
	s.mu.Lock()
	if s.drag != nil {
		s.mu.Unlock()
		return false, ErrDragInProgress
	}
	seq := s.project.Current()
	if seq == nil {
		s.mu.Unlock()
		return false, timeline.ErrNoSequence
	}
	cmd, err := build(*seq)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}
	changed := s.history.Apply(cmd, &s.project)
	s.metrics.CommandApplied(cmd.Name(), changed)
	if !changed {
		s.mu.Unlock()
		return false, nil
	}
	v, snap := s.bumpLocked()
	logger := s.logger
	s.mu.Unlock()

	logger.Debug("command applied", "command", cmd.Name(), "version", v)
	s.publish(snap, v)
	return true, nil
}

// AddToTimeline places asset on the first video track at start and selects
// the new clip.
func (s *Session) AddToTimeline(asset timeline.MediaAsset, start float64) (timeline.Clip, error) {
	var clip timeline.Clip
	_, err := s.Execute(func(seq timeline.Sequence) (commands.Command, error) {
		track, ok := seq.FirstTrack(timeline.KindVideo)
		if !ok {
			return nil, ErrNoVideoTrack
		}
		clip = timeline.NewClipFromMedia(asset, track.ID, start)
		clip.LayerHint = track.Index
		return commands.NewAddClip(seq, clip)
	})
	if err != nil {
		return timeline.Clip{}, err
	}
	s.mu.Lock()
	s.selection = clip.ID
	s.mu.Unlock()
	return clip, nil
}

// AddTemplate places a generated title or sticker clip on the first track
// of its kind and selects it.
func (s *Session) AddTemplate(tmpl templates.Template, start float64) (timeline.Clip, error) {
	kind, err := tmpl.TimelineKind()
	if err != nil {
		return timeline.Clip{}, err
	}
	var clip timeline.Clip
	_, err = s.Execute(func(seq timeline.Sequence) (commands.Command, error) {
		track, ok := seq.FirstTrack(kind)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoTrackOfKind, kind)
		}
		built, err := tmpl.Clip(track, start)
		if err != nil {
			return nil, err
		}
		clip = built
		return commands.NewAddClip(seq, clip)
	})
	if err != nil {
		return timeline.Clip{}, err
	}
	s.mu.Lock()
	s.selection = clip.ID
	s.mu.Unlock()
	return clip, nil
}

// AddClip adds a fully specified clip, such as a title or an audio bed.
func (s *Session) AddClip(clip timeline.Clip) error {
	_, err := s.Execute(func(seq timeline.Sequence) (commands.Command, error) {
		return commands.NewAddClip(seq, clip)
	})
	return err
}

func (s *Session) SetClipStart(clipID uuid.UUID, start float64) error {
	_, err := s.Execute(func(seq timeline.Sequence) (commands.Command, error) {
		return commands.NewSetClipStart(seq, clipID, start)
	})
	return err
}

func (s *Session) SetClipDuration(clipID uuid.UUID, duration float64) error {
	_, err := s.Execute(func(seq timeline.Sequence) (commands.Command, error) {
		return commands.NewSetClipDuration(seq, clipID, duration)
	})
	return err
}

// SplitClip cuts the clip at timeline time at and returns the id of the
// right part.
func (s *Session) SplitClip(clipID uuid.UUID, at float64) (uuid.UUID, error) {
	var right uuid.UUID
	_, err := s.Execute(func(seq timeline.Sequence) (commands.Command, error) {
		cmd, err := commands.NewSplitClipAt(seq, clipID, at)
		if err != nil {
			return nil, err
		}
		right = cmd.Right.ID
		return cmd, nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return right, nil
}

func (s *Session) SetClipFilter(clipID uuid.UUID, filter timeline.Filter) error {
	_, err := s.Execute(func(seq timeline.Sequence) (commands.Command, error) {
		return commands.NewSetClipFilter(seq, clipID, filter)
	})
	return err
}

// DeleteClip removes a clip and clears the selection if it pointed at it.
func (s *Session) DeleteClip(clipID uuid.UUID) error {
	_, err := s.Execute(func(seq timeline.Sequence) (commands.Command, error) {
		return commands.NewDeleteClip(seq, clipID)
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.selection == clipID {
		s.selection = uuid.Nil
	}
	s.mu.Unlock()
	return nil
}

func (s *Session) MoveClipToTrack(clipID, trackID uuid.UUID) error {
	_, err := s.Execute(func(seq timeline.Sequence) (commands.Command, error) {
		return commands.NewMoveClipToTrack(seq, clipID, trackID)
	})
	return err
}

func (s *Session) SetGlobalFilter(filter timeline.Filter) error {
	_, err := s.Execute(func(seq timeline.Sequence) (commands.Command, error) {
		return commands.NewSetGlobalFilter(seq, filter)
	})
	return err
}

func (s *Session) RenameTrack(trackID uuid.UUID, name string) error {
	_, err := s.Execute(func(seq timeline.Sequence) (commands.Command, error) {
		return commands.NewRenameTrack(seq, trackID, name)
	})
	return err
}

// Undo reverts the latest command and returns its name.
func (s *Session) Undo() (string, error) {
	return s.step(true)
}

// Redo re-applies the latest undone command and returns its name.
func (s *Session) Redo() (string, error) {
	return s.step(false)
}

func (s *Session) step(undo bool) (string, error) {
	s.mu.Lock()
	if s.drag != nil {
		s.mu.Unlock()
		return "", ErrDragInProgress
	}
	var (
		cmd     commands.Command
		changed bool
	)
	if undo {
		cmd, changed = s.history.Undo(&s.project)
		if cmd == nil {
			s.mu.Unlock()
			return "", ErrNothingToUndo
		}
		s.metrics.Undo()
	} else {
		cmd, changed = s.history.Redo(&s.project)
		if cmd == nil {
			s.mu.Unlock()
			return "", ErrNothingToRedo
		}
		s.metrics.Redo()
	}
	if !changed {
		s.mu.Unlock()
		return cmd.Name(), nil
	}
	v, snap := s.bumpLocked()
	s.mu.Unlock()
	s.publish(snap, v)
	return cmd.Name(), nil
}

// History describes the undo and redo stacks.
func (s *Session) History() HistoryState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return HistoryState{
		CanUndo:  s.history.CanUndo(),
		CanRedo:  s.history.CanRedo(),
		UndoName: s.history.UndoName(),
		RedoName: s.history.RedoName(),
	}
}

// Snap returns t pulled onto the nearest snap point of the current sequence.
func (s *Session) Snap(t float64, excluding uuid.UUID) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq := s.project.Current()
	if seq == nil {
		return t
	}
	return seq.Snap(t, excluding)
}

// Select marks a clip as selected. uuid.Nil clears the selection.
func (s *Session) Select(clipID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if clipID != uuid.Nil {
		seq := s.project.Current()
		if seq == nil || seq.ClipIndex(clipID) < 0 {
			return fmt.Errorf("%w: %s", commands.ErrClipNotFound, clipID)
		}
	}
	s.selection = clipID
	return nil
}

// Selected returns the selected clip, if it still exists.
func (s *Session) Selected() (timeline.Clip, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection == uuid.Nil {
		return timeline.Clip{}, false
	}
	seq := s.project.Current()
	if seq == nil {
		return timeline.Clip{}, false
	}
	return seq.Clip(s.selection)
}

// Plan returns the latest published plan when it matches the current
// version, and resolves synchronously otherwise.
func (s *Session) Plan(ctx context.Context) (*composition.Plan, error) {
	if s.rebuilder != nil {
		if p := s.rebuilder.Latest(); p != nil && p.Version == s.Version() {
			return p, nil
		}
	}
	return s.ResolveNow(ctx)
}

// ResolveNow resolves the current sequence on the calling goroutine.
func (s *Session) ResolveNow(ctx context.Context) (*composition.Plan, error) {
	if s.resolver == nil {
		return nil, ErrNoResolver
	}
	s.mu.Lock()
	seq := s.project.Current()
	if seq == nil {
		s.mu.Unlock()
		return nil, timeline.ErrNoSequence
	}
	snap := seq.Clone()
	v := s.Version()
	s.mu.Unlock()

	plan, err := s.resolver.Resolve(ctx, snap)
	if err != nil {
		return nil, err
	}
	plan.Version = v
	return plan, nil
}

// Refresh re-resolves the current document without changing it, for
// example after the media behind a clip changed on disk.
func (s *Session) Refresh() {
	s.mu.Lock()
	v, snap := s.bumpLocked()
	s.mu.Unlock()
	s.requestRebuild(snap, v)
}

// Rebuilder exposes the background resolver, or nil without a resolver.
func (s *Session) Rebuilder() *Rebuilder {
	return s.rebuilder
}

// Flush writes any pending snapshot immediately.
func (s *Session) Flush(ctx context.Context) error {
	if s.saver == nil {
		return nil
	}
	return s.saver.Flush(ctx)
}

// Close stops background resolves and flushes the pending save.
func (s *Session) Close(ctx context.Context) error {
	if s.rebuilder != nil {
		s.rebuilder.Stop()
	}
	return s.Flush(ctx)
}

// bumpLocked advances the version and snapshots the document. Callers hold
// s.mu.
func (s *Session) bumpLocked() (uint64, timeline.Project) {
	v := s.version.Add(1)
	return v, s.project.Clone()
}

func (s *Session) publish(snap timeline.Project, v uint64) {
	s.requestRebuild(snap, v)
	if s.saver != nil {
		s.saver.Schedule(snap)
	}
}

func (s *Session) requestRebuild(snap timeline.Project, v uint64) {
	if s.rebuilder == nil {
		return
	}
	if seq := snap.Current(); seq != nil {
		s.rebuilder.Request(*seq, v)
	}
}
