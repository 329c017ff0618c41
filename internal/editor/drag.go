package editor

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/heimdex/clipforge/internal/commands"
	"github.com/heimdex/clipforge/internal/timeline"
)

// BeginMove starts a drag of clipID. The start it has now is what CommitMove
// records as the old position and what CancelMove restores.
func (s *Session) BeginMove(clipID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drag != nil {
		return ErrDragInProgress
	}
	clip, ok := s.currentClipLocked(clipID)
	if !ok {
		return fmt.Errorf("%w: %s", commands.ErrClipNotFound, clipID)
	}
	s.drag = &drag{clipID: clipID, origin: clip.StartTime}
	s.selection = clipID
	return nil
}

// PreviewMove moves the dragged clip to start without touching the history.
// The version still advances so resolves already in flight are discarded.
func (s *Session) PreviewMove(start float64) error {
	if start < 0 || math.IsNaN(start) || math.IsInf(start, 0) {
		return fmt.Errorf("%w: %v", commands.ErrInvalidTime, start)
	}
	s.mu.Lock()
	if s.drag == nil {
		s.mu.Unlock()
		return ErrNoDrag
	}
	if id := s.drag.clipID; !s.setStartLocked(id, start) {
		s.drag = nil
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", commands.ErrClipNotFound, id)
	}
	v, snap := s.bumpLocked()
	s.mu.Unlock()
	s.requestRebuild(snap, v)
	return nil
}

// CommitMove ends the drag. A moved clip yields exactly one history entry;
// a clip back at its origin yields none. It reports whether an entry was
// recorded.
func (s *Session) CommitMove() (bool, error) {
	s.mu.Lock()
	d := s.drag
	if d == nil {
		s.mu.Unlock()
		return false, ErrNoDrag
	}
	s.drag = nil
	clip, ok := s.currentClipLocked(d.clipID)
	if !ok {
		s.mu.Unlock()
		return false, fmt.Errorf("%w: %s", commands.ErrClipNotFound, d.clipID)
	}
	if clip.StartTime == d.origin {
		s.mu.Unlock()
		return false, nil
	}
	cmd := &commands.SetClipStart{
		SequenceID: s.project.Current().ID,
		ClipID:     d.clipID,
		Old:        d.origin,
		New:        clip.StartTime,
	}
	changed := s.history.Apply(cmd, &s.project)
	s.metrics.CommandApplied(cmd.Name(), changed)
	v, snap := s.bumpLocked()
	s.mu.Unlock()
	s.publish(snap, v)
	return true, nil
}

// CancelMove ends the drag and puts the clip back where it started.
func (s *Session) CancelMove() error {
	s.mu.Lock()
	d := s.drag
	if d == nil {
		s.mu.Unlock()
		return ErrNoDrag
	}
	s.drag = nil
	s.setStartLocked(d.clipID, d.origin)
	v, snap := s.bumpLocked()
	s.mu.Unlock()
	s.requestRebuild(snap, v)
	return nil
}

// Dragging returns the clip being dragged, if any.
func (s *Session) Dragging() (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drag == nil {
		return uuid.Nil, false
	}
	return s.drag.clipID, true
}

func (s *Session) currentClipLocked(clipID uuid.UUID) (timeline.Clip, bool) {
	seq := s.project.Current()
	if seq == nil {
		return timeline.Clip{}, false
	}
	return seq.Clip(clipID)
}

func (s *Session) setStartLocked(clipID uuid.UUID, start float64) bool {
	seq := s.project.Current()
	if seq == nil {
		return false
	}
	i := seq.ClipIndex(clipID)
	if i < 0 {
		return false
	}
	seq.Clips[i].StartTime = start
	return true
}
