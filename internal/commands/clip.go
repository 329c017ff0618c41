package commands

import (
	"fmt"
	"math"
	"slices"

	"github.com/google/uuid"

	"github.com/heimdex/clipforge/internal/timeline"
)

// AddClip appends a clip to a sequence.
type AddClip struct {
	SequenceID uuid.UUID
	Clip       timeline.Clip
}

func NewAddClip(seq timeline.Sequence, clip timeline.Clip) (*AddClip, error) {
	if err := clip.Validate(); err != nil {
		return nil, err
	}
	if seq.ClipIndex(clip.ID) >= 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateClip, clip.ID)
	}
	track, ok := seq.Track(clip.TrackID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTrackNotFound, clip.TrackID)
	}
	if !clip.Kind.CompatibleWith(track.Kind) {
		return nil, fmt.Errorf("%w: %s clip on %s track", ErrIncompatibleTrack, clip.Kind, track.Kind)
	}
	return &AddClip{SequenceID: seq.ID, Clip: clip.Clone()}, nil
}

func (c *AddClip) Name() string { return "Add Clip" }

func (c *AddClip) Apply(p *timeline.Project) bool {
	return mutate(p, c.SequenceID, func(seq *timeline.Sequence) bool {
		clip := c.Clip.Clone()
		if track, ok := seq.Track(clip.TrackID); ok {
			clip.LayerHint = track.Index
		}
		seq.Clips = append(seq.Clips, clip)
		return true
	})
}

func (c *AddClip) Undo(p *timeline.Project) bool {
	return mutate(p, c.SequenceID, func(seq *timeline.Sequence) bool {
		return removeClip(seq, c.Clip.ID)
	})
}

// DeleteClip removes a clip. Undo puts it back at the position it had when
// the command was built.
type DeleteClip struct {
	SequenceID uuid.UUID
	Clip       timeline.Clip
	Index      int
}

func NewDeleteClip(seq timeline.Sequence, clipID uuid.UUID) (*DeleteClip, error) {
	i := seq.ClipIndex(clipID)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrClipNotFound, clipID)
	}
	return &DeleteClip{SequenceID: seq.ID, Clip: seq.Clips[i].Clone(), Index: i}, nil
}

func (c *DeleteClip) Name() string { return "Delete Clip" }

func (c *DeleteClip) Apply(p *timeline.Project) bool {
	return mutate(p, c.SequenceID, func(seq *timeline.Sequence) bool {
		return removeClip(seq, c.Clip.ID)
	})
}

func (c *DeleteClip) Undo(p *timeline.Project) bool {
	return mutate(p, c.SequenceID, func(seq *timeline.Sequence) bool {
		if seq.ClipIndex(c.Clip.ID) >= 0 {
			return false
		}
		i := min(max(c.Index, 0), len(seq.Clips))
		seq.Clips = slices.Insert(seq.Clips, i, c.Clip.Clone())
		return true
	})
}

// SetClipStart moves a clip along the timeline.
type SetClipStart struct {
	SequenceID uuid.UUID
	ClipID     uuid.UUID
	Old        float64
	New        float64
}

func NewSetClipStart(seq timeline.Sequence, clipID uuid.UUID, start float64) (*SetClipStart, error) {
	if !validTime(start) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTime, start)
	}
	clip, ok := seq.Clip(clipID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrClipNotFound, clipID)
	}
	return &SetClipStart{SequenceID: seq.ID, ClipID: clipID, Old: clip.StartTime, New: start}, nil
}

func (c *SetClipStart) Name() string { return "Move Clip" }

func (c *SetClipStart) Apply(p *timeline.Project) bool {
	return mutateClip(p, c.SequenceID, c.ClipID, func(clip *timeline.Clip) {
		clip.StartTime = c.New
	})
}

func (c *SetClipStart) Undo(p *timeline.Project) bool {
	return mutateClip(p, c.SequenceID, c.ClipID, func(clip *timeline.Clip) {
		clip.StartTime = c.Old
	})
}

// SetClipDuration trims a clip. The source duration is clamped so the clip
// never plays more media than it is long.
type SetClipDuration struct {
	SequenceID        uuid.UUID
	ClipID            uuid.UUID
	OldDuration       float64
	OldSourceDuration float64
	NewDuration       float64
}

func NewSetClipDuration(seq timeline.Sequence, clipID uuid.UUID, duration float64) (*SetClipDuration, error) {
	if !(duration > 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDuration, duration)
	}
	clip, ok := seq.Clip(clipID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrClipNotFound, clipID)
	}
	return &SetClipDuration{
		SequenceID:        seq.ID,
		ClipID:            clipID,
		OldDuration:       clip.Duration,
		OldSourceDuration: clip.SourceDuration,
		NewDuration:       duration,
	}, nil
}

func (c *SetClipDuration) Name() string { return "Trim Clip" }

func (c *SetClipDuration) Apply(p *timeline.Project) bool {
	return mutateClip(p, c.SequenceID, c.ClipID, func(clip *timeline.Clip) {
		clip.Duration = c.NewDuration
		clip.SourceDuration = min(clip.SourceDuration, c.NewDuration)
	})
}

func (c *SetClipDuration) Undo(p *timeline.Project) bool {
	return mutateClip(p, c.SequenceID, c.ClipID, func(clip *timeline.Clip) {
		clip.Duration = c.OldDuration
		clip.SourceDuration = c.OldSourceDuration
	})
}

// SplitClip cuts a clip in two. The left part keeps the original id and
// position in the collection; the right part is appended.
type SplitClip struct {
	SequenceID uuid.UUID
	Original   timeline.Clip
	Left       timeline.Clip
	Right      timeline.Clip
}

// NewSplitClip splits at timeline time at, clamped into the clip's bounds.
// A cut on either edge yields a zero-length side. rightID names the new
// clip.
func NewSplitClip(seq timeline.Sequence, clipID uuid.UUID, at float64, rightID uuid.UUID) (*SplitClip, error) {
	if math.IsNaN(at) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTime, at)
	}
	orig, ok := seq.Clip(clipID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrClipNotFound, clipID)
	}
	if rightID == uuid.Nil || seq.ClipIndex(rightID) >= 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateClip, rightID)
	}

	cut := max(orig.StartTime, min(at, orig.End()))
	leftDur := cut - orig.StartTime
	rightDur := orig.Duration - leftDur

	left := orig.Clone()
	left.Duration = leftDur
	left.SourceDuration = min(left.SourceDuration, leftDur)

	right := orig.Clone()
	right.ID = rightID
	right.StartTime = cut
	right.Duration = rightDur
	right.SourceStart = orig.SourceStart + leftDur
	right.SourceDuration = min(orig.SourceDuration-leftDur, rightDur)
	shiftKeyframes(&right, -leftDur)

	return &SplitClip{
		SequenceID: seq.ID,
		Original:   orig.Clone(),
		Left:       left,
		Right:      right,
	}, nil
}

// NewSplitClipAt is NewSplitClip with a freshly generated id for the right
// part.
func NewSplitClipAt(seq timeline.Sequence, clipID uuid.UUID, at float64) (*SplitClip, error) {
	return NewSplitClip(seq, clipID, at, uuid.New())
}

// shiftKeyframes keeps keyframes on the right part aligned with the same
// source frames they were set on.
func shiftKeyframes(c *timeline.Clip, by float64) {
	if k := c.OpacityKeyframes; k != nil {
		for i := range k.Keyframes {
			k.Keyframes[i].Time += by
		}
	}
	if k := c.TransformKeyframes; k != nil {
		for i := range k.Keyframes {
			k.Keyframes[i].Time += by
		}
	}
}

func (c *SplitClip) Name() string { return "Split Clip" }

func (c *SplitClip) Apply(p *timeline.Project) bool {
	return mutate(p, c.SequenceID, func(seq *timeline.Sequence) bool {
		i := seq.ClipIndex(c.Original.ID)
		if i < 0 {
			return false
		}
		seq.Clips[i] = c.Left.Clone()
		seq.Clips = append(seq.Clips, c.Right.Clone())
		return true
	})
}

func (c *SplitClip) Undo(p *timeline.Project) bool {
	return mutate(p, c.SequenceID, func(seq *timeline.Sequence) bool {
		removeClip(seq, c.Right.ID)
		if i := seq.ClipIndex(c.Left.ID); i >= 0 {
			seq.Clips[i] = c.Original.Clone()
		} else {
			seq.Clips = append(seq.Clips, c.Original.Clone())
		}
		return true
	})
}

// SetClipFilter changes a clip's primary filter. The empty filter clears
// it.
type SetClipFilter struct {
	SequenceID uuid.UUID
	ClipID     uuid.UUID
	Old        timeline.Filter
	New        timeline.Filter
}

func NewSetClipFilter(seq timeline.Sequence, clipID uuid.UUID, filter timeline.Filter) (*SetClipFilter, error) {
	if filter.IsSet() && !filter.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, filter)
	}
	clip, ok := seq.Clip(clipID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrClipNotFound, clipID)
	}
	return &SetClipFilter{SequenceID: seq.ID, ClipID: clipID, Old: clip.PrimaryFilter, New: filter}, nil
}

func (c *SetClipFilter) Name() string { return "Set Filter" }

func (c *SetClipFilter) Apply(p *timeline.Project) bool {
	return mutateClip(p, c.SequenceID, c.ClipID, func(clip *timeline.Clip) {
		clip.PrimaryFilter = c.New
	})
}

func (c *SetClipFilter) Undo(p *timeline.Project) bool {
	return mutateClip(p, c.SequenceID, c.ClipID, func(clip *timeline.Clip) {
		clip.PrimaryFilter = c.Old
	})
}

// MoveClipToTrack reassigns a clip to another track of the same kind and
// refreshes its layer hint.
type MoveClipToTrack struct {
	SequenceID   uuid.UUID
	ClipID       uuid.UUID
	OldTrackID   uuid.UUID
	OldLayerHint int
	NewTrackID   uuid.UUID
}

func NewMoveClipToTrack(seq timeline.Sequence, clipID, trackID uuid.UUID) (*MoveClipToTrack, error) {
	clip, ok := seq.Clip(clipID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrClipNotFound, clipID)
	}
	track, ok := seq.Track(trackID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTrackNotFound, trackID)
	}
	if !clip.Kind.CompatibleWith(track.Kind) {
		return nil, fmt.Errorf("%w: %s clip on %s track", ErrIncompatibleTrack, clip.Kind, track.Kind)
	}
	return &MoveClipToTrack{
		SequenceID:   seq.ID,
		ClipID:       clipID,
		OldTrackID:   clip.TrackID,
		OldLayerHint: clip.LayerHint,
		NewTrackID:   trackID,
	}, nil
}

func (c *MoveClipToTrack) Name() string { return "Move Clip to Track" }

func (c *MoveClipToTrack) Apply(p *timeline.Project) bool {
	return mutate(p, c.SequenceID, func(seq *timeline.Sequence) bool {
		track, ok := seq.Track(c.NewTrackID)
		if !ok {
			return false
		}
		i := seq.ClipIndex(c.ClipID)
		if i < 0 || !seq.Clips[i].Kind.CompatibleWith(track.Kind) {
			return false
		}
		seq.Clips[i].TrackID = track.ID
		seq.Clips[i].LayerHint = track.Index
		return true
	})
}

func (c *MoveClipToTrack) Undo(p *timeline.Project) bool {
	return mutateClip(p, c.SequenceID, c.ClipID, func(clip *timeline.Clip) {
		clip.TrackID = c.OldTrackID
		clip.LayerHint = c.OldLayerHint
	})
}
