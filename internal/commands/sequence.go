package commands

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/heimdex/clipforge/internal/timeline"
)

// SetGlobalFilter changes the filter applied to clips without their own.
type SetGlobalFilter struct {
	SequenceID uuid.UUID
	Old        timeline.Filter
	New        timeline.Filter
}

func NewSetGlobalFilter(seq timeline.Sequence, filter timeline.Filter) (*SetGlobalFilter, error) {
	if filter.IsSet() && !filter.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, filter)
	}
	return &SetGlobalFilter{SequenceID: seq.ID, Old: seq.GlobalFilter, New: filter}, nil
}

func (c *SetGlobalFilter) Name() string { return "Set Global Filter" }

func (c *SetGlobalFilter) Apply(p *timeline.Project) bool {
	return mutate(p, c.SequenceID, func(seq *timeline.Sequence) bool {
		seq.GlobalFilter = c.New
		return true
	})
}

func (c *SetGlobalFilter) Undo(p *timeline.Project) bool {
	return mutate(p, c.SequenceID, func(seq *timeline.Sequence) bool {
		seq.GlobalFilter = c.Old
		return true
	})
}

// RenameTrack changes a track's display name, the only mutable track field.
type RenameTrack struct {
	SequenceID uuid.UUID
	TrackID    uuid.UUID
	Old        string
	New        string
}

func NewRenameTrack(seq timeline.Sequence, trackID uuid.UUID, name string) (*RenameTrack, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	track, ok := seq.Track(trackID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTrackNotFound, trackID)
	}
	return &RenameTrack{SequenceID: seq.ID, TrackID: trackID, Old: track.DisplayName, New: name}, nil
}

func (c *RenameTrack) Name() string { return "Rename Track" }

func (c *RenameTrack) Apply(p *timeline.Project) bool {
	return c.set(p, c.New)
}

func (c *RenameTrack) Undo(p *timeline.Project) bool {
	return c.set(p, c.Old)
}

func (c *RenameTrack) set(p *timeline.Project, name string) bool {
	return mutate(p, c.SequenceID, func(seq *timeline.Sequence) bool {
		i := seq.TrackIndex(c.TrackID)
		if i < 0 {
			return false
		}
		seq.Tracks[i].DisplayName = name
		return true
	})
}
