// Package commands implements the closed set of reversible document edits
// and the undo/redo history that records them.
//
// A command captures everything it needs at construction time. Apply and
// Undo never consult a clock or a random source, so Undo(Apply(p)) restores
// p exactly. Applying a command to a document that no longer matches its
// captured preconditions is a silent no-op reported by a false result.
package commands

import (
	"errors"
	"math"

	"github.com/google/uuid"

	"github.com/heimdex/clipforge/internal/timeline"
)

var (
	ErrClipNotFound      = errors.New("clip not found")
	ErrTrackNotFound     = errors.New("track not found")
	ErrIncompatibleTrack = errors.New("clip kind does not match track kind")
	ErrDuplicateClip     = errors.New("clip already exists")
	ErrInvalidDuration   = errors.New("duration must be positive")
	ErrInvalidTime       = errors.New("time must be a non-negative number")
	ErrInvalidName       = errors.New("name must not be empty")
	ErrInvalidFilter     = errors.New("unknown filter")
)

// Command is one reversible edit. Apply and Undo report whether the
// document changed.
type Command interface {
	Name() string
	Apply(p *timeline.Project) bool
	Undo(p *timeline.Project) bool
}

// mutate runs fn against the sequence with the given id.
func mutate(p *timeline.Project, seqID uuid.UUID, fn func(seq *timeline.Sequence) bool) bool {
	if p == nil {
		return false
	}
	for i := range p.Sequences {
		if p.Sequences[i].ID == seqID {
			return fn(&p.Sequences[i])
		}
	}
	return false
}

// mutateClip runs fn against the clip with the given id.
func mutateClip(p *timeline.Project, seqID, clipID uuid.UUID, fn func(c *timeline.Clip)) bool {
	return mutate(p, seqID, func(seq *timeline.Sequence) bool {
		i := seq.ClipIndex(clipID)
		if i < 0 {
			return false
		}
		fn(&seq.Clips[i])
		return true
	})
}

func removeClip(seq *timeline.Sequence, id uuid.UUID) bool {
	i := seq.ClipIndex(id)
	if i < 0 {
		return false
	}
	seq.Clips = append(seq.Clips[:i], seq.Clips[i+1:]...)
	return true
}

func validTime(t float64) bool {
	return t >= 0 && !math.IsInf(t, 0)
}
