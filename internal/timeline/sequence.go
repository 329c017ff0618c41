package timeline

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

const (
	DefaultFrameRate    = 30
	DefaultSequenceName = "Main"

	// minSequenceDuration keeps an empty timeline from having zero length.
	minSequenceDuration = 0.01
)

type Timebase struct {
	FrameRate int `json:"frameRate"`
}

// Sequence is one timeline. Tracks keep insertion order; clips are
// unordered.
type Sequence struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Timebase     Timebase  `json:"timebase"`
	Tracks       []Track   `json:"tracks"`
	Clips        []Clip    `json:"clips"`
	GlobalFilter Filter    `json:"globalFilter,omitempty"`
}

// NewSequence returns an empty sequence without tracks.
func NewSequence(name string, frameRate int) Sequence {
	return Sequence{
		ID:       uuid.New(),
		Name:     name,
		Timebase: Timebase{FrameRate: frameRate},
		Tracks:   []Track{},
		Clips:    []Clip{},
	}
}

// DefaultSequence seeds the video, audio and title tracks every new project
// starts with.
func DefaultSequence() Sequence {
	s := NewSequence(DefaultSequenceName, DefaultFrameRate)
	s.Tracks = append(s.Tracks,
		NewTrack(KindVideo, 0, "Video 1"),
		NewTrack(KindAudio, 0, "Audio 1"),
		NewTrack(KindTitle, 0, "Titles"),
	)
	return s
}

// Duration is the end of the last clip, never less than 0.01.
func (s Sequence) Duration() float64 {
	d := minSequenceDuration
	for _, c := range s.Clips {
		d = max(d, c.End())
	}
	return d
}

func (s Sequence) Track(id uuid.UUID) (Track, bool) {
	for _, t := range s.Tracks {
		if t.ID == id {
			return t, true
		}
	}
	return Track{}, false
}

func (s Sequence) TrackIndex(id uuid.UUID) int {
	return slices.IndexFunc(s.Tracks, func(t Track) bool { return t.ID == id })
}

// FirstTrack returns the first track of kind in track order.
func (s Sequence) FirstTrack(kind Kind) (Track, bool) {
	for _, t := range s.Tracks {
		if t.Kind == kind {
			return t, true
		}
	}
	return Track{}, false
}

// TracksOfKind returns the tracks of kind in track order.
func (s Sequence) TracksOfKind(kind Kind) []Track {
	var out []Track
	for _, t := range s.Tracks {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

func (s Sequence) Clip(id uuid.UUID) (Clip, bool) {
	if i := s.ClipIndex(id); i >= 0 {
		return s.Clips[i], true
	}
	return Clip{}, false
}

func (s Sequence) ClipIndex(id uuid.UUID) int {
	return slices.IndexFunc(s.Clips, func(c Clip) bool { return c.ID == id })
}

// ClipsOnTrack returns the clips owned by the track, sorted by start.
func (s Sequence) ClipsOnTrack(trackID uuid.UUID) []Clip {
	var out []Clip
	for _, c := range s.Clips {
		if c.TrackID == trackID {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b Clip) int {
		switch {
		case a.StartTime < b.StartTime:
			return -1
		case a.StartTime > b.StartTime:
			return 1
		}
		return 0
	})
	return out
}

// Clone returns a deep copy of the sequence.
func (s Sequence) Clone() Sequence {
	out := s
	out.Tracks = make([]Track, len(s.Tracks))
	copy(out.Tracks, s.Tracks)
	out.Clips = make([]Clip, len(s.Clips))
	for i, c := range s.Clips {
		out.Clips[i] = c.Clone()
	}
	return out
}

// Validate checks every clip and its track ownership.
func (s Sequence) Validate() error {
	seen := make(map[uuid.UUID]bool, len(s.Tracks))
	for _, t := range s.Tracks {
		if !t.Kind.Valid() {
			return fmt.Errorf("%w: track %s has unknown kind %q", ErrInvalidSequence, t.ID, t.Kind)
		}
		if seen[t.ID] {
			return fmt.Errorf("%w: duplicate track %s", ErrInvalidSequence, t.ID)
		}
		seen[t.ID] = true
	}
	clips := make(map[uuid.UUID]bool, len(s.Clips))
	for _, c := range s.Clips {
		if err := c.Validate(); err != nil {
			return err
		}
		if clips[c.ID] {
			return fmt.Errorf("%w: duplicate clip %s", ErrInvalidSequence, c.ID)
		}
		clips[c.ID] = true
		t, ok := s.Track(c.TrackID)
		if !ok {
			return fmt.Errorf("%w: clip %s references missing track %s", ErrInvalidSequence, c.ID, c.TrackID)
		}
		if !c.Kind.CompatibleWith(t.Kind) {
			return fmt.Errorf("%w: %s clip %s on %s track %s", ErrInvalidSequence, c.Kind, c.ID, t.Kind, t.ID)
		}
		if c.LayerHint != t.Index {
			return fmt.Errorf("%w: clip %s layer hint %d does not match track index %d", ErrInvalidSequence, c.ID, c.LayerHint, t.Index)
		}
	}
	return nil
}
