package timeline

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Clip is a placed, trimmed reference to media on the timeline. Times are
// in seconds. StartTime and Duration position the clip on the timeline;
// SourceStart and SourceDuration select the window inside the media.
type Clip struct {
	ID      uuid.UUID `json:"id"`
	Kind    Kind      `json:"kind"`
	TrackID uuid.UUID `json:"trackID"`
	Name    string    `json:"name"`

	StartTime float64 `json:"startTime"`
	Duration  float64 `json:"duration"`

	SourceStart    float64 `json:"sourceStart"`
	SourceDuration float64 `json:"sourceDuration"`

	// MediaRelativePath is an opaque media reference resolved by a
	// media.Prober. Generated clips have none.
	MediaRelativePath string `json:"mediaRelativePath,omitempty"`

	Opacity   float64   `json:"opacity"`
	Transform Transform `json:"transform"`

	PrimaryFilter Filter `json:"primaryFilter,omitempty"`

	OpacityKeyframes   *KeyframedDouble    `json:"opacityKeyframes,omitempty"`
	TransformKeyframes *KeyframedTransform `json:"transformKeyframes,omitempty"`

	// LayerHint caches the owning track's index. Commands that change
	// TrackID recompute it; it is never authoritative on its own.
	LayerHint int `json:"trackIndexHint"`
}

// MediaAsset describes imported media from the timeline's point of view.
type MediaAsset struct {
	ID           uuid.UUID
	DisplayName  string
	RelativePath string
	Duration     float64
}

// NewClipFromMedia builds a video clip that plays the whole asset starting
// at start on the given track.
func NewClipFromMedia(asset MediaAsset, trackID uuid.UUID, start float64) Clip {
	return Clip{
		ID:                uuid.New(),
		Kind:              KindVideo,
		TrackID:           trackID,
		Name:              asset.DisplayName,
		StartTime:         start,
		Duration:          asset.Duration,
		SourceStart:       0,
		SourceDuration:    asset.Duration,
		MediaRelativePath: asset.RelativePath,
		Opacity:           1,
		Transform:         Identity(),
	}
}

// End is the exclusive end of the clip on the timeline.
func (c Clip) End() float64 {
	return c.StartTime + c.Duration
}

// ActiveAt reports whether t falls in [StartTime, End).
func (c Clip) ActiveAt(t float64) bool {
	return t >= c.StartTime && t < c.End()
}

// PlayableSourceDuration is the amount of source media the clip plays.
func (c Clip) PlayableSourceDuration() float64 {
	return min(c.Duration, c.SourceDuration)
}

// SourceRange returns the half-open source window [start, end).
func (c Clip) SourceRange() (start, end float64) {
	return c.SourceStart, c.SourceStart + c.PlayableSourceDuration()
}

func (c Clip) HasMedia() bool {
	return c.MediaRelativePath != ""
}

func (c Clip) Validate() error {
	switch {
	case !c.Kind.Valid():
		return fmt.Errorf("%w: clip %s has unknown kind %q", ErrInvalidClip, c.ID, c.Kind)
	case c.Duration <= 0:
		return fmt.Errorf("%w: clip %s duration must be positive", ErrInvalidClip, c.ID)
	case c.SourceDuration <= 0:
		return fmt.Errorf("%w: clip %s source duration must be positive", ErrInvalidClip, c.ID)
	case c.SourceStart < 0:
		return fmt.Errorf("%w: clip %s source start must not be negative", ErrInvalidClip, c.ID)
	case c.StartTime < 0:
		return fmt.Errorf("%w: clip %s start must not be negative", ErrInvalidClip, c.ID)
	}
	return nil
}

// Clone returns a copy that shares no keyframe storage with c.
func (c Clip) Clone() Clip {
	if c.OpacityKeyframes != nil {
		k := c.OpacityKeyframes.Clone()
		c.OpacityKeyframes = &k
	}
	if c.TransformKeyframes != nil {
		k := c.TransformKeyframes.Clone()
		c.TransformKeyframes = &k
	}
	return c
}

// UnmarshalJSON fills the visual defaults for documents written before
// opacity and transform were stored.
func (c *Clip) UnmarshalJSON(data []byte) error {
	type plain Clip
	p := plain{Opacity: 1, Transform: Identity()}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = Clip(p)
	return nil
}
