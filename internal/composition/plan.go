// Package composition flattens a sequence into a Plan: per-track lists of
// source-to-timeline segments, a render size and a time-varying effect
// selection that a playback or export backend can consume directly.
package composition

import (
	"slices"

	"github.com/google/uuid"

	"github.com/heimdex/clipforge/internal/effects"
	"github.com/heimdex/clipforge/internal/timeline"
)

// DefaultRenderSize is used when no video clip supplies dimensions.
var DefaultRenderSize = Size{Width: 1920, Height: 1080}

type Size struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

func (s Size) IsZero() bool {
	return s.Width == 0 || s.Height == 0
}

// TimeRange is a half-open range [Start, Start+Duration) in seconds.
type TimeRange struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

func (r TimeRange) End() float64 {
	return r.Start + r.Duration
}

// Segment maps a source range of one media file onto the timeline.
type Segment struct {
	ClipID   uuid.UUID `json:"clipId"`
	ClipName string    `json:"clipName"`
	MediaRef string    `json:"mediaRef"`
	InsertAt float64   `json:"insertAt"`
	Source   TimeRange `json:"source"`
	// Embedded marks audio carried by a video clip rather than placed as
	// an audio clip.
	Embedded bool `json:"embedded,omitempty"`
}

// Timeline is the range the segment occupies on the timeline.
func (s Segment) Timeline() TimeRange {
	return TimeRange{Start: s.InsertAt, Duration: s.Source.Duration}
}

// Channel is one destination track and its segments ordered by InsertAt.
type Channel struct {
	TrackID    uuid.UUID     `json:"trackId"`
	TrackName  string        `json:"trackName"`
	Kind       timeline.Kind `json:"kind"`
	TrackIndex int           `json:"trackIndex"`
	Segments   []Segment     `json:"segments"`
}

// Overlay is a title or sticker clip. Overlays carry no media.
type Overlay struct {
	ClipID    uuid.UUID     `json:"clipId"`
	TrackID   uuid.UUID     `json:"trackId"`
	Kind      timeline.Kind `json:"kind"`
	Name      string        `json:"name"`
	Timeline  TimeRange     `json:"timeline"`
	LayerHint int           `json:"layerHint"`
}

type SkipReason string

const (
	SkipNoMediaReference SkipReason = "no_media_reference"
	SkipProbeFailed      SkipReason = "probe_failed"
	SkipNoVideoStream    SkipReason = "no_video_stream"
	SkipNoAudioStream    SkipReason = "no_audio_stream"
	SkipMissingTrack     SkipReason = "missing_track"
	SkipEmptySource      SkipReason = "empty_source_range"
)

// Skipped records a clip left out of the plan.
type Skipped struct {
	ClipID   uuid.UUID  `json:"clipId"`
	ClipName string     `json:"clipName"`
	Reason   SkipReason `json:"reason"`
	Detail   string     `json:"detail,omitempty"`
}

// Plan is the resolved form of one sequence snapshot.
type Plan struct {
	SequenceID     uuid.UUID `json:"sequenceId"`
	Version        uint64    `json:"version"`
	FrameRate      int       `json:"frameRate"`
	Duration       float64   `json:"duration"`
	RenderSize     Size      `json:"renderSize"`
	EffectsEnabled bool      `json:"effectsEnabled"`
	Video          []Channel `json:"video"`
	Audio          []Channel `json:"audio"`
	Overlays       []Overlay `json:"overlays"`
	Skipped        []Skipped `json:"skipped"`

	seq timeline.Sequence
}

// Sequence returns the snapshot the plan was resolved from.
func (p *Plan) Sequence() timeline.Sequence {
	return p.seq
}

// SegmentCount counts segments over every channel.
func (p *Plan) SegmentCount() int {
	n := 0
	for _, ch := range p.Video {
		n += len(ch.Segments)
	}
	for _, ch := range p.Audio {
		n += len(ch.Segments)
	}
	return n
}

func (p *Plan) hasVideoSegments() bool {
	for _, ch := range p.Video {
		if len(ch.Segments) > 0 {
			return true
		}
	}
	return false
}

// EffectAt is the single filter applied to whatever is visible at t. It is
// unset when effect composition is disabled.
func (p *Plan) EffectAt(t float64) timeline.Filter {
	if !p.EffectsEnabled {
		return ""
	}
	return effects.FilterAt(p.seq, t)
}

// EffectParamsAt maps EffectAt through the effect table.
func (p *Plan) EffectParamsAt(t float64) effects.Params {
	return effects.ParamsFor(p.EffectAt(t))
}

// ClipStateAt evaluates a clip's keyframed opacity and transform at t.
func (p *Plan) ClipStateAt(clipID uuid.UUID, t float64) (effects.ClipState, bool) {
	c, ok := p.seq.Clip(clipID)
	if !ok {
		return effects.ClipState{}, false
	}
	return effects.StateAt(c, t), true
}

// EffectSpan is a maximal interval over which EffectAt is constant.
type EffectSpan struct {
	Start  float64         `json:"start"`
	End    float64         `json:"end"`
	Filter timeline.Filter `json:"filter,omitempty"`
}

// EffectSpans partitions [0, Duration) into intervals of constant effect.
// The active clip set only changes at clip boundaries, so evaluating at each
// interval's start is exact.
func (p *Plan) EffectSpans() []EffectSpan {
	cuts := []float64{0, p.Duration}
	for _, c := range p.seq.Clips {
		if c.Kind != timeline.KindVideo {
			continue
		}
		if c.StartTime > 0 && c.StartTime < p.Duration {
			cuts = append(cuts, c.StartTime)
		}
		if end := c.End(); end > 0 && end < p.Duration {
			cuts = append(cuts, end)
		}
	}
	slices.Sort(cuts)
	cuts = slices.Compact(cuts)

	var spans []EffectSpan
	for i := 0; i < len(cuts)-1; i++ {
		start, end := cuts[i], cuts[i+1]
		f := p.EffectAt(start)
		if n := len(spans); n > 0 && spans[n-1].Filter == f {
			spans[n-1].End = end
			continue
		}
		spans = append(spans, EffectSpan{Start: start, End: end, Filter: f})
	}
	return spans
}
