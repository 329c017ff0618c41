// Package effects maps named filters to renderer-neutral effect parameters
// and evaluates a clip's keyframed visual state at a timeline time.
package effects

import "github.com/heimdex/clipforge/internal/timeline"

// Effect identifies the image operation a renderer should run.
type Effect string

const (
	EffectIdentity      Effect = "identity"
	EffectPhotoNoir     Effect = "photo_noir"
	EffectPhotoChrome   Effect = "photo_chrome"
	EffectPhotoInstant  Effect = "photo_instant"
	EffectPhotoMono     Effect = "photo_mono"
	EffectSepiaTone     Effect = "sepia_tone"
	EffectBloom         Effect = "bloom"
	EffectColorControls Effect = "color_controls"
)

// Params is the effect a filter expands to. Only the fields meaningful to
// Effect are set.
type Params struct {
	Filter     timeline.Filter `json:"filter"`
	Effect     Effect          `json:"effect"`
	Intensity  float64         `json:"intensity,omitempty"`
	Radius     float64         `json:"radius,omitempty"`
	Saturation float64         `json:"saturation,omitempty"`
	Contrast   float64         `json:"contrast,omitempty"`
	Brightness float64         `json:"brightness,omitempty"`
}

// Identity reports whether the parameters leave the image unchanged.
func (p Params) Identity() bool {
	return p.Effect == EffectIdentity
}

// ParamsFor maps a filter to its effect parameters. FilterNone, the unset
// filter and any unknown value map to the identity.
func ParamsFor(f timeline.Filter) Params {
	switch f {
	case timeline.FilterNoir:
		return Params{Filter: f, Effect: EffectPhotoNoir}
	case timeline.FilterChrome:
		return Params{Filter: f, Effect: EffectPhotoChrome}
	case timeline.FilterInstant:
		return Params{Filter: f, Effect: EffectPhotoInstant}
	case timeline.FilterMono:
		return Params{Filter: f, Effect: EffectPhotoMono}
	case timeline.FilterSepia:
		return Params{Filter: f, Effect: EffectSepiaTone, Intensity: 0.9}
	case timeline.FilterBloom:
		return Params{Filter: f, Effect: EffectBloom, Intensity: 0.7, Radius: 8}
	case timeline.FilterVivid:
		return Params{Filter: f, Effect: EffectColorControls, Saturation: 1.35, Contrast: 1.12, Brightness: 0.02}
	default:
		return Params{Filter: f, Effect: EffectIdentity}
	}
}

// ClipFilter returns the filter that applies to clip: its own primary
// filter, or the sequence's global filter when it has none.
func ClipFilter(seq timeline.Sequence, clip timeline.Clip) timeline.Filter {
	if clip.PrimaryFilter.IsSet() {
		return clip.PrimaryFilter
	}
	return seq.GlobalFilter
}

// FilterAt is the single filter applied to whatever is visible at t: the
// topmost video clip's filter, falling back to the global filter.
func FilterAt(seq timeline.Sequence, t float64) timeline.Filter {
	if top, ok := seq.TopVideoClip(t); ok {
		return ClipFilter(seq, top)
	}
	return seq.GlobalFilter
}

// ClipState is the visual state of a clip at one instant.
type ClipState struct {
	Opacity   float64            `json:"opacity"`
	Transform timeline.Transform `json:"transform"`
}

// StateAt evaluates clip at timeline time t. Keyframe tracks take
// precedence over the static values; keyframe times are relative to the
// clip's start.
func StateAt(clip timeline.Clip, t float64) ClipState {
	local := t - clip.StartTime
	st := ClipState{Opacity: clip.Opacity, Transform: clip.Transform}
	if k := clip.OpacityKeyframes; k != nil && k.Len() > 0 {
		st.Opacity = k.ValueAt(local)
	}
	if k := clip.TransformKeyframes; k != nil && k.Len() > 0 {
		st.Transform = k.ValueAt(local)
	}
	return st
}
