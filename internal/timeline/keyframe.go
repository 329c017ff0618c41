package timeline

import (
	"cmp"
	"slices"
)

// minKeyframeSpan guards the interpolation factor against coincident
// keyframe times.
const minKeyframeSpan = 0.0001

// Keyframe is a value pinned to a clip-local time in seconds.
type Keyframe[T any] struct {
	Time  float64 `json:"time"`
	Value T       `json:"value"`
}

// KeyframedDouble is a piecewise-linear scalar track.
type KeyframedDouble struct {
	Keyframes []Keyframe[float64] `json:"keyframes"`
}

// ValueAt evaluates the track at t. An empty track yields 0.
func (k KeyframedDouble) ValueAt(t float64) float64 {
	return evaluate(k.Keyframes, t, 0, func(a, b float64, f float64) float64 {
		return a + (b-a)*f
	})
}

func (k KeyframedDouble) Len() int { return len(k.Keyframes) }

func (k KeyframedDouble) Clone() KeyframedDouble {
	return KeyframedDouble{Keyframes: slices.Clone(k.Keyframes)}
}

// KeyframedTransform is a piecewise-linear affine transform track.
type KeyframedTransform struct {
	Keyframes []Keyframe[Transform] `json:"keyframes"`
}

// ValueAt evaluates the track at t. An empty track yields the identity.
func (k KeyframedTransform) ValueAt(t float64) Transform {
	return evaluate(k.Keyframes, t, Identity(), Lerp)
}

func (k KeyframedTransform) Len() int { return len(k.Keyframes) }

func (k KeyframedTransform) Clone() KeyframedTransform {
	return KeyframedTransform{Keyframes: slices.Clone(k.Keyframes)}
}

// evaluate implements the shared keyframe rule: zero keyframes give def,
// one gives a constant, otherwise the bracketing pair is blended and values
// outside the span clamp to the boundary keyframe. A query landing exactly
// on a keyframe returns that keyframe's value unblended.
func evaluate[T any](frames []Keyframe[T], t float64, def T, lerp func(a, b T, f float64) T) T {
	switch len(frames) {
	case 0:
		return def
	case 1:
		return frames[0].Value
	}

	sorted := frames
	if !slices.IsSortedFunc(frames, byTime[T]) {
		sorted = slices.Clone(frames)
		slices.SortStableFunc(sorted, byTime[T])
	}

	first, last := sorted[0], sorted[len(sorted)-1]
	if t <= first.Time {
		return first.Value
	}
	if t >= last.Time {
		return last.Value
	}
	for i := 0; i < len(sorted)-1; i++ {
		a, b := sorted[i], sorted[i+1]
		if t == a.Time {
			return a.Value
		}
		if t < b.Time {
			f := (t - a.Time) / max(minKeyframeSpan, b.Time-a.Time)
			return lerp(a.Value, b.Value, f)
		}
	}
	return last.Value
}

func byTime[T any](a, b Keyframe[T]) int {
	return cmp.Compare(a.Time, b.Time)
}
