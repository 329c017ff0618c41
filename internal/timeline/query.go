package timeline

import (
	"math"

	"github.com/google/uuid"
)

// SnapThreshold is the largest distance, in seconds, a time may move when
// snapped.
const SnapThreshold = 0.12

// ActiveClips returns the clips whose half-open interval [start, end)
// contains t, in collection order.
func (s Sequence) ActiveClips(t float64) []Clip {
	var out []Clip
	for _, c := range s.Clips {
		if c.ActiveAt(t) {
			out = append(out, c)
		}
	}
	return out
}

// TopVideoClip returns the active video clip with the greatest layer hint.
// Clips sharing a layer are ordered by id and the greatest id wins, so the
// result does not depend on collection order.
func (s Sequence) TopVideoClip(t float64) (Clip, bool) {
	var (
		top   Clip
		found bool
	)
	for _, c := range s.Clips {
		if c.Kind != KindVideo || !c.ActiveAt(t) {
			continue
		}
		if !found || c.LayerHint > top.LayerHint ||
			(c.LayerHint == top.LayerHint && c.ID.String() > top.ID.String()) {
			top, found = c, true
		}
	}
	return top, found
}

// SnapCandidates lists snap targets for t in enumeration order: the nearest
// whole second, then the start and end of every clip except excluding.
func (s Sequence) SnapCandidates(t float64, excluding uuid.UUID) []float64 {
	out := make([]float64, 0, 1+2*len(s.Clips))
	out = append(out, math.Round(t))
	for _, c := range s.Clips {
		if c.ID == excluding {
			continue
		}
		out = append(out, c.StartTime, c.End())
	}
	return out
}

// Snap moves t to the closest candidate less than SnapThreshold away. On
// equal distance the earlier candidate wins. With no qualifying candidate t
// is returned unchanged.
func (s Sequence) Snap(t float64, excluding uuid.UUID) float64 {
	best, bestDist := t, SnapThreshold
	for _, c := range s.SnapCandidates(t, excluding) {
		if d := math.Abs(c - t); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
