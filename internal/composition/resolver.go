package composition

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/heimdex/clipforge/internal/logging"
	"github.com/heimdex/clipforge/internal/media"
	"github.com/heimdex/clipforge/internal/timeline"
)

const DefaultConcurrency = 4

// Resolver turns sequence snapshots into plans. It is safe for concurrent
// use; all state lives in the prober.
type Resolver struct {
	prober      media.Prober
	logger      *slog.Logger
	concurrency int
}

func NewResolver(prober media.Prober, logger *slog.Logger, concurrency int) *Resolver {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Resolver{
		prober:      prober,
		logger:      logging.WithComponent(logger, "resolver"),
		concurrency: concurrency,
	}
}

type probeResult struct {
	info *media.Info
	err  error
}

// Resolve builds the plan for seq. Unresolvable clips are skipped and
// listed in Plan.Skipped; the only error is ctx's.
func (r *Resolver) Resolve(ctx context.Context, seq timeline.Sequence) (*Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	seq = seq.Clone()

	probes, err := r.probeAll(ctx, seq)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		SequenceID: seq.ID,
		FrameRate:  seq.Timebase.FrameRate,
		Duration:   seq.Duration(),
		Video:      []Channel{},
		Audio:      []Channel{},
		Overlays:   []Overlay{},
		Skipped:    []Skipped{},
		seq:        seq,
	}

	channels := make(map[uuid.UUID]*Channel)
	for _, t := range seq.Tracks {
		ch := Channel{TrackID: t.ID, TrackName: t.DisplayName, Kind: t.Kind, TrackIndex: t.Index, Segments: []Segment{}}
		switch t.Kind {
		case timeline.KindVideo:
			plan.Video = append(plan.Video, ch)
		case timeline.KindAudio:
			plan.Audio = append(plan.Audio, ch)
		}
	}
	for i := range plan.Video {
		channels[plan.Video[i].TrackID] = &plan.Video[i]
	}
	for i := range plan.Audio {
		channels[plan.Audio[i].TrackID] = &plan.Audio[i]
	}
	var embeddedDst *Channel
	if len(plan.Audio) > 0 {
		embeddedDst = &plan.Audio[0]
	}

	var (
		renderSize Size
		sized      bool
	)
	skip := func(c timeline.Clip, reason SkipReason, detail string) {
		plan.Skipped = append(plan.Skipped, Skipped{ClipID: c.ID, ClipName: c.Name, Reason: reason, Detail: detail})
	}

	for _, kind := range timeline.Kinds {
		for _, c := range clipsOfKind(seq, kind) {
			if kind == timeline.KindTitle || kind == timeline.KindSticker {
				plan.Overlays = append(plan.Overlays, Overlay{
					ClipID:    c.ID,
					TrackID:   c.TrackID,
					Kind:      c.Kind,
					Name:      c.Name,
					Timeline:  TimeRange{Start: c.StartTime, Duration: c.Duration},
					LayerHint: c.LayerHint,
				})
				continue
			}

			if !c.HasMedia() {
				skip(c, SkipNoMediaReference, "")
				continue
			}
			res := probes[c.MediaRelativePath]
			if res.err != nil {
				skip(c, SkipProbeFailed, res.err.Error())
				continue
			}
			info := res.info

			seg := Segment{
				ClipID:   c.ID,
				ClipName: c.Name,
				MediaRef: c.MediaRelativePath,
				InsertAt: c.StartTime,
				Source:   TimeRange{Start: c.SourceStart, Duration: c.PlayableSourceDuration()},
			}

			switch kind {
			case timeline.KindVideo:
				if !info.HasVideo {
					skip(c, SkipNoVideoStream, "")
					continue
				}
				if !sized {
					w, h := info.DisplaySize()
					renderSize, sized = Size{Width: w, Height: h}, true
				}
				if seg.Source.Duration <= 0 {
					skip(c, SkipEmptySource, "")
					continue
				}
				dst, ok := channels[c.TrackID]
				if !ok || dst.Kind != timeline.KindVideo {
					skip(c, SkipMissingTrack, c.TrackID.String())
					continue
				}
				dst.Segments = append(dst.Segments, seg)
				if info.HasAudio && embeddedDst != nil {
					emb := seg
					emb.Embedded = true
					embeddedDst.Segments = append(embeddedDst.Segments, emb)
				}

			case timeline.KindAudio:
				if !info.HasAudio {
					skip(c, SkipNoAudioStream, "")
					continue
				}
				if seg.Source.Duration <= 0 {
					skip(c, SkipEmptySource, "")
					continue
				}
				dst, ok := channels[c.TrackID]
				if !ok || dst.Kind != timeline.KindAudio {
					skip(c, SkipMissingTrack, c.TrackID.String())
					continue
				}
				dst.Segments = append(dst.Segments, seg)
			}
		}
	}

	for i := range plan.Audio {
		slices.SortStableFunc(plan.Audio[i].Segments, byInsertAt)
	}

	plan.RenderSize = DefaultRenderSize
	if sized {
		plan.RenderSize = renderSize
	}
	plan.EffectsEnabled = plan.hasVideoSegments() && !plan.RenderSize.IsZero()

	r.logger.Debug("resolved sequence",
		"sequence_id", seq.ID.String(),
		"clips", len(seq.Clips),
		"segments", plan.SegmentCount(),
		"skipped", len(plan.Skipped),
		"render_width", plan.RenderSize.Width,
		"render_height", plan.RenderSize.Height,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return plan, nil
}

// probeAll resolves every distinct media reference of video and audio
// clips with bounded concurrency. Individual failures are recorded, not
// returned.
func (r *Resolver) probeAll(ctx context.Context, seq timeline.Sequence) (map[string]probeResult, error) {
	var refs []string
	seen := make(map[string]bool)
	for _, c := range seq.Clips {
		if c.Kind != timeline.KindVideo && c.Kind != timeline.KindAudio {
			continue
		}
		if !c.HasMedia() || seen[c.MediaRelativePath] {
			continue
		}
		seen[c.MediaRelativePath] = true
		refs = append(refs, c.MediaRelativePath)
	}

	var (
		mu      sync.Mutex
		results = make(map[string]probeResult, len(refs))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, ref := range refs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			info, err := r.prober.Probe(gctx, ref)
			if err != nil {
				r.logger.Warn("media probe failed", "ref", ref, "error", err)
			}
			mu.Lock()
			results[ref] = probeResult{info: info, err: err}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func clipsOfKind(seq timeline.Sequence, kind timeline.Kind) []timeline.Clip {
	var out []timeline.Clip
	for _, c := range seq.Clips {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b timeline.Clip) int {
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

func byInsertAt(a, b Segment) int {
	switch {
	case a.InsertAt < b.InsertAt:
		return -1
	case a.InsertAt > b.InsertAt:
		return 1
	}
	return 0
}
