package export

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/heimdex/clipforge/internal/composition"
	"github.com/heimdex/clipforge/internal/logging"
	"github.com/heimdex/clipforge/internal/metrics"
	"github.com/heimdex/clipforge/internal/timeline"
)

const defaultTitle = "clipforge_export"

// Event is one EDL line: a source range placed at a record range on a
// track.
type Event struct {
	Track     string
	ClipName  string
	MediaPath string
	SrcIn     float64
	SrcOut    float64
	RecIn     float64
	RecOut    float64
	Effect    timeline.Filter
}

// Events flattens a plan into EDL events, video channels first, each in
// track order. mediaDir, when set, is joined onto media references.
func Events(plan *composition.Plan, mediaDir string) []Event {
	var events []Event
	add := func(channels []composition.Channel, prefix string, video bool) {
		for i, ch := range channels {
			track := prefix
			if i > 0 {
				track = fmt.Sprintf("%s%d", prefix, i+1)
			}
			for _, seg := range ch.Segments {
				ev := Event{
					Track:     track,
					ClipName:  SanitizeName(seg.ClipName, 160),
					MediaPath: seg.MediaRef,
					SrcIn:     seg.Source.Start,
					SrcOut:    seg.Source.End(),
					RecIn:     seg.InsertAt,
					RecOut:    seg.InsertAt + seg.Source.Duration,
				}
				if mediaDir != "" {
					ev.MediaPath = filepath.Join(mediaDir, seg.MediaRef)
				}
				if ev.ClipName == "" {
					ev.ClipName = seg.ClipID.String()
				}
				if video {
					ev.Effect = plan.EffectAt(seg.InsertAt)
				}
				events = append(events, ev)
			}
		}
	}
	add(plan.Video, "V", true)
	add(plan.Audio, "A", false)
	return events
}

func GenerateEDL(events []Event, title string, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = timeline.DefaultFrameRate
	}

	isDropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	lines := []string{fmt.Sprintf("TITLE: %s", title)}
	if isDropFrame {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	for i, ev := range events {
		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", i+1, "AX", ev.Track,
				secondsToTimecode(ev.SrcIn, fps), secondsToTimecode(ev.SrcOut, fps),
				secondsToTimecode(ev.RecIn, fps), secondsToTimecode(ev.RecOut, fps)),
			fmt.Sprintf("* FROM CLIP NAME:  %s", ev.ClipName),
			fmt.Sprintf("* MEDIA PATH:  %s", ev.MediaPath),
		)
		if ev.Effect.IsSet() && ev.Effect != timeline.FilterNone {
			lines = append(lines, fmt.Sprintf("* EFFECT:  %s", ev.Effect.DisplayName()))
		}
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func secondsToTimecode(sec float64, fps int) string {
	return framesToTimecode(int(math.Round(sec*float64(fps))), fps)
}

func framesToTimecode(totalFrames int, fps int) string {
	totalFrames = max(totalFrames, 0)
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	seconds := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, seconds, frames)
}

// EDLBackend writes CMX3600-style edit decision lists.
type EDLBackend struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewEDLBackend(logger *slog.Logger, m *metrics.Metrics) *EDLBackend {
	return &EDLBackend{logger: logging.WithComponent(logger, "export"), metrics: m}
}

func (b *EDLBackend) Name() string { return "edl" }

func (b *EDLBackend) Export(ctx context.Context, plan *composition.Plan, opts Options) (res *Result, err error) {
	defer func() { b.metrics.Exported(b.Name(), err) }()

	if err := ctx.Err(); err != nil {
		return nil, &Error{Op: "prepare", Err: err}
	}
	if plan == nil || plan.SegmentCount() == 0 {
		return nil, &Error{Op: "prepare", Err: ErrEmptyPlan}
	}
	if opts.OutputDir != "" {
		if err := ValidateOutputDir(opts.OutputDir); err != nil {
			return nil, &Error{Op: "validate", Err: err}
		}
	}

	title := SanitizeName(opts.Title, 120)
	if title == "" {
		title = defaultTitle
	}
	frameRate := opts.FrameRate
	if frameRate <= 0 {
		frameRate = float64(plan.FrameRate)
	}

	events := Events(plan, opts.MediaDir)
	edl := GenerateEDL(events, title, frameRate)

	skipped := make([]string, 0, len(plan.Skipped))
	for _, s := range plan.Skipped {
		skipped = append(skipped, s.ClipName)
	}
	res = &Result{
		Status:       "ok",
		Format:       b.Name(),
		EventCount:   len(events),
		SkippedClips: skipped,
		Content:      []byte(edl),
	}

	if opts.OutputDir != "" {
		res.OutputPath = filepath.Join(opts.OutputDir, title+".edl")
		if err := os.WriteFile(res.OutputPath, res.Content, 0o644); err != nil {
			return nil, &Error{Op: "write", Err: err}
		}
	}

	b.logger.Info("edl exported",
		"events", res.EventCount,
		"skipped", len(skipped),
		"output", logging.SanitizePath(res.OutputPath),
	)
	return res, nil
}
