package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/heimdex/clipforge/internal/logging"
)

const (
	DefaultFFprobePath  = "ffprobe"
	DefaultProbeTimeout = 15 * time.Second

	maxStderrBytes = 8 * 1024
)

// FFprobe probes media files under MediaDir with the ffprobe binary.
type FFprobe struct {
	Path     string
	MediaDir string
	Timeout  time.Duration
	Logger   *slog.Logger
}

func NewFFprobe(path, mediaDir string, timeout time.Duration, logger *slog.Logger) *FFprobe {
	if path == "" {
		path = DefaultFFprobePath
	}
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &FFprobe{
		Path:     path,
		MediaDir: mediaDir,
		Timeout:  timeout,
		Logger:   logging.WithComponent(logger, "ffprobe"),
	}
}

// Available reports whether the ffprobe binary can be found.
func (f *FFprobe) Available() bool {
	_, err := exec.LookPath(f.Path)
	return err == nil
}

func (f *FFprobe) Probe(ctx context.Context, ref string) (*Info, error) {
	path, err := ResolvePath(f.MediaDir, ref)
	if err != nil {
		return nil, &ProbeError{Ref: ref, Err: err}
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ProbeError{Ref: ref, Err: ErrNotFound}
		}
		return nil, &ProbeError{Ref: ref, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, f.Path,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &tailWriter{w: &stderr, limit: maxStderrBytes}

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		f.Logger.Warn("ffprobe failed",
			"ref", ref,
			"exit_code", exitCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"stderr_tail", truncate(stderr.String(), 512),
		)
		if ctx.Err() != nil {
			return nil, &ProbeError{Ref: ref, Err: ctx.Err()}
		}
		return nil, &ProbeError{Ref: ref, Err: fmt.Errorf("ffprobe exited %d: %w", exitCode, err)}
	}

	info, err := ParseFFprobeOutput(stdout.Bytes())
	if err != nil {
		return nil, &ProbeError{Ref: ref, Err: err}
	}

	f.Logger.Debug("probed media",
		"ref", ref,
		"duration", info.DurationSeconds,
		"width", info.NativeWidth,
		"height", info.NativeHeight,
		"rotated", info.OrientationRotated,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return info, nil
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
	Format  struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

type ffprobeStream struct {
	CodecType    string            `json:"codec_type"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	Duration     string            `json:"duration"`
	Tags         map[string]string `json:"tags"`
	SideDataList []struct {
		Rotation float64 `json:"rotation"`
	} `json:"side_data_list"`
}

// ParseFFprobeOutput turns `ffprobe -print_format json -show_format
// -show_streams` output into an Info. The first video stream supplies the
// native size and rotation.
func ParseFFprobeOutput(data []byte) (*Info, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("cannot parse ffprobe JSON: %w", err)
	}

	info := &Info{}
	var streamDuration float64
	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if info.HasVideo {
				continue
			}
			info.HasVideo = true
			info.NativeWidth = uint32(max(s.Width, 0))
			info.NativeHeight = uint32(max(s.Height, 0))
			info.OrientationRotated = isQuarterTurn(streamRotation(s))
			streamDuration = max(streamDuration, parseSeconds(s.Duration))
		case "audio":
			info.HasAudio = true
			streamDuration = max(streamDuration, parseSeconds(s.Duration))
		}
	}
	if !info.HasVideo && !info.HasAudio {
		return nil, ErrUnsupportedMedia
	}

	info.DurationSeconds = parseSeconds(out.Format.Duration)
	if info.DurationSeconds <= 0 {
		info.DurationSeconds = streamDuration
	}
	return info, nil
}

func streamRotation(s ffprobeStream) float64 {
	for _, sd := range s.SideDataList {
		if sd.Rotation != 0 {
			return sd.Rotation
		}
	}
	if r, ok := s.Tags["rotate"]; ok {
		if v, err := strconv.ParseFloat(r, 64); err == nil {
			return v
		}
	}
	return 0
}

func isQuarterTurn(deg float64) bool {
	d := math.Mod(math.Abs(math.Round(deg)), 360)
	return d == 90 || d == 270
}

func parseSeconds(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// tailWriter keeps only the last limit bytes written to it.
type tailWriter struct {
	w     *bytes.Buffer
	limit int
}

func (tw *tailWriter) Write(p []byte) (int, error) {
	n := len(p)
	tw.w.Write(p)
	if tw.w.Len() > tw.limit {
		b := tw.w.Bytes()
		tail := append([]byte(nil), b[len(b)-tw.limit:]...)
		tw.w.Reset()
		tw.w.Write(tail)
	}
	return n, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
}
