// Package media resolves opaque media references to stream metadata and
// manages the local media library that clips point into.
package media

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrNoMediaReference = errors.New("clip has no media reference")
	ErrInvalidReference = errors.New("invalid media reference")
	ErrNotFound         = errors.New("media not found")
	ErrUnsupportedMedia = errors.New("unsupported media type")
)

// Info is what the editor needs to know about a piece of media.
type Info struct {
	DurationSeconds    float64 `json:"duration_seconds"`
	NativeWidth        uint32  `json:"native_width"`
	NativeHeight       uint32  `json:"native_height"`
	OrientationRotated bool    `json:"orientation_rotated"`
	HasVideo           bool    `json:"has_video"`
	HasAudio           bool    `json:"has_audio"`
}

// DisplaySize is the native size corrected for a 90 or 270 degree
// rotation.
func (i Info) DisplaySize() (width, height uint32) {
	if i.OrientationRotated {
		return i.NativeHeight, i.NativeWidth
	}
	return i.NativeWidth, i.NativeHeight
}

// Prober resolves a media reference. Implementations must be safe for
// concurrent use.
type Prober interface {
	Probe(ctx context.Context, ref string) (*Info, error)
}

// ProbeError reports a failed probe for one reference.
type ProbeError struct {
	Ref string
	Err error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s: %v", e.Ref, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// ResolvePath joins ref onto dir, refusing references that would escape
// it.
func ResolvePath(dir, ref string) (string, error) {
	if ref == "" {
		return "", ErrNoMediaReference
	}
	if filepath.IsAbs(ref) {
		return "", fmt.Errorf("%w: %q is absolute", ErrInvalidReference, ref)
	}
	clean := filepath.Clean(ref)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q escapes the media directory", ErrInvalidReference, ref)
	}
	return filepath.Join(dir, clean), nil
}

var videoExtensions = map[string]bool{
	".mp4": true,
	".mov": true,
	".m4v": true,
	".mkv": true,
}

var audioExtensions = map[string]bool{
	".m4a":  true,
	".aac":  true,
	".mp3":  true,
	".wav":  true,
	".aif":  true,
	".aiff": true,
}

// IsVideoFile reports whether filename has an importable video extension.
func IsVideoFile(filename string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(filename))]
}

// IsMediaFile reports whether filename is video or audio media a clip can
// reference.
func IsMediaFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return videoExtensions[ext] || audioExtensions[ext]
}
