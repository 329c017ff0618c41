package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/heimdex/clipforge/internal/composition"
)

var ErrEmptyPlan = errors.New("plan has no segments to export")

// Backend turns a resolved plan into an export artifact.
type Backend interface {
	Name() string
	Export(ctx context.Context, plan *composition.Plan, opts Options) (*Result, error)
}

type Options struct {
	Title string `json:"title"`
	// FrameRate overrides the plan's timebase, e.g. 29.97 for drop frame.
	FrameRate float64 `json:"frame_rate,omitempty"`
	// MediaDir turns media references into absolute paths.
	MediaDir string `json:"-"`
	// OutputDir, when set, receives <title>.<ext>.
	OutputDir string `json:"output_dir,omitempty"`
}

type Result struct {
	Status       string   `json:"status"`
	Format       string   `json:"format"`
	OutputPath   string   `json:"output_path,omitempty"`
	EventCount   int      `json:"event_count"`
	SkippedClips []string `json:"skipped_clips"`
	Content      []byte   `json:"-"`
}

// Error wraps a failure in one export step.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("export %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
