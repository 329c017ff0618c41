package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/heimdex/clipforge/internal/timeline"
)

// Asset is an imported media file living in the media directory.
type Asset struct {
	ID              string    `json:"id"`
	DisplayName     string    `json:"display_name"`
	RelativePath    string    `json:"relative_path"`
	OriginalPath    string    `json:"original_path,omitempty"`
	Size            int64     `json:"size"`
	DurationSeconds float64   `json:"duration_seconds"`
	Width           uint32    `json:"width"`
	Height          uint32    `json:"height"`
	Rotated         bool      `json:"rotated"`
	HasAudio        bool      `json:"has_audio"`
	Fingerprint     string    `json:"fingerprint"`
	CreatedAt       time.Time `json:"created_at"`
}

// TimelineAsset converts the asset into the shape clip factories take.
func (a *Asset) TimelineAsset() timeline.MediaAsset {
	id, _ := uuid.Parse(a.ID)
	return timeline.MediaAsset{
		ID:           id,
		DisplayName:  a.DisplayName,
		RelativePath: a.RelativePath,
		Duration:     a.DurationSeconds,
	}
}

// ProjectSummary is a project listing row without the document.
type ProjectSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const ConfigKeyAuthToken = "auth_token"
