package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/heimdex/clipforge/internal/composition"
	"github.com/heimdex/clipforge/internal/editor"
	"github.com/heimdex/clipforge/internal/effects"
	"github.com/heimdex/clipforge/internal/store"
	"github.com/heimdex/clipforge/internal/templates"
	"github.com/heimdex/clipforge/internal/timeline"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type ProjectResponse struct {
	Project  timeline.Project    `json:"project"`
	Version  uint64              `json:"version"`
	History  editor.HistoryState `json:"history"`
	Selected *uuid.UUID          `json:"selected,omitempty"`
}

type ProjectsResponse struct {
	Projects []*store.ProjectSummary `json:"projects"`
}

type NameRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type AddClipRequest struct {
	AssetID string         `json:"asset_id" validate:"required_without=Clip"`
	Start   float64        `json:"start" validate:"gte=0"`
	Clip    *timeline.Clip `json:"clip,omitempty"`
}

type ClipResponse struct {
	Clip    timeline.Clip `json:"clip"`
	Version uint64        `json:"version"`
}

type StartRequest struct {
	Start *float64 `json:"start" validate:"required,gte=0"`
	Snap  bool     `json:"snap"`
}

type DurationRequest struct {
	Duration *float64 `json:"duration" validate:"required,gt=0"`
}

type SplitRequest struct {
	At *float64 `json:"at" validate:"required,gte=0"`
}

type SplitResponse struct {
	LeftID  uuid.UUID `json:"left_id"`
	RightID uuid.UUID `json:"right_id"`
	Version uint64    `json:"version"`
}

type FilterRequest struct {
	Filter timeline.Filter `json:"filter"`
}

type TrackRequest struct {
	TrackID uuid.UUID `json:"track_id" validate:"required"`
}

type HistoryResponse struct {
	editor.HistoryState
	Name    string `json:"name,omitempty"`
	Version uint64 `json:"version"`
}

type DragResponse struct {
	ClipID   uuid.UUID `json:"clip_id"`
	Start    float64   `json:"start"`
	Recorded bool      `json:"recorded"`
	Version  uint64    `json:"version"`
}

type SnapResponse struct {
	Time    float64 `json:"time"`
	Snapped float64 `json:"snapped"`
}

type EffectResponse struct {
	Time   float64         `json:"time"`
	Filter timeline.Filter `json:"filter"`
	Params effects.Params  `json:"params"`
}

type EffectSpansResponse struct {
	Spans []composition.EffectSpan `json:"spans"`
}

type ClipStateResponse struct {
	ClipID uuid.UUID         `json:"clip_id"`
	Time   float64           `json:"time"`
	State  effects.ClipState `json:"state"`
}

type ImportRequest struct {
	Path string `json:"path" validate:"required"`
}

type AssetResponse struct {
	ID              string  `json:"id"`
	DisplayName     string  `json:"display_name"`
	RelativePath    string  `json:"relative_path"`
	Size            int64   `json:"size"`
	DurationSeconds float64 `json:"duration_seconds"`
	Width           uint32  `json:"width"`
	Height          uint32  `json:"height"`
	HasAudio        bool    `json:"has_audio"`
	CreatedAt       string  `json:"created_at"`
}

type AssetsResponse struct {
	Assets []AssetResponse `json:"assets"`
}

type TemplatesResponse struct {
	Packs []templates.Pack `json:"packs"`
}

type PlaceTemplateRequest struct {
	Start float64 `json:"start" validate:"gte=0"`
}

type ExportRequest struct {
	Title     string  `json:"title" validate:"max=120"`
	FrameRate float64 `json:"frame_rate" validate:"gte=0,lte=240"`
}

func AssetToResponse(a *store.Asset) AssetResponse {
	return AssetResponse{
		ID:              a.ID,
		DisplayName:     a.DisplayName,
		RelativePath:    a.RelativePath,
		Size:            a.Size,
		DurationSeconds: a.DurationSeconds,
		Width:           a.Width,
		Height:          a.Height,
		HasAudio:        a.HasAudio,
		CreatedAt:       a.CreatedAt.Format(time.RFC3339),
	}
}
