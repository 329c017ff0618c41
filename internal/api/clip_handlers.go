package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/heimdex/clipforge/internal/commands"
	"github.com/heimdex/clipforge/internal/editor"
)

// writeClip answers with the clip's current state.
func writeClip(cfg ServerConfig, w http.ResponseWriter, status int, id uuid.UUID) {
	clip, ok := currentClip(cfg, id)
	if !ok {
		WriteError(w, http.StatusNotFound, commands.ErrClipNotFound.Error(), "NOT_FOUND")
		return
	}
	WriteJSON(w, status, ClipResponse{Clip: clip, Version: cfg.Session.Version()})
}

func addClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddClipRequest
		if err := decode(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		if req.Clip != nil {
			clip := *req.Clip
			if clip.ID == uuid.Nil {
				clip.ID = uuid.New()
			}
			if err := cfg.Session.AddClip(clip); err != nil {
				writeDomainError(w, cfg.Logger, err)
				return
			}
			writeClip(cfg, w, http.StatusCreated, clip.ID)
			return
		}

		asset, err := cfg.Repository.GetAsset(r.Context(), req.AssetID)
		if err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		if asset == nil {
			WriteError(w, http.StatusNotFound, "asset not found", "NOT_FOUND")
			return
		}
		clip, err := cfg.Session.AddToTimeline(asset.TimelineAsset(), req.Start)
		if err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		writeClip(cfg, w, http.StatusCreated, clip.ID)
	}
}

func getClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		writeClip(cfg, w, http.StatusOK, id)
	}
}

func deleteClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		if err := cfg.Session.DeleteClip(id); err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func setClipStartHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		var req StartRequest
		if err := decode(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		start := *req.Start
		if req.Snap {
			start = cfg.Session.Snap(start, id)
		}
		if err := cfg.Session.SetClipStart(id, start); err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		writeClip(cfg, w, http.StatusOK, id)
	}
}

func setClipDurationHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		var req DurationRequest
		if err := decode(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		if err := cfg.Session.SetClipDuration(id, *req.Duration); err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		writeClip(cfg, w, http.StatusOK, id)
	}
}

func splitClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		var req SplitRequest
		if err := decode(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		right, err := cfg.Session.SplitClip(id, *req.At)
		if err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusCreated, SplitResponse{LeftID: id, RightID: right, Version: cfg.Session.Version()})
	}
}

func setClipFilterHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		var req FilterRequest
		if err := decode(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		if err := cfg.Session.SetClipFilter(id, req.Filter); err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		writeClip(cfg, w, http.StatusOK, id)
	}
}

func moveClipToTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		var req TrackRequest
		if err := decode(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		if err := cfg.Session.MoveClipToTrack(id, req.TrackID); err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		writeClip(cfg, w, http.StatusOK, id)
	}
}

func selectClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		if err := cfg.Session.Select(id); err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		writeClip(cfg, w, http.StatusOK, id)
	}
}

func selectionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clip, ok := cfg.Session.Selected()
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		WriteJSON(w, http.StatusOK, ClipResponse{Clip: clip, Version: cfg.Session.Version()})
	}
}

func beginDragHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		if err := cfg.Session.BeginMove(id); err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		writeDrag(cfg, w, id, false)
	}
}

func previewDragHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, dragging := cfg.Session.Dragging()
		if !dragging {
			writeDomainError(w, cfg.Logger, editor.ErrNoDrag)
			return
		}
		var req StartRequest
		if err := decode(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		start := *req.Start
		if req.Snap {
			start = cfg.Session.Snap(start, id)
		}
		if err := cfg.Session.PreviewMove(start); err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		writeDrag(cfg, w, id, false)
	}
}

func commitDragHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := cfg.Session.Dragging()
		recorded, err := cfg.Session.CommitMove()
		if err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		writeDrag(cfg, w, id, recorded)
	}
}

func cancelDragHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := cfg.Session.Dragging()
		if err := cfg.Session.CancelMove(); err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		writeDrag(cfg, w, id, false)
	}
}

func writeDrag(cfg ServerConfig, w http.ResponseWriter, id uuid.UUID, recorded bool) {
	clip, _ := currentClip(cfg, id)
	WriteJSON(w, http.StatusOK, DragResponse{
		ClipID:   id,
		Start:    clip.StartTime,
		Recorded: recorded,
		Version:  cfg.Session.Version(),
	})
}
