package api

import (
	"net/http"
	"os"

	"github.com/google/uuid"

	"github.com/heimdex/clipforge/internal/commands"
	"github.com/heimdex/clipforge/internal/composition"
	"github.com/heimdex/clipforge/internal/export"
)

func planHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, err := cfg.Session.Plan(r.Context())
		if err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, plan)
	}
}

func effectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := floatQuery(w, r, "t")
		if !ok {
			return
		}
		plan, err := cfg.Session.Plan(r.Context())
		if err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, EffectResponse{
			Time:   t,
			Filter: plan.EffectAt(t),
			Params: plan.EffectParamsAt(t),
		})
	}
}

func effectSpansHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, err := cfg.Session.Plan(r.Context())
		if err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		spans := plan.EffectSpans()
		if spans == nil {
			spans = []composition.EffectSpan{}
		}
		WriteJSON(w, http.StatusOK, EffectSpansResponse{Spans: spans})
	}
}

func clipStateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		t, ok := floatQuery(w, r, "t")
		if !ok {
			return
		}
		plan, err := cfg.Session.Plan(r.Context())
		if err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		state, found := plan.ClipStateAt(id, t)
		if !found {
			writeDomainError(w, cfg.Logger, commands.ErrClipNotFound)
			return
		}
		WriteJSON(w, http.StatusOK, ClipStateResponse{ClipID: id, Time: t, State: state})
	}
}

// snapHandler snaps ?t= to the nearest clip edge, ignoring ?exclude= when
// given.
func snapHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := floatQuery(w, r, "t")
		if !ok {
			return
		}
		exclude := uuid.Nil
		if raw := r.URL.Query().Get("exclude"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				WriteError(w, http.StatusBadRequest, "invalid exclude id", "BAD_REQUEST")
				return
			}
			exclude = id
		}
		WriteJSON(w, http.StatusOK, SnapResponse{Time: t, Snapped: cfg.Session.Snap(t, exclude)})
	}
}

func exportEDLHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ExportRequest
		if r.ContentLength != 0 {
			if err := decode(r, &req); err != nil {
				WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
				return
			}
		}

		plan, err := cfg.Session.Plan(r.Context())
		if err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		if err := os.MkdirAll(cfg.ExportsDir, 0755); err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}

		title := req.Title
		if title == "" {
			title = cfg.Session.Snapshot().Name
		}
		res, err := cfg.Exporter.Export(r.Context(), plan, export.Options{
			Title:     title,
			FrameRate: req.FrameRate,
			MediaDir:  cfg.MediaDir,
			OutputDir: cfg.ExportsDir,
		})
		if err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, res)
	}
}
