package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/heimdex/clipforge/internal/logging"
	"github.com/heimdex/clipforge/internal/timeline"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	cfg.Logger = logging.WithComponent(cfg.Logger, "api")
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(LoopbackOnly())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSAllowlist())

	r.Get("/health", healthHandler(cfg))
	r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/project", getProjectHandler(cfg))
		r.Put("/project/name", renameProjectHandler(cfg))
		r.Post("/project/new", newProjectHandler(cfg))
		r.Get("/projects", listProjectsHandler(cfg))
		r.Post("/projects/{id}/open", openProjectHandler(cfg))

		r.Get("/sequence", getSequenceHandler(cfg))
		r.Put("/sequence/filter", setGlobalFilterHandler(cfg))
		r.Put("/tracks/{id}/name", renameTrackHandler(cfg))

		r.Post("/clips", addClipHandler(cfg))
		r.Route("/clips/{id}", func(r chi.Router) {
			r.Get("/", getClipHandler(cfg))
			r.Delete("/", deleteClipHandler(cfg))
			r.Put("/start", setClipStartHandler(cfg))
			r.Put("/duration", setClipDurationHandler(cfg))
			r.Post("/split", splitClipHandler(cfg))
			r.Put("/filter", setClipFilterHandler(cfg))
			r.Put("/track", moveClipToTrackHandler(cfg))
			r.Post("/select", selectClipHandler(cfg))
			r.Post("/drag", beginDragHandler(cfg))
			r.Get("/state", clipStateHandler(cfg))
		})
		r.Get("/selection", selectionHandler(cfg))

		r.Put("/drag", previewDragHandler(cfg))
		r.Post("/drag/commit", commitDragHandler(cfg))
		r.Delete("/drag", cancelDragHandler(cfg))

		r.Get("/history", historyHandler(cfg))
		r.Post("/undo", undoHandler(cfg))
		r.Post("/redo", redoHandler(cfg))
		r.Get("/snap", snapHandler(cfg))

		r.Get("/plan", planHandler(cfg))
		r.Get("/plan/effect", effectHandler(cfg))
		r.Get("/plan/spans", effectSpansHandler(cfg))
		r.Post("/export/edl", exportEDLHandler(cfg))

		r.Get("/templates", listTemplatesHandler(cfg))
		r.Post("/templates/{templateID}/clips", placeTemplateHandler(cfg))

		r.Get("/media", listMediaHandler(cfg))
		r.Post("/media/import", importMediaHandler(cfg))
		r.Get("/media/{id}/file", mediaFileHandler(cfg))
		r.Head("/media/{id}/file", mediaFileHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: uptime,
		})
	}
}

// idParam parses the {id} URL parameter, writing a 400 on failure.
func idParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid id", "BAD_REQUEST")
		return uuid.Nil, false
	}
	return id, true
}

// floatQuery parses a required float query parameter.
func floatQuery(w http.ResponseWriter, r *http.Request, name string) (float64, bool) {
	v, err := strconv.ParseFloat(r.URL.Query().Get(name), 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, name+" must be a number", "BAD_REQUEST")
		return 0, false
	}
	return v, true
}

func currentClip(cfg ServerConfig, id uuid.UUID) (timeline.Clip, bool) {
	seq, err := cfg.Session.Sequence()
	if err != nil {
		return timeline.Clip{}, false
	}
	return seq.Clip(id)
}
