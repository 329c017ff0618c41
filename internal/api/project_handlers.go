package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/heimdex/clipforge/internal/timeline"
)

func projectResponse(cfg ServerConfig) ProjectResponse {
	resp := ProjectResponse{
		Project: cfg.Session.Snapshot(),
		Version: cfg.Session.Version(),
		History: cfg.Session.History(),
	}
	if c, ok := cfg.Session.Selected(); ok {
		resp.Selected = &c.ID
	}
	return resp
}

func getProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, projectResponse(cfg))
	}
}

func renameProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req NameRequest
		if err := decode(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		if err := cfg.Session.Rename(req.Name); err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, projectResponse(cfg))
	}
}

// newProjectHandler persists the open project, then replaces it with a
// fresh one that is saved right away.
func newProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req NameRequest
		if err := decode(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		if err := cfg.Session.Flush(r.Context()); err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		cfg.Session.Replace(timeline.NewProject(req.Name, time.Now()))
		if err := cfg.Session.Flush(r.Context()); err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusCreated, projectResponse(cfg))
	}
}

func listProjectsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := cfg.Repository.ListProjects(r.Context())
		if err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, ProjectsResponse{Projects: projects})
	}
}

func openProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := cfg.Repository.GetProject(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		if p == nil {
			WriteError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
			return
		}
		if err := cfg.Session.Flush(r.Context()); err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		cfg.Session.Replace(*p)
		WriteJSON(w, http.StatusOK, projectResponse(cfg))
	}
}

func getSequenceHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seq, err := cfg.Session.Sequence()
		if err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, seq)
	}
}

func setGlobalFilterHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FilterRequest
		if err := decode(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		if err := cfg.Session.SetGlobalFilter(req.Filter); err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		getSequenceHandler(cfg)(w, r)
	}
}

func renameTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		var req NameRequest
		if err := decode(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		if err := cfg.Session.RenameTrack(id, req.Name); err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		getSequenceHandler(cfg)(w, r)
	}
}

func historyHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HistoryResponse{
			HistoryState: cfg.Session.History(),
			Version:      cfg.Session.Version(),
		})
	}
}

func undoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, err := cfg.Session.Undo()
		if err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, HistoryResponse{
			HistoryState: cfg.Session.History(),
			Name:         name,
			Version:      cfg.Session.Version(),
		})
	}
}

func redoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, err := cfg.Session.Redo()
		if err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, HistoryResponse{
			HistoryState: cfg.Session.History(),
			Name:         name,
			Version:      cfg.Session.Version(),
		})
	}
}
