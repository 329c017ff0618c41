package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/heimdex/clipforge/internal/templates"
)

func listTemplatesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		packs := cfg.Templates.Packs()
		if packs == nil {
			packs = []templates.Pack{}
		}
		WriteJSON(w, http.StatusOK, TemplatesResponse{Packs: packs})
	}
}

func placeTemplateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tmpl, err := cfg.Templates.Find(chi.URLParam(r, "templateID"))
		if err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		var req PlaceTemplateRequest
		if err := decode(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		clip, err := cfg.Session.AddTemplate(tmpl, req.Start)
		if err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		writeClip(cfg, w, http.StatusCreated, clip.ID)
	}
}
