package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func listMediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assets, err := cfg.Repository.ListAssets(r.Context())
		if err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		resp := AssetsResponse{Assets: make([]AssetResponse, 0, len(assets))}
		for _, a := range assets {
			resp.Assets = append(resp.Assets, AssetToResponse(a))
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

// importMediaHandler copies a local file into the library. Importing the
// same bytes twice returns the existing asset.
func importMediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ImportRequest
		if err := decode(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		asset, err := cfg.Library.Import(r.Context(), req.Path)
		if err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusCreated, AssetToResponse(asset))
	}
}

func mediaFileHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		asset, err := cfg.Repository.GetAsset(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		if asset == nil {
			WriteError(w, http.StatusNotFound, "asset not found", "NOT_FOUND")
			return
		}
		if err := cfg.Playback.ServeMedia(w, r, asset.RelativePath); err != nil {
			cfg.Logger.Warn("playback failed", "asset_id", asset.ID, "error", err)
		}
	}
}
