package api

import (
	"bytes"
	"errors"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/starford/draftsmith/internal/apperr"
	"github.com/starford/draftsmith/internal/storage"
)

// AssetHandler serves bundled static files (local KaTeX build) from a
// read-only provider.
type AssetHandler struct {
	store storage.Provider
}

// NewAssetHandler creates a handler over store.
func NewAssetHandler(store storage.Provider) *AssetHandler {
	return &AssetHandler{store: store}
}

// ServeFile handles GET /static/*.
func (h *AssetHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	if name == "" {
		http.NotFound(w, r)
		return
	}
	meta, err := h.store.Stat(name)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			http.NotFound(w, r)
		} else {
			http.Error(w, "invalid path", http.StatusBadRequest)
		}
		return
	}
	data, err := h.store.Read(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("ETag", `"`+meta.Checksum[:min(len(meta.Checksum), 32)]+`"`)
	http.ServeContent(w, r, path.Base(name), meta.UpdatedAt, bytes.NewReader(data))
}
