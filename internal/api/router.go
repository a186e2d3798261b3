// Package api exposes the renderer over HTTP using chi.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/draftsmith/internal/noteservice"
	"github.com/starford/draftsmith/internal/storage"
)

// Pinger reports whether the notes backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter creates a chi router with all routes mounted.
// backend, if non-nil, is pinged by /health/ready.
// events, if non-nil, is mounted at GET /api/events.
// assets, if non-nil, is served under /static/.
func NewRouter(svc *noteservice.Service, backend Pinger, events http.Handler, assets storage.Provider) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()

	// Health.
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if backend != nil {
			if err := backend.Ping(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/render", h.Render)
		r.Get("/notes/{id}/html", h.NoteHTML)
		r.Get("/search", h.Search)
		r.Get("/recent", h.Recent)
		if events != nil {
			r.Get("/events", events.ServeHTTP)
		}
	})

	// Page view.
	r.Get("/note/{id}", h.NotePage)

	if assets != nil {
		r.Get("/static/*", NewAssetHandler(assets).ServeFile)
	}

	return r
}
