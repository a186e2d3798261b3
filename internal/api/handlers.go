package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/starford/draftsmith/internal/apperr"
	"github.com/starford/draftsmith/internal/noteservice"
	"github.com/starford/draftsmith/internal/render"
)

const (
	defaultRecentLimit = 10
	maxListLimit       = 100
	maxBodyBytes       = 10 << 20
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// noteID parses the {id} URL parameter.
func noteID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("%w: %q", apperr.ErrInvalidID, raw)
	}
	return id, nil
}

// queryOptions overlays boolean query flags (dark, editable, local_math,
// wrap) onto the configured render options.
func queryOptions(r *http.Request, base render.RenderOptions) render.RenderOptions {
	q := r.URL.Query()
	flag := func(name string, dst *bool) {
		if v, err := strconv.ParseBool(q.Get(name)); err == nil {
			*dst = v
		}
	}
	flag("dark", &base.DarkMode)
	flag("editable", &base.ContentEditable)
	flag("local_math", &base.UseLocalMathAssets)
	flag("wrap", &base.WrapTransclusions)
	return base
}

func limitParam(r *http.Request, def int) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return def
	}
	return min(limit, maxListLimit)
}

// lookupStatus maps a note lookup error to an HTTP status and public message.
func lookupStatus(err error) (int, string) {
	switch {
	case errors.Is(err, apperr.ErrInvalidID):
		return http.StatusBadRequest, "invalid note id"
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, apperr.ErrBackendUnavailable):
		return http.StatusBadGateway, "backend unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeLookupError(w http.ResponseWriter, msg string, err error) {
	status, public := lookupStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error(msg, slog.String("error", err.Error()))
	}
	writeJSON(w, status, errorBody(public))
}

// Render handles POST /api/render.
//
//	@Summary		Render Markdown to HTML
//	@Tags			render
//	@Accept			json
//	@Produce		json,html
//	@Param			body	body		RenderRequest	true	"Markdown and options"
//	@Success		200		{object}	RenderResponse
//	@Failure		400		{object}	errResponse
//	@Router			/render [post]
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req RenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	opts := req.Options.apply(h.svc.Defaults())
	out, err := h.svc.RenderMarkdown(r.Context(), req.Markdown, opts, req.Full)
	if err != nil {
		slog.Error("render failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if req.Full {
		writeHTML(w, http.StatusOK, out)
		return
	}
	writeJSON(w, http.StatusOK, RenderResponse{HTML: out})
}

// NoteHTML handles GET /api/notes/{id}/html.
//
//	@Summary		Render a stored note as an HTML fragment
//	@Tags			render
//	@Produce		json
//	@Param			id	path		int	true	"Note id"
//	@Success		200	{object}	RenderedNoteResponse
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Failure		502	{object}	errResponse
//	@Router			/notes/{id}/html [get]
func (h *Handler) NoteHTML(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		writeLookupError(w, "render note failed", err)
		return
	}
	note, err := h.svc.RenderNote(r.Context(), id, queryOptions(r, h.svc.Defaults()), false)
	if err != nil {
		writeLookupError(w, "render note failed", err)
		return
	}
	w.Header().Set("ETag", note.ETag)
	writeJSON(w, http.StatusOK, RenderedNoteResponse{ID: note.ID, Title: note.Title, HTML: note.HTML})
}

// NotePage handles GET /note/{id}, the standalone page view of a note.
// Responses carry an ETag of the rendered page and honour If-None-Match.
func (h *Handler) NotePage(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		status, msg := lookupStatus(err)
		http.Error(w, msg, status)
		return
	}
	note, err := h.svc.RenderNote(r.Context(), id, queryOptions(r, h.svc.Defaults()), true)
	if err != nil {
		status, msg := lookupStatus(err)
		if status >= http.StatusInternalServerError {
			slog.Error("render page failed", slog.Int64("id", id), slog.String("error", err.Error()))
		}
		http.Error(w, msg, status)
		return
	}

	w.Header().Set("ETag", note.ETag)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == note.ETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeHTML(w, http.StatusOK, note.HTML)
}

// Search handles GET /api/search.
//
//	@Summary		Search notes
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	hits, err := h.svc.Search(r.Context(), q, limitParam(r, maxListLimit))
	if err != nil {
		writeLookupError(w, "search failed", err)
		return
	}
	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, SearchResult{ID: hit.ID, Title: hit.Title, Snippet: hit.Snippet})
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Recent handles GET /api/recent.
//
//	@Summary		List recently modified notes
//	@Tags			notes
//	@Produce		json
//	@Param			limit	query		int	false	"Max results"
//	@Success		200		{object}	RecentResponse
//	@Router			/recent [get]
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.Recent(r.Context(), limitParam(r, defaultRecentLimit))
	if err != nil {
		writeLookupError(w, "recent notes failed", err)
		return
	}
	out := make([]RecentNote, 0, len(notes))
	for _, n := range notes {
		item := RecentNote{ID: n.ID, Title: n.Title}
		if !n.ModifiedAt.IsZero() {
			item.ModifiedAt = n.ModifiedAt.UTC().Format(time.RFC3339)
		}
		out = append(out, item)
	}
	writeJSON(w, http.StatusOK, RecentResponse{Notes: out})
}
