package noteservice

import (
	"context"
	"errors"
	"log/slog"

	"github.com/starford/draftsmith/internal/apperr"
	"github.com/starford/draftsmith/internal/index"
	"github.com/starford/draftsmith/internal/models"
)

// Backend is the subset of the backend client the service needs.
type Backend interface {
	GetNote(ctx context.Context, id int64) (*models.Note, error)
	SearchNotes(ctx context.Context, query string) ([]models.NoteSummary, error)
	RecentNotes(ctx context.Context, limit int) ([]models.NoteSummary, error)
}

// Repository resolves notes for rendering. The backend is authoritative;
// every successful fetch is written through to the mirror, and the mirror
// answers only while the backend is unavailable. A note the backend reports
// missing is never served from the mirror.
type Repository struct {
	backend Backend
	mirror  index.NoteIndex
	logger  *slog.Logger
}

// NewRepository creates a repository. mirror may be nil.
func NewRepository(backend Backend, mirror index.NoteIndex, logger *slog.Logger) *Repository {
	return &Repository{backend: backend, mirror: mirror, logger: logger}
}

// FetchNote implements render.NoteRepository.
func (r *Repository) FetchNote(ctx context.Context, id int64) (*models.Note, error) {
	n, err := r.backend.GetNote(ctx, id)
	if err == nil {
		r.remember(ctx, *n)
		return n, nil
	}
	if r.mirror == nil || !errors.Is(err, apperr.ErrBackendUnavailable) {
		return nil, err
	}

	cached, mErr := r.mirror.GetNote(ctx, id)
	if mErr != nil {
		return nil, err
	}
	r.logger.Debug("note served from mirror", slog.Int64("id", id), slog.String("cause", err.Error()))
	return cached, nil
}

func (r *Repository) remember(ctx context.Context, n models.Note) {
	if r.mirror == nil {
		return
	}
	if _, err := r.mirror.UpsertNote(ctx, n); err != nil {
		r.logger.Warn("mirror write failed", slog.Int64("id", n.ID), slog.String("error", err.Error()))
	}
}

// Search queries the backend, falling back to the mirror when it is down.
func (r *Repository) Search(ctx context.Context, query string, limit int) ([]index.SearchResult, error) {
	hits, err := r.backend.SearchNotes(ctx, query)
	if err == nil {
		out := make([]index.SearchResult, 0, len(hits))
		for _, h := range hits {
			out = append(out, index.SearchResult{ID: h.ID, Title: h.Title})
		}
		if limit > 0 && len(out) > limit {
			out = out[:limit]
		}
		return out, nil
	}
	if r.mirror == nil || !errors.Is(err, apperr.ErrBackendUnavailable) {
		return nil, err
	}
	return r.mirror.Search(ctx, query, limit)
}

// Recent lists recently modified notes, falling back to the mirror when the
// backend is down.
func (r *Repository) Recent(ctx context.Context, limit int) ([]models.NoteSummary, error) {
	notes, err := r.backend.RecentNotes(ctx, limit)
	if err == nil {
		return notes, nil
	}
	if r.mirror == nil || !errors.Is(err, apperr.ErrBackendUnavailable) {
		return nil, err
	}
	return r.mirror.Recent(ctx, limit)
}
