// Package noteservice binds note lookup to the renderer.
package noteservice

import (
	"context"
	"fmt"

	"github.com/starford/draftsmith/internal/checksum"
	"github.com/starford/draftsmith/internal/index"
	"github.com/starford/draftsmith/internal/models"
	"github.com/starford/draftsmith/internal/render"
)

// RenderedNote is a note rendered to HTML.
type RenderedNote struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	HTML  string `json:"html"`
	ETag  string `json:"-"`
}

// Service coordinates note lookup, mirroring and rendering.
type Service struct {
	repo     *Repository
	renderer *render.Renderer
	defaults render.RenderOptions
}

// NewService creates a note service. defaults seeds the options of every render.
func NewService(repo *Repository, renderer *render.Renderer, defaults render.RenderOptions) *Service {
	return &Service{repo: repo, renderer: renderer, defaults: defaults}
}

// Defaults returns the configured render options.
func (s *Service) Defaults() render.RenderOptions {
	return s.defaults
}

// GetNote returns the raw note.
func (s *Service) GetNote(ctx context.Context, id int64) (*models.Note, error) {
	return s.repo.FetchNote(ctx, id)
}

// RenderNote fetches and renders note id. Lookup failures of the note itself
// are returned; failures of notes it references are rendered inline.
func (s *Service) RenderNote(ctx context.Context, id int64, opts render.RenderOptions, full bool) (*RenderedNote, error) {
	n, err := s.repo.FetchNote(ctx, id)
	if err != nil {
		return nil, err
	}
	html, err := s.RenderMarkdown(ctx, n.Content, opts, full)
	if err != nil {
		return nil, fmt.Errorf("render note %d: %w", id, err)
	}
	return &RenderedNote{
		ID:    n.ID,
		Title: displayTitle(n),
		HTML:  html,
		ETag:  checksum.ETag([]byte(html)),
	}, nil
}

// RenderMarkdown renders arbitrary Markdown against the note store.
func (s *Service) RenderMarkdown(ctx context.Context, markdown string, opts render.RenderOptions, full bool) (string, error) {
	if full {
		return s.renderer.RenderFullPageHTML(ctx, markdown, opts)
	}
	return s.renderer.RenderNoteHTML(ctx, markdown, opts)
}

// Search finds notes matching query.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.repo.Search(ctx, query, limit)
}

// Recent lists recently modified notes.
func (s *Service) Recent(ctx context.Context, limit int) ([]models.NoteSummary, error) {
	return s.repo.Recent(ctx, limit)
}

func displayTitle(n *models.Note) string {
	if n.Title != "" {
		return n.Title
	}
	meta, _ := render.SplitFrontMatter(n.Content)
	if t := render.FrontMatterTitle(meta); t != "" {
		return t
	}
	return fmt.Sprintf("# %d", n.ID)
}
