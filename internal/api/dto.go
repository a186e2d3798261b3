package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/draftsmith/internal/render"
)

// maxMarkdownRunes bounds the size of an ad-hoc render request.
const maxMarkdownRunes = 1 << 20

// RenderRequest is the request body for POST /api/render.
type RenderRequest struct {
	Markdown string            `json:"markdown" example:"# Hello\nSee [[1]]" validate:"required"`
	Full     bool              `json:"full" example:"false"`
	Options  *RenderOptionsDTO `json:"options,omitempty"`
}

// Validate validates the request body.
func (r *RenderRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Markdown, validation.Required, validation.RuneLength(1, maxMarkdownRunes)),
	)
}

// RenderOptionsDTO carries per-request overrides of the configured render
// options. Unset fields keep the configured value. The stylesheet directory
// is server configuration and cannot be overridden.
type RenderOptionsDTO struct {
	DarkMode           *bool `json:"dark_mode,omitempty"`
	ContentEditable    *bool `json:"content_editable,omitempty"`
	UseLocalMathAssets *bool `json:"local_math_assets,omitempty"`
	WrapTransclusions  *bool `json:"wrap_transclusions,omitempty"`
}

// apply overlays the set fields onto base.
func (o *RenderOptionsDTO) apply(base render.RenderOptions) render.RenderOptions {
	if o == nil {
		return base
	}
	if o.DarkMode != nil {
		base.DarkMode = *o.DarkMode
	}
	if o.ContentEditable != nil {
		base.ContentEditable = *o.ContentEditable
	}
	if o.UseLocalMathAssets != nil {
		base.UseLocalMathAssets = *o.UseLocalMathAssets
	}
	if o.WrapTransclusions != nil {
		base.WrapTransclusions = *o.WrapTransclusions
	}
	return base
}

// RenderResponse is returned by POST /api/render for fragment renders.
type RenderResponse struct {
	HTML string `json:"html" validate:"required"`
}

// RenderedNoteResponse is returned by GET /api/notes/{id}/html.
type RenderedNoteResponse struct {
	ID    int64  `json:"id" example:"42" validate:"required"`
	Title string `json:"title" example:"Hello" validate:"required"`
	HTML  string `json:"html" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	ID      int64  `json:"id" example:"42" validate:"required"`
	Title   string `json:"title" example:"Hello" validate:"required"`
	Snippet string `json:"snippet,omitempty" example:"...matched text..."`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// RecentNote is an entry of GET /api/recent.
type RecentNote struct {
	ID         int64  `json:"id" example:"42" validate:"required"`
	Title      string `json:"title" example:"Hello" validate:"required"`
	ModifiedAt string `json:"modified_at,omitempty" example:"2024-10-20T05:04:42Z"`
}

// RecentResponse wraps recently modified notes.
type RecentResponse struct {
	Notes []RecentNote `json:"notes" validate:"required"`
}
