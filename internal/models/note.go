// Package models defines the domain types shared by the Draftsmith front-end.
package models

import "time"

// Note is a snapshot of a note owned by the backend API. The renderer only
// reads notes by id and never mutates them.
type Note struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// NoteSummary is a lightweight representation returned by list and search operations.
type NoteSummary struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	ModifiedAt time.Time `json:"modified_at,omitzero"`
}

// Summary drops the note body.
func (n Note) Summary() NoteSummary {
	return NoteSummary{ID: n.ID, Title: n.Title, ModifiedAt: n.ModifiedAt}
}

// FileMetadata describes a file served from a local asset directory.
type FileMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
