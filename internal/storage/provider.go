// Package storage provides read-only access to local asset directories
// (stylesheets, bundled math assets).
package storage

import "github.com/starford/draftsmith/internal/models"

// Provider is the interface for asset directory reads.
type Provider interface {
	// List returns metadata for the files directly inside dir (relative to
	// the root) whose name ends in ext, sorted by path. An empty ext lists
	// every regular file.
	List(dir, ext string) ([]models.FileMetadata, error)
	// Read returns the raw bytes of the file at path (relative to the root).
	Read(path string) ([]byte, error)
	// Stat returns metadata for a single file.
	Stat(path string) (models.FileMetadata, error)
}
