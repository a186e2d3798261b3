package index

import (
	"context"

	"github.com/starford/draftsmith/internal/models"
)

// NoteIndex defines the interface for the offline note mirror.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type NoteIndex interface {
	UpsertNote(ctx context.Context, n models.Note) (bool, error)
	DeleteNote(ctx context.Context, id int64) error
	GetNote(ctx context.Context, id int64) (*models.Note, error)
	Recent(ctx context.Context, limit int) ([]models.NoteSummary, error)
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
	AllChecksums(ctx context.Context) (map[int64]string, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// Verify *DB satisfies NoteIndex at compile time.
var _ NoteIndex = (*DB)(nil)
