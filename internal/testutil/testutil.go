// Package testutil provides shared test helpers for note fixtures and databases.
package testutil

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/draftsmith/internal/apperr"
	"github.com/starford/draftsmith/internal/index"
	"github.com/starford/draftsmith/internal/models"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "draftsmith-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Notes is an in-memory note repository. It counts fetches per id and can be
// switched into a failing mode to simulate an unreachable backend.
type Notes struct {
	mu      sync.Mutex
	notes   map[int64]models.Note
	fetches map[int64]int
	down    bool
}

// NewNotes returns an empty repository.
func NewNotes() *Notes {
	return &Notes{notes: make(map[int64]models.Note), fetches: make(map[int64]int)}
}

// Put stores a note with fixed timestamps.
func (n *Notes) Put(id int64, title, content string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(id) * time.Minute)
	n.notes[id] = models.Note{ID: id, Title: title, Content: content, CreatedAt: ts, ModifiedAt: ts}
}

// SetDown makes every fetch fail with apperr.ErrBackendUnavailable.
func (n *Notes) SetDown(down bool) {
	n.mu.Lock()
	n.down = down
	n.mu.Unlock()
}

// Fetches reports how many times id was requested.
func (n *Notes) Fetches(id int64) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.fetches[id]
}

// FetchNote implements render.NoteRepository.
func (n *Notes) FetchNote(_ context.Context, id int64) (*models.Note, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fetches[id]++
	if n.down {
		return nil, fmt.Errorf("note %d: %w", id, apperr.ErrBackendUnavailable)
	}
	note, ok := n.notes[id]
	if !ok {
		return nil, fmt.Errorf("note %d: %w", id, apperr.ErrNotFound)
	}
	return &note, nil
}

// GetNote mirrors the backend client method of the same name.
func (n *Notes) GetNote(ctx context.Context, id int64) (*models.Note, error) {
	return n.FetchNote(ctx, id)
}

// ListNotes returns every note ordered by id.
func (n *Notes) ListNotes(_ context.Context) ([]models.Note, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.down {
		return nil, apperr.ErrBackendUnavailable
	}
	out := make([]models.Note, 0, len(n.notes))
	for _, note := range n.notes {
		out = append(out, note)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SearchNotes matches query case-insensitively against titles and content.
func (n *Notes) SearchNotes(ctx context.Context, query string) ([]models.NoteSummary, error) {
	all, err := n.ListNotes(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	var out []models.NoteSummary
	for _, note := range all {
		if strings.Contains(strings.ToLower(note.Title), q) || strings.Contains(strings.ToLower(note.Content), q) {
			out = append(out, note.Summary())
		}
	}
	return out, nil
}

// RecentNotes returns up to limit notes, newest first.
func (n *Notes) RecentNotes(ctx context.Context, limit int) ([]models.NoteSummary, error) {
	all, err := n.ListNotes(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].ModifiedAt.After(all[j].ModifiedAt) })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	out := make([]models.NoteSummary, len(all))
	for i, note := range all {
		out[i] = note.Summary()
	}
	return out, nil
}

// Delete removes a note.
func (n *Notes) Delete(id int64) {
	n.mu.Lock()
	delete(n.notes, id)
	n.mu.Unlock()
}
