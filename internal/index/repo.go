package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/draftsmith/internal/apperr"
	"github.com/starford/draftsmith/internal/checksum"
	"github.com/starford/draftsmith/internal/models"
)

// SearchResult represents one search hit.
type SearchResult struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// noteChecksum covers every field a render depends on.
func noteChecksum(n models.Note) string {
	return checksum.SumString(n.Title + "\x00" + n.Content)
}

// UpsertNote stores a snapshot of n. It reports whether anything changed;
// an identical snapshot only refreshes synced_at.
func (db *DB) UpsertNote(ctx context.Context, n models.Note) (bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	cs := noteChecksum(n)
	var prev string
	err = tx.QueryRowContext(ctx, `SELECT checksum FROM notes WHERE id = ?`, n.ID).Scan(&prev)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("index: read checksum: %w", err)
	}
	changed := prev != cs

	_, err = tx.ExecContext(ctx, `
		INSERT INTO notes (id, title, content, checksum, created_at, modified_at, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title       = excluded.title,
			content     = excluded.content,
			checksum    = excluded.checksum,
			created_at  = excluded.created_at,
			modified_at = excluded.modified_at,
			synced_at   = excluded.synced_at
	`, n.ID, n.Title, n.Content, cs, n.CreatedAt.UTC(), n.ModifiedAt.UTC(), time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("index: upsert note: %w", err)
	}

	if changed {
		// FTS upsert (no-op when FTS5 tag is absent).
		if err := ftsUpsert(ctx, tx, n.ID, n.Title, n.Content); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("index: commit: %w", err)
	}
	return changed, nil
}

// DeleteNote removes a note and its FTS entry.
func (db *DB) DeleteNote(ctx context.Context, id int64) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(ctx, tx, id)
	if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("index: delete note: %w", err)
	}
	return tx.Commit()
}

// GetNote returns the stored snapshot or apperr.ErrNotFound.
func (db *DB) GetNote(ctx context.Context, id int64) (*models.Note, error) {
	var n models.Note
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, title, content, created_at, modified_at FROM notes WHERE id = ?
	`, id).Scan(&n.ID, &n.Title, &n.Content, &n.CreatedAt, &n.ModifiedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: note %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get note: %w", err)
	}
	return &n, nil
}

// Recent returns up to limit notes, most recently modified first.
func (db *DB) Recent(ctx context.Context, limit int) ([]models.NoteSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, title, modified_at FROM notes
		ORDER BY modified_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("index: recent: %w", err)
	}
	defer rows.Close()

	var out []models.NoteSummary
	for rows.Next() {
		var s models.NoteSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.ModifiedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// AllChecksums returns the stored checksum of every note keyed by id.
func (db *DB) AllChecksums(ctx context.Context) (map[int64]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[int64]string)
	for rows.Next() {
		var (
			id int64
			cs string
		)
		if err := rows.Scan(&id, &cs); err != nil {
			return nil, err
		}
		out[id] = cs
	}
	return out, rows.Err()
}

// Count returns the number of mirrored notes.
func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM notes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}
