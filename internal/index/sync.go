package index

import (
	"context"
	"log/slog"

	"github.com/starford/draftsmith/internal/models"
)

// Source lists the authoritative notes, normally the backend client.
type Source interface {
	ListNotes(ctx context.Context) ([]models.Note, error)
}

// EventCallback is called after a sync-driven index change.
// kind is one of "note.updated", "note.deleted".
type EventCallback func(kind string, id int64)

// SyncStats summarises one Sync pass.
type SyncStats struct {
	Seen    int
	Updated int
	Deleted int
}

// Sync mirrors the source into the index:
//   - new/changed notes are upserted
//   - notes the source no longer lists are deleted from the index
//
// A failing source aborts the pass before anything is deleted.
func Sync(ctx context.Context, db *DB, src Source, logger *slog.Logger, cb EventCallback) (SyncStats, error) {
	var stats SyncStats
	notes, err := src.ListNotes(ctx)
	if err != nil {
		return stats, err
	}

	checksums, err := db.AllChecksums(ctx)
	if err != nil {
		return stats, err
	}

	live := make(map[int64]struct{}, len(notes))
	for _, n := range notes {
		stats.Seen++
		live[n.ID] = struct{}{}

		if checksums[n.ID] == noteChecksum(n) {
			continue
		}
		if _, err := db.UpsertNote(ctx, n); err != nil {
			logger.Warn("sync: upsert failed", slog.Int64("id", n.ID), slog.String("error", err.Error()))
			continue
		}
		stats.Updated++
		logger.Debug("sync: mirrored", slog.Int64("id", n.ID))
		if cb != nil {
			cb("note.updated", n.ID)
		}
	}

	// Remove stale entries.
	for id := range checksums {
		if _, ok := live[id]; ok {
			continue
		}
		if err := db.DeleteNote(ctx, id); err != nil {
			logger.Warn("sync: delete failed", slog.Int64("id", id), slog.String("error", err.Error()))
			continue
		}
		stats.Deleted++
		logger.Debug("sync: removed stale", slog.Int64("id", id))
		if cb != nil {
			cb("note.deleted", id)
		}
	}

	return stats, nil
}
