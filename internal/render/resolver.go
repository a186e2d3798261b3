package render

import (
	"context"
	"fmt"

	"github.com/starford/draftsmith/internal/models"
)

// NoteRepository is the read side of the note store the renderer depends on.
// FetchNote returns apperr.ErrNotFound for unknown ids and
// apperr.ErrBackendUnavailable for transient failures.
type NoteRepository interface {
	FetchNote(ctx context.Context, id int64) (*models.Note, error)
}

// noteResolver is the per-render view of the repository. It memoises lookups
// so a note referenced many times in one document is fetched once, and keeps
// each note's rendered HTML per depth so repeated embeds render once. It is
// never shared between render calls.
type noteResolver struct {
	ctx       context.Context
	repo      NoteRepository
	cache     map[int64]lookup
	fragments map[fragmentKey]string
}

// fragmentKey identifies a rendered note. Depth is part of the key because
// the same note is cut off at a different point further down the tree.
type fragmentKey struct {
	id    int64
	depth int
}

type lookup struct {
	note *models.Note
	err  error
}

func newNoteResolver(ctx context.Context, repo NoteRepository) *noteResolver {
	return &noteResolver{
		ctx:       ctx,
		repo:      repo,
		cache:     make(map[int64]lookup),
		fragments: make(map[fragmentKey]string),
	}
}

func (r *noteResolver) fetch(id int64) (*models.Note, error) {
	if l, ok := r.cache[id]; ok {
		return l.note, l.err
	}
	var l lookup
	if r.repo == nil {
		l.err = fmt.Errorf("note %d: no repository configured", id)
	} else {
		l.note, l.err = r.repo.FetchNote(r.ctx, id)
		if l.err == nil && l.note == nil {
			l.err = fmt.Errorf("note %d: empty response", id)
		}
	}
	r.cache[id] = l
	return l.note, l.err
}
