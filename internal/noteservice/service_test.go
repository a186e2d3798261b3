package noteservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/starford/draftsmith/internal/apperr"
	"github.com/starford/draftsmith/internal/render"
	"github.com/starford/draftsmith/internal/testutil"
)

func newTestService(t *testing.T) (*Service, *testutil.Notes) {
	t.Helper()
	notes := testutil.NewNotes()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := NewRepository(notes, testutil.TestDB(t), logger)
	return NewService(repo, render.New(repo), render.RenderOptions{}), notes
}

func TestFetchNote_WritesThroughAndFallsBack(t *testing.T) {
	svc, notes := newTestService(t)
	ctx := context.Background()
	notes.Put(1, "One", "first body")

	if _, err := svc.GetNote(ctx, 1); err != nil {
		t.Fatalf("GetNote: %v", err)
	}

	notes.SetDown(true)
	n, err := svc.GetNote(ctx, 1)
	if err != nil {
		t.Fatalf("GetNote while down: %v", err)
	}
	if n.Content != "first body" {
		t.Errorf("content = %q", n.Content)
	}

	// never seen, so the mirror cannot answer
	if _, err := svc.GetNote(ctx, 2); !errors.Is(err, apperr.ErrBackendUnavailable) {
		t.Errorf("err = %v, want ErrBackendUnavailable", err)
	}
}

func TestFetchNote_NotFoundIsNotServedFromMirror(t *testing.T) {
	svc, notes := newTestService(t)
	ctx := context.Background()
	notes.Put(1, "One", "body")
	if _, err := svc.GetNote(ctx, 1); err != nil {
		t.Fatal(err)
	}

	notes.Delete(1)
	if _, err := svc.GetNote(ctx, 1); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRenderNote(t *testing.T) {
	svc, notes := newTestService(t)
	notes.Put(1, "Inner", "inner text")
	notes.Put(2, "Outer", "![[1]]\n\nsee [[1]]")

	got, err := svc.RenderNote(context.Background(), 2, svc.Defaults(), false)
	if err != nil {
		t.Fatalf("RenderNote: %v", err)
	}
	if got.ID != 2 || got.Title != "Outer" {
		t.Errorf("note = %d %q", got.ID, got.Title)
	}
	if !strings.Contains(got.HTML, "inner text") || !strings.Contains(got.HTML, `<a href="/note/1">Inner</a>`) {
		t.Errorf("html = %s", got.HTML)
	}
	if len(got.ETag) != 34 || !strings.HasPrefix(got.ETag, `"`) {
		t.Errorf("etag = %q", got.ETag)
	}

	again, err := svc.RenderNote(context.Background(), 2, svc.Defaults(), false)
	if err != nil {
		t.Fatal(err)
	}
	if again.ETag != got.ETag {
		t.Errorf("etag not stable: %q vs %q", again.ETag, got.ETag)
	}
}

func TestRenderNote_Missing(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.RenderNote(context.Background(), 404, svc.Defaults(), false); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRenderNote_FullPage(t *testing.T) {
	svc, notes := newTestService(t)
	notes.Put(1, "", "---\ntitle: From Meta\n---\nbody")

	got, err := svc.RenderNote(context.Background(), 1, svc.Defaults(), true)
	if err != nil {
		t.Fatalf("RenderNote: %v", err)
	}
	if got.Title != "From Meta" {
		t.Errorf("title = %q", got.Title)
	}
	if !strings.HasPrefix(got.HTML, "<!DOCTYPE html>") {
		t.Errorf("not a full page: %.60s", got.HTML)
	}
}

func TestDisplayTitle_FallsBackToID(t *testing.T) {
	svc, notes := newTestService(t)
	notes.Put(7, "", "no title here")
	got, err := svc.RenderNote(context.Background(), 7, svc.Defaults(), false)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "# 7" {
		t.Errorf("title = %q", got.Title)
	}
}

func TestSearchAndRecent_FallBackToMirror(t *testing.T) {
	svc, notes := newTestService(t)
	ctx := context.Background()
	notes.Put(1, "Alpha", "apples")
	notes.Put(2, "Beta", "bananas")

	hits, err := svc.Search(ctx, "alpha", 10)
	if err != nil || len(hits) != 1 || hits[0].ID != 1 {
		t.Fatalf("search = %+v, %v", hits, err)
	}
	recent, err := svc.Recent(ctx, 1)
	if err != nil || len(recent) != 1 || recent[0].ID != 2 {
		t.Fatalf("recent = %+v, %v", recent, err)
	}

	for _, id := range []int64{1, 2} {
		if _, err := svc.GetNote(ctx, id); err != nil {
			t.Fatal(err)
		}
	}
	notes.SetDown(true)

	recent, err = svc.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent while down: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != 2 {
		t.Errorf("recent = %+v", recent)
	}
	hits, err = svc.Search(ctx, "bananas", 10)
	if err != nil {
		t.Fatalf("Search while down: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != 2 {
		t.Errorf("hits = %+v", hits)
	}
}
