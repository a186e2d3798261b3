package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/starford/draftsmith/internal/apperr"
	"github.com/starford/draftsmith/internal/models"
)

func newTestServer(t *testing.T) (*Client, *httptest.Server) {
	t.Helper()
	t0 := time.Date(2024, 10, 20, 5, 4, 42, 0, time.UTC)
	notes := []models.Note{
		{ID: 1, Title: "First", Content: "one", CreatedAt: t0, ModifiedAt: t0},
		{ID: 2, Title: "Second", Content: "two", CreatedAt: t0, ModifiedAt: t0.Add(time.Hour)},
		{ID: 3, Title: "Third", Content: "three", CreatedAt: t0, ModifiedAt: t0.Add(30 * time.Minute)},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /notes", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(notes)
	})
	mux.HandleFunc("GET /notes/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "sec ond" {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{{"id": 2, "title": "Second"}})
	})
	mux.HandleFunc("GET /notes/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("id") {
		case "1":
			_ = json.NewEncoder(w).Encode(notes[0])
		case "500":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, 2*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	return c, srv
}

func TestGetNote(t *testing.T) {
	c, _ := newTestServer(t)
	n, err := c.GetNote(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if n.ID != 1 || n.Title != "First" || n.Content != "one" {
		t.Errorf("note = %+v", n)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	c, _ := newTestServer(t)
	_, err := c.GetNote(context.Background(), 42)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetNote_ServerError(t *testing.T) {
	c, _ := newTestServer(t)
	_, err := c.GetNote(context.Background(), 500)
	if !errors.Is(err, apperr.ErrBackendUnavailable) {
		t.Errorf("err = %v, want ErrBackendUnavailable", err)
	}
}

func TestGetNote_Unreachable(t *testing.T) {
	c, srv := newTestServer(t)
	srv.Close()
	_, err := c.GetNote(context.Background(), 1)
	if !errors.Is(err, apperr.ErrBackendUnavailable) {
		t.Errorf("err = %v, want ErrBackendUnavailable", err)
	}
	if err := c.Ping(context.Background()); !errors.Is(err, apperr.ErrBackendUnavailable) {
		t.Errorf("ping err = %v", err)
	}
}

func TestSearchNotes_EncodesQuery(t *testing.T) {
	c, _ := newTestServer(t)
	hits, err := c.SearchNotes(context.Background(), "sec ond")
	if err != nil {
		t.Fatalf("SearchNotes: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != 2 {
		t.Errorf("hits = %+v", hits)
	}
}

func TestRecentNotes_NewestFirst(t *testing.T) {
	c, _ := newTestServer(t)
	recent, err := c.RecentNotes(context.Background(), 2)
	if err != nil {
		t.Fatalf("RecentNotes: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != 2 || recent[1].ID != 3 {
		t.Errorf("recent = %+v", recent)
	}
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	if _, err := New("localhost:37238", time.Second); err == nil {
		t.Error("expected error for url without scheme")
	}
}
