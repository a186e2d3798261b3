package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/starford/draftsmith/internal/models"
)

// backendConfig points a default config at a fake notes API.
func backendConfig(t *testing.T, notes map[int64]models.Note) *Config {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /notes/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		n, ok := notes[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(n)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	u, _ := url.Parse(srv.URL)
	port, _ := strconv.Atoi(u.Port())

	cfg := NewDefaultConfig()
	cfg.Backend.Host = u.Hostname()
	cfg.Backend.Port = port
	cfg.Backend.Timeout = 2 * time.Second
	cfg.Cache.Path = filepath.Join(t.TempDir(), "mirror.db")
	cfg.Render.CSSDir = filepath.Join(t.TempDir(), "css")
	return cfg
}

func TestRender_NoteByID(t *testing.T) {
	cfg := backendConfig(t, map[int64]models.Note{
		1: {ID: 1, Title: "One", Content: "embedded"},
		2: {ID: 2, Title: "Two", Content: "![[1]]\n\nsee [[1]]"},
	})

	var out bytes.Buffer
	err := Render(context.Background(), RenderRequest{ID: 2, HasID: true},
		WithConfig(cfg), WithOutput(&out), WithLogOutput(io.Discard))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out.String(), "embedded") || !strings.Contains(out.String(), `<a href="/note/1">One</a>`) {
		t.Errorf("output = %s", out.String())
	}
}

func TestRender_MarkdownFullDark(t *testing.T) {
	cfg := backendConfig(t, nil)

	var out bytes.Buffer
	err := Render(context.Background(), RenderRequest{Markdown: "# Hi", Full: true, Dark: true},
		WithConfig(cfg), WithOutput(&out), WithLogOutput(io.Discard))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out.String(), `data-theme="dark"`) || !strings.Contains(out.String(), "Hi</h1>") {
		t.Errorf("output = %.200s", out.String())
	}
}

func TestRender_MissingNote(t *testing.T) {
	cfg := backendConfig(t, nil)
	err := Render(context.Background(), RenderRequest{ID: 9, HasID: true},
		WithConfig(cfg), WithOutput(io.Discard), WithLogOutput(io.Discard))
	if err == nil {
		t.Fatal("expected error for missing note")
	}
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Fatal("Run without config should fail")
	}
}
