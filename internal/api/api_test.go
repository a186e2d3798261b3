package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/draftsmith/internal/apperr"
	"github.com/starford/draftsmith/internal/noteservice"
	"github.com/starford/draftsmith/internal/render"
	"github.com/starford/draftsmith/internal/sse"
	"github.com/starford/draftsmith/internal/storage"
	"github.com/starford/draftsmith/internal/testutil"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

// testEnv wires an in-memory backend, a temp SQLite mirror, the service and
// the router.
func testEnv(t *testing.T) (*testutil.Notes, http.Handler) {
	t.Helper()
	notes, router, _ := testEnvWithAssets(t, fakePinger{})
	return notes, router
}

func testEnvWithAssets(t *testing.T, backend Pinger) (*testutil.Notes, http.Handler, string) {
	t.Helper()

	assetDir := t.TempDir()
	assets, err := storage.NewFS(assetDir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}

	notes := testutil.NewNotes()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := noteservice.NewRepository(notes, testutil.TestDB(t), logger)
	svc := noteservice.NewService(repo, render.New(repo), render.RenderOptions{})

	// Minimal SSE handler stub: writes headers and blocks until context done.
	events := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		<-r.Context().Done()
	})

	return notes, NewRouter(svc, backend, events, assets), assetDir
}

func do(router http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRender_Fragment(t *testing.T) {
	notes, router := testEnv(t)
	notes.Put(1, "Target", "target body")

	body, _ := json.Marshal(map[string]any{"markdown": "Link to [[1]] and $x^2$"})
	w := do(router, http.MethodPost, "/api/render", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp RenderResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resp.HTML, `<a href="/note/1">Target</a>`) || !strings.Contains(resp.HTML, "$x^2$") {
		t.Errorf("html = %s", resp.HTML)
	}
}

func TestRender_FullPageWithOptions(t *testing.T) {
	_, router := testEnv(t)

	body, _ := json.Marshal(map[string]any{
		"markdown": "Hello",
		"full":     true,
		"options":  map[string]any{"dark_mode": true, "content_editable": true},
	})
	w := do(router, http.MethodPost, "/api/render", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	out := w.Body.String()
	for _, want := range []string{"<!DOCTYPE html>", `data-theme="dark"`, `contenteditable="true"`, "<p>Hello</p>"} {
		if !strings.Contains(out, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestRender_Validation(t *testing.T) {
	_, router := testEnv(t)

	if w := do(router, http.MethodPost, "/api/render", []byte(`{"markdown": ""}`)); w.Code != http.StatusBadRequest {
		t.Errorf("empty markdown = %d, want 400", w.Code)
	}
	if w := do(router, http.MethodPost, "/api/render", []byte(`not json`)); w.Code != http.StatusBadRequest {
		t.Errorf("bad json = %d, want 400", w.Code)
	}
}

func TestNoteHTML(t *testing.T) {
	notes, router := testEnv(t)
	notes.Put(2, "Inner", "inner text")
	notes.Put(3, "Outer", "![[2]]")

	w := do(router, http.MethodGet, "/api/notes/3/html", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp RenderedNoteResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.ID != 3 || resp.Title != "Outer" || !strings.Contains(resp.HTML, "inner text") {
		t.Errorf("resp = %+v", resp)
	}
	if w.Header().Get("ETag") == "" {
		t.Error("missing ETag")
	}
}

func TestNoteHTML_WrapQueryFlag(t *testing.T) {
	notes, router := testEnv(t)
	notes.Put(2, "Inner", "inner text")
	notes.Put(3, "Outer", "![[2]]")

	w := do(router, http.MethodGet, "/api/notes/3/html?wrap=true", nil)
	if !strings.Contains(w.Body.String(), "/edit/2") {
		t.Errorf("card not wrapped: %s", w.Body.String())
	}
}

func TestNoteHTML_Errors(t *testing.T) {
	notes, router := testEnv(t)

	if w := do(router, http.MethodGet, "/api/notes/abc/html", nil); w.Code != http.StatusBadRequest {
		t.Errorf("invalid id = %d, want 400", w.Code)
	}
	if w := do(router, http.MethodGet, "/api/notes/999/html", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing = %d, want 404", w.Code)
	}

	notes.SetDown(true)
	if w := do(router, http.MethodGet, "/api/notes/999/html", nil); w.Code != http.StatusBadGateway {
		t.Errorf("backend down = %d, want 502", w.Code)
	}
}

func TestNotePage_ETag(t *testing.T) {
	notes, router := testEnv(t)
	notes.Put(5, "Page", "# Page\n\nbody")

	w := do(router, http.MethodGet, "/note/5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	etag := w.Header().Get("ETag")
	if etag == "" || !strings.Contains(w.Body.String(), "<!DOCTYPE html>") {
		t.Fatalf("etag = %q, body = %.80s", etag, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/note/5", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified {
		t.Errorf("conditional status = %d, want 304", w.Code)
	}

	notes.Put(5, "Page", "# Page\n\nchanged")
	req = httptest.NewRequest(http.MethodGet, "/note/5", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("changed note status = %d, want 200", w.Code)
	}
}

func TestNotePage_NotFound(t *testing.T) {
	_, router := testEnv(t)
	if w := do(router, http.MethodGet, "/note/404", nil); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	notes, router := testEnv(t)
	notes.Put(1, "Alpha", "apples")
	notes.Put(2, "Beta", "bananas")

	w := do(router, http.MethodGet, "/api/search?q=banana", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp SearchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != 2 {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	_, router := testEnv(t)
	if w := do(router, http.MethodGet, "/api/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestRecentEndpoint(t *testing.T) {
	notes, router := testEnv(t)
	notes.Put(1, "Old", "a")
	notes.Put(2, "New", "b")
	notes.Put(3, "Newest", "c")

	w := do(router, http.MethodGet, "/api/recent?limit=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp RecentResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Notes) != 2 || resp.Notes[0].ID != 3 || resp.Notes[1].ID != 2 {
		t.Errorf("notes = %+v", resp.Notes)
	}
	if resp.Notes[0].ModifiedAt == "" {
		t.Error("modified_at missing")
	}
}

func TestHealth(t *testing.T) {
	_, router := testEnv(t)
	if w := do(router, http.MethodGet, "/health/live", nil); w.Code != http.StatusOK {
		t.Errorf("live = %d", w.Code)
	}
	if w := do(router, http.MethodGet, "/health/ready", nil); w.Code != http.StatusOK {
		t.Errorf("ready = %d", w.Code)
	}

	_, down, _ := testEnvWithAssets(t, fakePinger{err: apperr.ErrBackendUnavailable})
	if w := do(down, http.MethodGet, "/health/ready", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("ready with backend down = %d, want 503", w.Code)
	}
}

func TestStaticAssets(t *testing.T) {
	_, router, dir := testEnvWithAssets(t, fakePinger{})
	if err := os.MkdirAll(filepath.Join(dir, "katex"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "katex", "katex.min.js"), []byte("/*katex*/"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := do(router, http.MethodGet, "/static/katex/katex.min.js", nil)
	if w.Code != http.StatusOK || w.Body.String() != "/*katex*/" {
		t.Fatalf("status = %d, body = %q", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "javascript") {
		t.Errorf("content type = %q", ct)
	}

	if w := do(router, http.MethodGet, "/static/katex/missing.css", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing = %d, want 404", w.Code)
	}
}

func TestStaticAssets_TraversalBlocked(t *testing.T) {
	_, router, _ := testEnvWithAssets(t, fakePinger{})
	req := httptest.NewRequest(http.MethodGet, "/static/x", nil)
	// Bypass client-side cleaning to put a raw traversal in the wildcard.
	req.URL.Path = "/static/../../etc/passwd"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusOK {
		t.Errorf("traversal served with status 200")
	}
}

func TestEvents_Mounted(t *testing.T) {
	_, router := testEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "text/event-stream" {
		t.Errorf("status = %d, content type = %q", w.Code, w.Header().Get("Content-Type"))
	}
}

func TestEvents_BrokerDeliversNoteEvents(t *testing.T) {
	broker := sse.NewBroker(0)
	t.Cleanup(broker.Close)

	notes := testutil.NewNotes()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := noteservice.NewRepository(notes, nil, logger)
	svc := noteservice.NewService(repo, render.New(repo), render.RenderOptions{})
	srv := httptest.NewServer(NewRouter(svc, nil, broker, nil))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	deadline := time.Now().Add(time.Second)
	for broker.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	broker.PublishNoteEvent(sse.TypeNoteUpdated, 9)

	buf := make([]byte, 256)
	var got strings.Builder
	for !strings.Contains(got.String(), "\n\n") {
		n, err := resp.Body.Read(buf)
		got.Write(buf[:n])
		if err != nil {
			if !errors.Is(err, io.EOF) {
				t.Fatalf("read: %v", err)
			}
			break
		}
	}
	if !strings.Contains(got.String(), "event: note.updated") || !strings.Contains(got.String(), `{"id":9}`) {
		t.Errorf("stream = %q", got.String())
	}
}
