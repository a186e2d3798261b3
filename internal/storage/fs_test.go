package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/draftsmith/internal/apperr"
	"github.com/starford/draftsmith/internal/checksum"
)

func tempRoot(t *testing.T, files map[string]string) *FS {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestRead(t *testing.T) {
	s := tempRoot(t, map[string]string{"theme.css": "body{}"})
	got, err := s.Read("theme.css")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "body{}" {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestRead_Missing(t *testing.T) {
	s := tempRoot(t, nil)
	if _, err := s.Read("nope.css"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestList_FiltersAndSorts(t *testing.T) {
	s := tempRoot(t, map[string]string{
		"b.css":       "b",
		"a.css":       "a",
		"readme.txt":  "not css",
		"sub/c.css":   "nested",
		"katex/k.css": "nested",
	})

	items, err := s.List("", ".css")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 || items[0].Path != "a.css" || items[1].Path != "b.css" {
		t.Fatalf("items = %+v", items)
	}
	if items[0].Checksum != checksum.Sum([]byte("a")) {
		t.Errorf("checksum = %q", items[0].Checksum)
	}

	sub, err := s.List("sub", "")
	if err != nil {
		t.Fatalf("List sub: %v", err)
	}
	if len(sub) != 1 || sub[0].Path != "sub/c.css" {
		t.Errorf("sub items = %+v", sub)
	}
}

func TestStat(t *testing.T) {
	s := tempRoot(t, map[string]string{"katex/katex.min.js": "js"})
	meta, err := s.Stat("katex/katex.min.js")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if meta.Path != "katex/katex.min.js" || meta.Checksum != checksum.Sum([]byte("js")) {
		t.Errorf("meta = %+v", meta)
	}
	if _, err := s.Stat("katex"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("directory stat err = %v, want ErrNotFound", err)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempRoot(t, nil)

	cases := []string{
		"../../etc/passwd",
		"../outside.css",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if _, err := s.List(p, ""); err == nil {
			t.Errorf("expected error for list of %q", p)
		}
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/draftsmith-does-not-exist-" + t.Name())
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "draftsmith-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
