// Package stylesheet loads and caches the CSS inlined into full pages and
// watches stylesheet directories for edits.
package stylesheet

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/starford/draftsmith/internal/storage"
)

// Cache holds the concatenated *.css content of each directory it has
// loaded. It implements render.StylesheetSource and is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]string)}
}

func key(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return filepath.Clean(dir)
	}
	return abs
}

// Load returns every *.css file directly in dir, sorted by name and joined
// with newlines. A missing directory yields an error.
func (c *Cache) Load(dir string) (string, error) {
	k := key(dir)
	c.mu.RLock()
	css, ok := c.entries[k]
	c.mu.RUnlock()
	if ok {
		return css, nil
	}

	store, err := storage.NewFS(k)
	if err != nil {
		return "", err
	}
	css, err = concat(store)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.entries[k] = css
	c.mu.Unlock()
	return css, nil
}

// Invalidate drops the cached content of dir.
func (c *Cache) Invalidate(dir string) {
	c.mu.Lock()
	delete(c.entries, key(dir))
	c.mu.Unlock()
}

func concat(store storage.Provider) (string, error) {
	files, err := store.List("", ".css")
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, f := range files {
		data, err := store.Read(f.Path)
		if err != nil {
			return "", fmt.Errorf("stylesheet: %w", err)
		}
		b.Write(data)
		b.WriteByte('\n')
	}
	return b.String(), nil
}
