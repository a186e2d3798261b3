// Package backend is a client for the Draftsmith notes REST API.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/starford/draftsmith/internal/apperr"
	"github.com/starford/draftsmith/internal/models"
)

// Client talks to the backend over HTTP. It is safe for concurrent use.
type Client struct {
	base *url.URL
	http *http.Client
}

// New returns a client for the API rooted at baseURL.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend url %q: scheme and host required", baseURL)
	}
	return &Client{base: u, http: &http.Client{Timeout: timeout}}, nil
}

// GetNote fetches a single note.
func (c *Client) GetNote(ctx context.Context, id int64) (*models.Note, error) {
	var n models.Note
	if err := c.getJSON(ctx, "/notes/"+strconv.FormatInt(id, 10), nil, &n); err != nil {
		return nil, fmt.Errorf("get note %d: %w", id, err)
	}
	return &n, nil
}

// FetchNote satisfies render.NoteRepository directly against the backend.
func (c *Client) FetchNote(ctx context.Context, id int64) (*models.Note, error) {
	return c.GetNote(ctx, id)
}

// ListNotes fetches every note including content.
func (c *Client) ListNotes(ctx context.Context) ([]models.Note, error) {
	var notes []models.Note
	if err := c.getJSON(ctx, "/notes", nil, &notes); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// SearchNotes runs the backend's full-text search.
func (c *Client) SearchNotes(ctx context.Context, query string) ([]models.NoteSummary, error) {
	var hits []models.NoteSummary
	q := url.Values{"q": {query}}
	if err := c.getJSON(ctx, "/notes/search", q, &hits); err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}
	return hits, nil
}

// RecentNotes returns up to limit notes ordered by modification time, newest first.
func (c *Client) RecentNotes(ctx context.Context, limit int) ([]models.NoteSummary, error) {
	notes, err := c.ListNotes(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].ModifiedAt.After(notes[j].ModifiedAt)
	})
	if limit > 0 && len(notes) > limit {
		notes = notes[:limit]
	}
	out := make([]models.NoteSummary, len(notes))
	for i, n := range notes {
		out[i] = n.Summary()
	}
	return out, nil
}

// Ping reports whether the backend answers at all.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, "/notes", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrBackendUnavailable, err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: status %d", apperr.ErrBackendUnavailable, resp.StatusCode)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, path string, query url.Values) (*http.Request, error) {
	u := c.base.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dst any) error {
	req, err := c.newRequest(ctx, path, query)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", apperr.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperr.ErrNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", apperr.ErrBackendUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
