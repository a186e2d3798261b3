// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/draftsmith/internal/api"
	"github.com/starford/draftsmith/internal/backend"
	"github.com/starford/draftsmith/internal/index"
	"github.com/starford/draftsmith/internal/mcpserver"
	"github.com/starford/draftsmith/internal/noteservice"
	"github.com/starford/draftsmith/internal/render"
	"github.com/starford/draftsmith/internal/sse"
	"github.com/starford/draftsmith/internal/storage"
	"github.com/starford/draftsmith/internal/stylesheet"
)

// refreshThrottle is the minimum gap between two page.refresh events.
const refreshThrottle = 2 * time.Second

// RenderRequest describes a one-shot render. Exactly one of ID or Markdown
// is used; ID wins when HasID is set.
type RenderRequest struct {
	ID       int64
	HasID    bool
	Markdown string
	Full     bool
	Dark     bool
}

// stack is the set of components shared by every command.
type stack struct {
	logger  *slog.Logger
	client  *backend.Client
	db      *index.DB
	styles  *stylesheet.Cache
	service *noteservice.Service
}

func (s *stack) Close() {
	if err := s.db.Close(); err != nil {
		s.logger.Warn("close index", slog.String("error", err.Error()))
	}
}

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev", logOut: os.Stdout, out: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// build initialises logging, the backend client, the offline mirror and the
// note service.
func (a *application) build() (*stack, error) {
	cfg := a.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(a.logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("backend_url", cfg.Backend.URL()),
		slog.String("cache_path", cfg.Cache.Path),
		slog.String("css_dir", cfg.Render.CSSDir),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if cfg.Render.CSSDir != "" {
		if err := os.MkdirAll(cfg.Render.CSSDir, 0o755); err != nil {
			return nil, fmt.Errorf("create css dir: %w", err)
		}
	}

	client, err := backend.New(cfg.Backend.URL(), cfg.Backend.Timeout)
	if err != nil {
		return nil, fmt.Errorf("init backend client: %w", err)
	}

	db, err := index.Open(cfg.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	styles := stylesheet.NewCache()
	repo := noteservice.NewRepository(client, db, logger)
	renderer := render.New(repo, render.WithStylesheets(styles))

	return &stack{
		logger:  logger,
		client:  client,
		db:      db,
		styles:  styles,
		service: noteservice.NewService(repo, renderer, cfg.Render.Options()),
	}, nil
}

// Run starts the render service with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	st, err := app.build()
	if err != nil {
		return err
	}
	defer st.Close()
	logger := st.logger

	// SSE broker.
	broker := sse.NewBroker(refreshThrottle)
	defer broker.Close()

	var assets storage.Provider
	if cfg.Render.LocalMathAssets {
		fs, err := storage.NewFS(cfg.Render.MathAssetsDir)
		if err != nil {
			return fmt.Errorf("init math assets: %w", err)
		}
		assets = fs
	}

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Mount("/", api.NewRouter(st.service, st.client, broker, assets))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Mirror the backend periodically and announce changes.
	g.Go(func() error {
		runSync(gCtx, st, cfg.Cache.SyncInterval, broker.PublishNoteEvent)
		return nil
	})

	// Start stylesheet watcher with SSE callback.
	if cfg.Render.CSSDir != "" {
		g.Go(func() error {
			err := stylesheet.Watch(gCtx, st.styles, cfg.Render.CSSDir, logger, broker.PublishStylesheetEvent)
			if err != nil {
				logger.Warn("stylesheet watcher disabled", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Close SSE streams first; Shutdown waits for active handlers.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so background loops stop with the server.
var errShutdown = errors.New("shutdown")

// runSync mirrors the backend once immediately and then every interval until
// ctx is done. interval <= 0 disables the periodic pass.
func runSync(ctx context.Context, st *stack, interval time.Duration, cb index.EventCallback) {
	pass := func() {
		start := time.Now()
		stats, err := index.Sync(ctx, st.db, st.client, st.logger, cb)
		if err != nil {
			if ctx.Err() == nil {
				st.logger.Warn("sync failed", slog.String("error", err.Error()))
			}
			return
		}
		st.logger.Info("sync complete",
			slog.Int("seen", stats.Seen),
			slog.Int("updated", stats.Updated),
			slog.Int("deleted", stats.Deleted),
			slog.Duration("took", time.Since(start)))
	}

	pass()
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pass()
		}
	}
}

// RunMCP serves the MCP tools on stdin/stdout until the client disconnects.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	st, err := app.build()
	if err != nil {
		return err
	}
	defer st.Close()

	srv := mcpserver.New(st.service, app.version)
	st.logger.Info("MCP server starting on stdio")

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ServeStdio() }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}

// Render performs a one-shot render and writes the HTML to the configured
// output.
func Render(ctx context.Context, req RenderRequest, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	st, err := app.build()
	if err != nil {
		return err
	}
	defer st.Close()

	renderOpts := st.service.Defaults()
	renderOpts.DarkMode = renderOpts.DarkMode || req.Dark

	var out string
	if req.HasID {
		note, err := st.service.RenderNote(ctx, req.ID, renderOpts, req.Full)
		if err != nil {
			return err
		}
		out = note.HTML
	} else {
		out, err = st.service.RenderMarkdown(ctx, req.Markdown, renderOpts, req.Full)
		if err != nil {
			return err
		}
	}

	_, err = io.WriteString(app.out, out)
	return err
}
