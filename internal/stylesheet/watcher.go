package stylesheet

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounce = 150 * time.Millisecond

// EventCallback is called once per debounced batch of stylesheet changes.
// kind is always "stylesheet.updated"; file is a changed file name.
type EventCallback func(kind string, file string)

// Watch starts an fsnotify watcher on dir and processes stylesheet change
// events until ctx is cancelled. Bursts of events (editors writing through a
// temp file, for example) are coalesced: the cache is invalidated once and cb
// is called for each distinct file touched in the burst.
func Watch(ctx context.Context, cache *Cache, dir string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("stylesheet watcher: started", slog.String("dir", dir))

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
		pending = make(map[string]struct{})
	)
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("stylesheet watcher: stopped")
			return nil

		case <-timerCh:
			cache.Invalidate(dir)
			files := make([]string, 0, len(pending))
			for f := range pending {
				files = append(files, f)
			}
			sort.Strings(files)
			clear(pending)
			for _, f := range files {
				logger.Debug("stylesheet watcher: changed", slog.String("file", f))
				if cb != nil {
					cb("stylesheet.updated", f)
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(ev.Name, ".css") {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			pending[filepath.Base(ev.Name)] = struct{}{}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("stylesheet watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
