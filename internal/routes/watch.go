package routes

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"gateway-server/pkg/metrics"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const (
	defaultDebounce = 100 * time.Millisecond

	reloadOK    = "ok"
	reloadError = "error"

	errCreateWatcherFmt = "failed to create routes watcher: %w"
	errWatchDirFmt      = "failed to watch directory %s: %w"
)

// Watcher reapplies route permissions when the routes file changes.
type Watcher struct {
	path     string
	table    *Table
	logger   *zap.Logger
	metrics  *metrics.Metrics
	debounce time.Duration

	mu sync.Mutex
}

func NewWatcher(path string, table *Table, log *zap.Logger, m *metrics.Metrics) *Watcher {
	return &Watcher{
		path:     path,
		table:    table,
		logger:   log,
		metrics:  m,
		debounce: defaultDebounce,
	}
}

// Reload re-reads the file and swaps policies. On error the current
// policies stay in force.
func (w *Watcher) Reload() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	next, err := Load(w.path)
	if err != nil {
		w.metrics.ObserveReload(reloadError)
		return err
	}

	applied, skipped := w.table.Apply(next)
	for _, ch := range applied {
		w.logger.Info("route permissions reloaded",
			zap.String("route", ch.ID),
			zap.Strings("permissions", w.policyNames(ch.ID)))
	}
	for _, ch := range skipped {
		w.logger.Warn("route change not applied", zap.String("route", ch.ID), zap.String("reason", ch.Reason))
	}
	w.metrics.ObserveReload(reloadOK)
	return nil
}

func (w *Watcher) policyNames(id string) []string {
	r, ok := w.table.Lookup(id)
	if !ok {
		return nil
	}
	return r.Policy().Declared()
}

// Start begins watching and returns once the watch is registered. The
// watch ends when ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf(errCreateWatcherFmt, err)
	}

	// the directory, not the file, so editors' atomic renames are seen
	dir := filepath.Dir(w.path)
	filename := filepath.Base(w.path)

	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf(errWatchDirFmt, dir, err)
	}

	w.logger.Info("watching routes file", zap.String("path", w.path))

	go func() {
		defer watcher.Close()

		var debounceTimer *time.Timer
		for {
			select {
			case <-ctx.Done():
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				w.logger.Info("routes watcher stopped")
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != filename {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}

				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(w.debounce, func() {
					if err := w.Reload(); err != nil {
						w.logger.Warn("failed to reload routes, keeping current permissions", zap.Error(err))
					}
				})

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("routes watcher error", zap.Error(err))
			}
		}
	}()

	return nil
}
