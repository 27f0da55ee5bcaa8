// Package watch reruns a callback when a file changes.
package watch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	apperrors "github.com/msto63/etlap/pkg/core/errors"
	"github.com/msto63/etlap/pkg/core/logging"
)

// DefaultDebounce is used when no debounce delay is given
const DefaultDebounce = 500 * time.Millisecond

// Watcher observes a single file. Its directory is watched so the file may
// be replaced by rename, as editors and sync clients do.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(ctx context.Context) error
	logger   *logging.Logger
}

// New creates a watcher that calls onChange once per burst of changes to
// path, after debounce has passed without further events
func New(path string, debounce time.Duration, onChange func(ctx context.Context) error, logger *logging.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
	}
}

// Run watches until ctx is cancelled. Callback errors are logged and do not
// stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return apperrors.Wrap(err, "failed to create watcher").
			WithCode(apperrors.CodeIOError).
			WithOperation("watch.Run")
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return apperrors.Wrap(err, "failed to watch directory").
			WithCode(apperrors.CodeIOError).
			WithOperation("watch.Run").
			WithDetail("dir", dir)
	}
	w.logger.Info("watching for changes", "file", w.path, "debounce", w.debounce)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stopping watcher")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("file event", "file", event.Name, "op", event.Op.String())
			timer.Reset(w.debounce)

		case <-timer.C:
			if err := w.onChange(ctx); err != nil {
				w.logger.LogError("change handler failed", err, "file", w.path)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Rename)
}
