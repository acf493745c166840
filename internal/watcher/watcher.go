// Package watcher reruns the pipeline when the SCIP index file changes.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"squint/internal/slogutil"
)

// ChangeFunc handles a settled change of the watched file.
type ChangeFunc func(ctx context.Context)

// Watcher watches a single file. Indexers usually write the index through a
// temporary file and a rename, so the parent directory is watched and events
// are filtered by name.
type Watcher struct {
	target    string
	fs        *fsnotify.Watcher
	debouncer *Debouncer
	onChange  ChangeFunc
	logger    *slog.Logger

	runMu   sync.Mutex
	changes int
}

// New starts watching path. onChange runs after delay has passed without
// further writes; runs never overlap.
func New(path string, delay time.Duration, logger *slog.Logger, onChange ChangeFunc) (*Watcher, error) {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(target)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	return &Watcher{
		target:    target,
		fs:        fw,
		debouncer: NewDebouncer(delay),
		onChange:  onChange,
		logger:    logger,
	}, nil
}

// Run dispatches events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()
	defer w.debouncer.Cancel()

	w.logger.Info("Watching index", "path", w.target)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("Index changed", "op", event.Op.String())
			w.debouncer.Trigger(func() { w.dispatch(ctx) })
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("File watcher error", "error", err.Error())
		}
	}
}

// Changes returns how many settled changes have been handled.
func (w *Watcher) Changes() int {
	w.runMu.Lock()
	defer w.runMu.Unlock()
	return w.changes
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.target {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

func (w *Watcher) dispatch(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	w.runMu.Lock()
	defer w.runMu.Unlock()
	w.changes++
	w.onChange(ctx)
}
