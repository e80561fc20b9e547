// Package watch rebuilds a manifest whenever its file changes.
package watch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	e "shwrap/pkg/errors"
	"shwrap/pkg/logger"
)

// Watcher watches one file and calls OnChange once per burst of writes.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(ctx context.Context) error
	watcher  *fsnotify.Watcher

	// Events receives one value per completed OnChange call. It is only used
	// by tests and may be nil.
	events chan error
}

// New creates a watcher for path. The parent directory is watched so that
// editors that replace the file on save keep triggering rebuilds.
func New(path string, debounce time.Duration, onChange func(ctx context.Context) error) (*Watcher, error) {
	if onChange == nil {
		return nil, e.New(e.ErrInvalidInput, "watch: no change handler")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, e.Wrap(err, e.ErrInvalidInput, "watch: resolve path")
	}
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, e.Wrap(err, e.ErrUnknown, "watch: create watcher")
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, e.Wrap(err, e.ErrInvalidInput, "watch: add directory").WithContext("path", abs)
	}
	return &Watcher{path: abs, debounce: debounce, onChange: onChange, watcher: fw}, nil
}

// Path returns the watched file.
func (w *Watcher) Path() string { return w.path }

// Run blocks until ctx is cancelled. Handler errors are logged and do not
// stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	// Reset never delivers a stale tick since go1.23 timer semantics.
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			logger.Debugw("manifest event", logger.Fields{"op": ev.Op.String(), "path": ev.Name})
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("watch error: %v", err)

		case <-timer.C:
			err := w.onChange(ctx)
			if err != nil {
				logger.Errorf("rebuild of %s failed: %v", w.path, err)
			}
			if w.events != nil {
				w.events <- err
			}
		}
	}
}
