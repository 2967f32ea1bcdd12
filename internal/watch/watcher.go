package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher rebuilds when fsnotify reports changes under the input root.
type Watcher struct {
	changes  *Changes
	fsw      *fsnotify.Watcher
	Debounce time.Duration
	logger   *slog.Logger
}

// New watches every directory under the tracked input root.
func New(changes *Changes, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	w := &Watcher{changes: changes, fsw: fsw, Debounce: DefaultDebounce, logger: logger}
	if err := w.addDirsRecursive(changes.inputRoot); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run handles events until ctx ends, calling fn once per debounced burst
// of changes.
func (w *Watcher) Run(ctx context.Context, fn RebuildFunc) error {
	r := newRebuilder(w.changes, w.Debounce, fn)
	defer r.stop()

	w.logger.Info("Watching for changes", slog.String("input", w.changes.inputRoot))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.handle(ev) {
				r.schedule()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", slog.Any("error", err))
		case <-r.trigger:
			r.fire(ctx)
		}
	}
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) handle(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if w.changes.Ignored(ev.Name) {
		return false
	}
	if ev.Op&fsnotify.Create != 0 {
		if err := w.addDirsRecursive(ev.Name); err != nil {
			w.logger.Debug("Watch add failed", slog.String("path", ev.Name), slog.Any("error", err))
		}
	}
	changed := w.changes.Note(ev.Name)
	if changed {
		w.logger.Debug("Change detected", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
	}
	return changed
}

// addDirsRecursive adds root and its subdirectories, skipping ignored
// ones. A root that is a file is a no-op.
func (w *Watcher) addDirsRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != w.changes.inputRoot && w.changes.Ignored(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("Watch add failed", slog.String("dir", path), slog.Any("error", err))
		}
		return nil
	})
}
