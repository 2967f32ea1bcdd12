// Package source discovers the stylesheet sources of a build.
package source

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// PartialPrefix marks files that are only meant to be imported.
const PartialPrefix = "_"

// File is a discovered source file. It is immutable and owned by the run
// that discovered it.
type File struct {
	Path string // absolute (or root-joined) path
	Rel  string // path relative to the input root
}

// Eligible reports whether a file name should be compiled on its own:
// it carries the input extension and is not a partial.
func Eligible(name, ext string) bool {
	if strings.HasPrefix(name, PartialPrefix) {
		return false
	}
	return filepath.Ext(name) == "."+ext
}

// Walker traverses an input root and yields eligible files.
type Walker struct {
	FS     FS
	Logger *slog.Logger
}

// NewWalker returns a Walker over the operating system filesystem.
func NewWalker(logger *slog.Logger) *Walker {
	return &Walker{FS: OSFS{}, Logger: logger}
}

// Walk visits root depth-first in lexical order and calls fn for every
// eligible file. Entries that cannot be read are skipped without counting
// them anywhere; the walk only stops when fn returns an error or ctx ends.
func (w *Walker) Walk(ctx context.Context, root, ext string, fn func(File) error) error {
	fsys := w.FS
	if fsys == nil {
		fsys = OSFS{}
	}
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return fsys.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			logger.Debug("Skipping unreadable path", slog.String("path", path), slog.Any("error", walkErr))
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() || !Eligible(info.Name(), ext) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			logger.Debug("Skipping path outside root", slog.String("path", path), slog.Any("error", err))
			return nil
		}
		return fn(File{Path: path, Rel: rel})
	})
}
