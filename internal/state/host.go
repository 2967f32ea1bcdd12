package state

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bianoble/sassbuild/internal/cache"
)

// Scan fingerprints every regular file under root. Unreadable entries are
// skipped.
func Scan(root string, fp *cache.Fingerprints) (map[string]string, error) {
	out := map[string]string{}
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		hash, err := fp.Of(path)
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		out[filepath.ToSlash(rel)] = hash
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	return out, nil
}

// Host answers incremental-build queries from the state file of the
// previous run.
type Host struct {
	path      string
	inputRoot string
	full      bool
	prev      *File
	settings  string
	fp        *cache.Fingerprints
	logger    *slog.Logger
}

// Open loads the state at path. A missing file means no previous build;
// an unreadable or invalid one is logged and treated the same way. With
// full set the host never reports incremental mode.
func Open(path, inputRoot string, full bool, fp *cache.Fingerprints, logger *slog.Logger) (*Host, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if fp == nil {
		var err error
		if fp, err = cache.New(cache.DefaultSize); err != nil {
			return nil, err
		}
	}

	h := &Host{path: path, inputRoot: inputRoot, full: full, fp: fp, logger: logger}
	prev, err := Load(path)
	switch {
	case err == nil:
		h.prev = prev
	case errors.Is(err, os.ErrNotExist):
	default:
		logger.Warn("Ignoring unusable build state", slog.String("path", path), slog.Any("error", err))
	}
	return h, nil
}

// WithSettings sets the settings fingerprint of the current run. A
// previous state recorded under other settings always reports a delta.
func (h *Host) WithSettings(fingerprint string) *Host {
	h.settings = fingerprint
	return h
}

// Previous returns the loaded state, or an empty one.
func (h *Host) Previous() *File {
	if h.prev == nil {
		return New()
	}
	return h.prev
}

// IsIncremental reports whether a previous clean build can be compared
// against.
func (h *Host) IsIncremental() bool {
	return !h.full && h.prev != nil && len(h.prev.Fingerprints) > 0
}

// HasDelta reports whether any file under path was added, removed or
// changed since the previous clean build. Changed settings and recorded
// outputs that have gone missing count as a delta too.
func (h *Host) HasDelta(path string) bool {
	if h.prev == nil {
		return true
	}
	if h.prev.Settings != h.settings {
		h.logger.Debug("Build settings changed", slog.String("previous", h.prev.Settings), slog.String("current", h.settings))
		return true
	}
	prefix, err := filepath.Rel(h.inputRoot, path)
	if err != nil || prefix == ".." || strings.HasPrefix(prefix, "../") {
		return true
	}
	prefix = filepath.ToSlash(prefix)

	current, err := Scan(h.inputRoot, h.fp)
	if err != nil {
		h.logger.Debug("Scan failed, assuming changes", slog.Any("error", err))
		return true
	}
	if changed(h.prev.Fingerprints, current, prefix) {
		return true
	}
	return h.missingOutput(current)
}

// missingOutput reports whether a recorded output of a source that still
// exists is gone. Outputs of removed sources are left to prune.
func (h *Host) missingOutput(current map[string]string) bool {
	for _, src := range sortedKeys(h.prev.Outputs) {
		if _, ok := current[src]; !ok {
			continue
		}
		for _, out := range h.prev.Outputs[src] {
			if _, err := os.Stat(out); err != nil {
				h.logger.Debug("Recorded output is missing", slog.String("source", src), slog.String("path", out))
				return true
			}
		}
	}
	return false
}

func changed(prev, current map[string]string, prefix string) bool {
	under := func(rel string) bool {
		return prefix == "." || rel == prefix || strings.HasPrefix(rel, prefix+"/")
	}
	for rel, hash := range current {
		if under(rel) && prev[rel] != hash {
			return true
		}
	}
	for rel := range prev {
		if _, ok := current[rel]; !ok && under(rel) {
			return true
		}
	}
	return false
}

// Commit records the result of a run. Fingerprints are kept only when the
// run was clean so that the next run after a failure is a full one.
func (h *Host) Commit(runID string, clean bool, written map[string][]string) error {
	next := New()
	next.RunID = runID
	next.Settings = h.settings
	if h.prev != nil {
		next.Merge(h.prev.Outputs)
	}
	next.Merge(written)

	if clean {
		current, err := Scan(h.inputRoot, h.fp)
		if err != nil {
			return err
		}
		next.Fingerprints = current
	}

	if err := Save(h.path, next); err != nil {
		return err
	}
	h.prev = next
	return nil
}

// Forget drops the recorded outputs of the given sources and saves.
func (h *Host) Forget(sources []string) error {
	if h.prev == nil || len(sources) == 0 {
		return nil
	}
	for _, src := range sources {
		delete(h.prev.Outputs, src)
	}
	return Save(h.path, h.prev)
}
