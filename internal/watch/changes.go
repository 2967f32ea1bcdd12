// Package watch rebuilds on filesystem changes. Changes is the build host
// that answers incremental queries from the set of paths touched since the
// last run; Watcher feeds it from fsnotify and Poller from periodic scans.
package watch

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bianoble/sassbuild/internal/cache"
)

// Changes records paths modified since the last build.
type Changes struct {
	mu        sync.Mutex
	inputRoot string
	ignore    []string
	seen      *cache.Fingerprints
	pending   map[string]struct{}
	primed    bool
}

// NewChanges tracks changes under inputRoot. Paths under any of the ignore
// roots (typically the output directories) are never recorded.
func NewChanges(inputRoot string, ignore []string, seen *cache.Fingerprints) *Changes {
	var roots []string
	for _, r := range ignore {
		r = filepath.Clean(r)
		if r != filepath.Clean(inputRoot) {
			roots = append(roots, r)
		}
	}
	return &Changes{
		inputRoot: filepath.Clean(inputRoot),
		ignore:    roots,
		seen:      seen,
		pending:   map[string]struct{}{},
	}
}

// IsIncremental is false until the first build has been drained.
func (c *Changes) IsIncremental() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.primed
}

// HasDelta reports whether anything under path changed.
func (c *Changes) HasDelta(path string) bool {
	path = filepath.Clean(path)
	c.mu.Lock()
	defer c.mu.Unlock()
	for p := range c.pending {
		if within(path, p) {
			return true
		}
	}
	return false
}

// Seed records the content of every file under the input root so later
// events that leave content unchanged are dropped.
func (c *Changes) Seed() {
	_ = filepath.WalkDir(c.inputRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if c.Ignored(path) && path != c.inputRoot {
				return filepath.SkipDir
			}
			return nil
		}
		if data, err := os.ReadFile(path); err == nil {
			c.seen.Seen(path, cache.ComputeHash(data))
		}
		return nil
	})
}

// Note records an event for path and reports whether it counts as a
// change. Writes that leave the content as it was do not.
func (c *Changes) Note(path string) bool {
	path = filepath.Clean(path)
	if c.Ignored(path) {
		return false
	}
	info, err := os.Stat(path)
	switch {
	case err != nil:
		c.seen.Forget(path)
	case info.IsDir():
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			c.seen.Forget(path)
		} else if c.seen.Seen(path, cache.ComputeHash(data)) {
			return false
		}
	}
	c.mark(path)
	return true
}

// Drain clears the pending set and returns it sorted. The first drain
// switches the host to incremental mode.
func (c *Changes) Drain() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.pending))
	for p := range c.pending {
		out = append(out, p)
	}
	sort.Strings(out)
	c.pending = map[string]struct{}{}
	c.primed = true
	return out
}

// Pending reports the number of recorded changes.
func (c *Changes) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Ignored reports whether events for path are dropped: it lies outside the
// input root, under an ignore root, or names a hidden or editor temp file.
func (c *Changes) Ignored(path string) bool {
	if !within(c.inputRoot, path) {
		return true
	}
	for _, r := range c.ignore {
		if within(r, path) {
			return true
		}
	}
	return shouldIgnoreName(filepath.Base(path))
}

func (c *Changes) mark(path string) {
	c.mu.Lock()
	c.pending[path] = struct{}{}
	c.mu.Unlock()
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func shouldIgnoreName(base string) bool {
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}
