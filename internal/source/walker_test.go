package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// faultyFS reports a visit error for selected paths.
type faultyFS struct {
	OSFS
	fail map[string]bool
}

func (f faultyFS) Walk(root string, fn filepath.WalkFunc) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if f.fail[path] {
			return fn(path, info, errors.New("permission denied"))
		}
		return fn(path, info, err)
	})
}

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte("/* "+f+" */"), 0644))
	}
}

func collect(t *testing.T, w *Walker, root, ext string) []string {
	t.Helper()
	var rels []string
	err := w.Walk(context.Background(), root, ext, func(f File) error {
		rels = append(rels, filepath.ToSlash(f.Rel))
		return nil
	})
	require.NoError(t, err)
	return rels
}

func TestEligible(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		want bool
	}{
		{"main.scss", "scss", true},
		{"_partial.scss", "scss", false},
		{"_partial.sass", "sass", false},
		{"main.sass", "scss", false},
		{"main.css", "scss", false},
		{"main.scss.bak", "scss", false},
		{"theme.dark.scss", "scss", true},
		{"scss", "scss", false},
	}

	for _, tt := range tests {
		if got := Eligible(tt.name, tt.ext); got != tt.want {
			t.Errorf("Eligible(%q, %q) = %v, want %v", tt.name, tt.ext, got, tt.want)
		}
	}
}

func TestWalkFiltersAndOrders(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"b.scss",
		"a.scss",
		"_vars.scss",
		"notes.txt",
		"z/_mixins.scss",
		"z/y.scss",
		"m/n/deep.scss",
		"m/legacy.sass",
	)

	w := NewWalker(nil)
	got := collect(t, w, root, "scss")
	assert.Equal(t, []string{"a.scss", "b.scss", "m/n/deep.scss", "z/y.scss"}, got)

	// Stable across repeated walks of an unchanged tree.
	assert.Equal(t, got, collect(t, w, root, "scss"))
}

func TestWalkSassSyntax(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.scss", "b.sass", "_c.sass")

	got := collect(t, NewWalker(nil), root, "sass")
	assert.Equal(t, []string{"b.sass"}, got)
}

func TestWalkSkipsUnreadableEntries(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.scss", "locked/b.scss", "locked/c.scss", "d.scss", "e.scss")

	w := &Walker{FS: faultyFS{fail: map[string]bool{
		filepath.Join(root, "locked"): true,
		filepath.Join(root, "d.scss"): true,
	}}}

	got := collect(t, w, root, "scss")
	assert.Equal(t, []string{"a.scss", "e.scss"}, got)
}

func TestWalkStopsOnCallbackError(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.scss", "b.scss")

	fatal := errors.New("fatal")
	var seen int
	err := NewWalker(nil).Walk(context.Background(), root, "scss", func(File) error {
		seen++
		return fatal
	})
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, seen)
}

func TestWalkHonorsCancellation(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.scss")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewWalker(nil).Walk(ctx, root, "scss", func(File) error {
		t.Fatal("no file should be visited")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
