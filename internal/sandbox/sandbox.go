// Package sandbox confines artifact writes to a root directory.
package sandbox

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidatePath checks that relPath stays inside root once symlinks are
// resolved, and returns the resolved absolute path.
func ValidatePath(root, relPath string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", fmt.Errorf("resolving root symlinks: %w", err)
	}

	candidate := filepath.Clean(filepath.Join(realRoot, relPath))

	// The path may not exist yet, so resolve as much as we can.
	resolved, err := resolveExistingPath(candidate)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	rootPrefix := realRoot + string(filepath.Separator)
	if resolved != realRoot && !strings.HasPrefix(resolved, rootPrefix) {
		return "", fmt.Errorf("path '%s' resolves to '%s' which is outside the root '%s'", relPath, resolved, realRoot)
	}
	return resolved, nil
}

// resolveExistingPath resolves symlinks for the longest existing prefix of
// path and appends the remainder.
func resolveExistingPath(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}

	dir := filepath.Dir(path)
	if dir == path {
		return path, nil
	}
	resolvedDir, err := resolveExistingPath(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedDir, filepath.Base(path)), nil
}

// SafeWrite atomically writes content to relPath inside root, creating
// parent directories as needed and replacing any existing file.
func SafeWrite(root, relPath string, content []byte, perm os.FileMode) error {
	resolved, err := ValidatePath(root, relPath)
	if err != nil {
		return err
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	// Temp file in the target directory keeps the rename on one filesystem.
	tmp, err := os.CreateTemp(dir, ".sassbuild-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, resolved); err != nil {
		return fmt.Errorf("renaming temp file to %s: %w", resolved, err)
	}

	success = true
	return nil
}

// SafeCopy copies src verbatim to relPath inside root.
func SafeCopy(src, root, relPath string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("reading %s: %w", src, err)
	}
	return SafeWrite(root, relPath, data, 0644)
}

// SafeRemove removes a file inside root.
func SafeRemove(root, relPath string) error {
	resolved, err := ValidatePath(root, relPath)
	if err != nil {
		return err
	}
	return os.Remove(resolved)
}

// Snapshot records the state of a file before it is overwritten so the
// write can be undone.
type Snapshot struct {
	root    string
	relPath string
	content []byte
	existed bool
}

// Take captures the current content of relPath inside root.
func Take(root, relPath string) (Snapshot, error) {
	s := Snapshot{root: root, relPath: relPath}
	resolved, err := ValidatePath(root, relPath)
	if err != nil {
		return s, err
	}
	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		s.content, s.existed = data, true
	case !errors.Is(err, os.ErrNotExist):
		return s, fmt.Errorf("reading %s: %w", resolved, err)
	}
	return s, nil
}

// Restore puts the file back the way Take found it.
func (s Snapshot) Restore() error {
	if s.existed {
		return SafeWrite(s.root, s.relPath, s.content, 0644)
	}
	err := SafeRemove(s.root, s.relPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
