package source

import (
	"os"
	"path/filepath"
)

// FS abstracts the filesystem operations discovery needs, so tests can
// inject unreadable entries.
type FS interface {
	ReadFile(path string) ([]byte, error)
	Walk(root string, fn filepath.WalkFunc) error
	Stat(path string) (os.FileInfo, error)
}

// OSFS implements FS using the real operating system filesystem.
type OSFS struct{}

func (OSFS) ReadFile(path string) ([]byte, error)          { return os.ReadFile(path) }
func (OSFS) Walk(root string, fn filepath.WalkFunc) error { return filepath.Walk(root, fn) }
func (OSFS) Stat(path string) (os.FileInfo, error)        { return os.Stat(path) }
