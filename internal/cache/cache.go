// Package cache memoizes content fingerprints of source files.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSize bounds the number of remembered files.
const DefaultSize = 1024

type entry struct {
	size    int64
	modTime time.Time
	hash    string
}

// Fingerprints hashes files by content and remembers the result for as long
// as the file's size and modification time are unchanged. It is safe for
// concurrent use.
type Fingerprints struct {
	entries *lru.Cache[string, entry]
}

// New returns a Fingerprints memo holding at most size entries.
func New(size int) (*Fingerprints, error) {
	if size <= 0 {
		size = DefaultSize
	}
	c, err := lru.New[string, entry](size)
	if err != nil {
		return nil, fmt.Errorf("creating fingerprint cache: %w", err)
	}
	return &Fingerprints{entries: c}, nil
}

// Of returns the SHA256 fingerprint of the file at path.
func (f *Fingerprints) Of(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if e, ok := f.entries.Get(path); ok && e.size == info.Size() && e.modTime.Equal(info.ModTime()) {
		return e.hash, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	hash := ComputeHash(data)
	f.entries.Add(path, entry{size: info.Size(), modTime: info.ModTime(), hash: hash})
	return hash, nil
}

// Seen records hash for path and reports whether it equals the hash
// recorded previously. Watchers use it to drop events that did not change
// file content.
func (f *Fingerprints) Seen(path, hash string) bool {
	prev, ok := f.entries.Peek(path)
	if info, err := os.Stat(path); err == nil {
		f.entries.Add(path, entry{size: info.Size(), modTime: info.ModTime(), hash: hash})
	}
	return ok && prev.hash == hash
}

// Forget drops whatever is remembered about path.
func (f *Fingerprints) Forget(path string) {
	f.entries.Remove(path)
}

// Len reports the number of remembered files.
func (f *Fingerprints) Len() int {
	return f.entries.Len()
}

// ComputeHash computes the SHA256 hash of content and returns the hex string.
func ComputeHash(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}
