package state

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a state file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading state file %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing state file %s: %w", path, err)
	}

	if errs := Validate(&f); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	if f.Fingerprints == nil {
		f.Fingerprints = map[string]string{}
	}
	if f.Outputs == nil {
		f.Outputs = map[string][]string{}
	}
	return &f, nil
}

// Save writes a state file atomically using a temp file and rename.
func Save(path string, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing temp state file %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming temp state file to %s: %w", path, err)
	}
	return nil
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("state file validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks a state file for semantic correctness.
func Validate(f *File) []string {
	var errs []string

	if f.Version != 1 {
		errs = append(errs, fmt.Sprintf("unsupported version %d, only version 1 is supported", f.Version))
	}

	for _, rel := range sortedKeys(f.Fingerprints) {
		if rel == "" || filepath.IsAbs(rel) || strings.HasPrefix(rel, "../") {
			errs = append(errs, fmt.Sprintf("fingerprint path '%s' must be relative to the input root", rel))
		}
		if f.Fingerprints[rel] == "" {
			errs = append(errs, fmt.Sprintf("fingerprint for '%s' is empty", rel))
		}
	}

	for _, src := range sortedKeys(f.Outputs) {
		for _, p := range f.Outputs[src] {
			if !filepath.IsAbs(p) {
				errs = append(errs, fmt.Sprintf("output '%s' of '%s' must be absolute", p, src))
			}
		}
	}
	return errs
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
