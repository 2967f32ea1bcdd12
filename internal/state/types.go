// Package state persists what the last build saw and produced, and uses it
// to answer incremental-build queries.
package state

// DefaultFile is the state file name used when none is configured.
const DefaultFile = ".sassbuild-state.yaml"

// File represents the build state file.
type File struct {
	Version int    `yaml:"version"`
	RunID   string `yaml:"run_id,omitempty"`

	// Settings fingerprints the configuration that shapes the outputs
	// (roots, compiler command and options). A different value means
	// every output may differ.
	Settings string `yaml:"settings,omitempty"`

	// Fingerprints maps every file under the input root (slash separated,
	// relative to the root) to its SHA256. Partials are included because
	// they affect the outputs of the files that import them. Empty when
	// the last run had failures.
	Fingerprints map[string]string `yaml:"fingerprints,omitempty"`

	// Outputs maps a source (relative to the input root) to the absolute
	// paths of the artifacts written for it.
	Outputs map[string][]string `yaml:"outputs,omitempty"`
}

// New returns an empty state at the current version.
func New() *File {
	return &File{
		Version:      1,
		Fingerprints: map[string]string{},
		Outputs:      map[string][]string{},
	}
}

// Merge replaces the recorded outputs of every source present in written.
func (f *File) Merge(written map[string][]string) {
	if f.Outputs == nil {
		f.Outputs = map[string][]string{}
	}
	for src, paths := range written {
		f.Outputs[src] = append([]string(nil), paths...)
	}
}
