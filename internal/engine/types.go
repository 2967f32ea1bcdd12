package engine

import (
	"fmt"
	"time"
)

// FileAction represents an action taken on a single file during a build or prune.
type FileAction struct {
	Source string // source path relative to the input root
	Path   string // absolute path of the affected file
	Action string // "written", "mirrored", "removed", "would remove"
}

// SourceError represents an error associated with a specific source.
type SourceError struct {
	Source string
	Err    error
}

func (e SourceError) Error() string {
	return e.Source + ": " + e.Err.Error()
}

func (e SourceError) Unwrap() error {
	return e.Err
}

// ConfigError aborts a run before any file is processed, or when a
// discovered file cannot be mapped under the configured roots.
type ConfigError struct {
	Op   string
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// RunFailure is the single summary error of a run whose files failed while
// fail_on_error is set. Individual diagnostics were reported as they
// occurred.
type RunFailure struct {
	Failures int
}

func (e *RunFailure) Error() string {
	return fmt.Sprintf("failed with %d errors", e.Failures)
}

// RunOutcome summarizes one run.
type RunOutcome struct {
	RunID     string
	FilesSeen int
	Failures  int
	Aborted   bool
	Skipped   bool
	Written   []FileAction
	Duration  time.Duration
}

// WrittenBySource groups the written paths by source.
func (o *RunOutcome) WrittenBySource() map[string][]string {
	out := make(map[string][]string)
	for _, w := range o.Written {
		out[w.Source] = append(out[w.Source], w.Path)
	}
	return out
}

// CheckResult holds the outcome of a check operation.
type CheckResult struct {
	Clean   bool
	Checked int
	Missing []string
	Stale   []string
}

// PruneResult holds the outcome of a prune operation.
type PruneResult struct {
	Removed []FileAction
	Sources []string // sources whose outputs were all pruned
	Errors  []SourceError
}
