package engine

import (
	"log/slog"
	"sync/atomic"
)

// Tally counts processed files and failures. Counters only grow and are
// safe for concurrent use.
type Tally struct {
	seen     atomic.Int64
	failures atomic.Int64
}

// Record counts one processed file.
func (t *Tally) Record(ok bool) {
	t.seen.Add(1)
	if !ok {
		t.failures.Add(1)
	}
}

// Seen returns the number of processed files.
func (t *Tally) Seen() int { return int(t.seen.Load()) }

// Failures returns the number of failed files.
func (t *Tally) Failures() int { return int(t.failures.Load()) }

// Verdict applies the fail-on-error policy to a finished run. Artifacts of
// successful files stay on disk either way.
func Verdict(o *RunOutcome, failOnError bool, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if o.Failures == 0 {
		return nil
	}
	if failOnError {
		return &RunFailure{Failures: o.Failures}
	}
	logger.Error("Build finished with errors, continuing due to fail_on_error=false",
		slog.Int("failures", o.Failures),
		slog.Int("files", o.FilesSeen))
	return nil
}
