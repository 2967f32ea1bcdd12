// Package host binds optional incremental-build hosts.
//
// A host is any value implementing some subset of the capability
// interfaces below. Capabilities are detected once in Bind; a missing
// capability answers with a safe default instead of failing.
package host

import (
	"log/slog"

	"github.com/bianoble/sassbuild/internal/diagnostic"
)

// IncrementalReporter reports whether the host is in incremental mode.
type IncrementalReporter interface {
	IsIncremental() bool
}

// DeltaReporter reports whether path changed since the last build.
type DeltaReporter interface {
	HasDelta(path string) bool
}

// DiagnosticSink receives compilation diagnostics.
type DiagnosticSink interface {
	AddMessage(d diagnostic.Diagnostic)
}

// Refresher is told about every file the build writes.
type Refresher interface {
	Refresh(path string)
}

// Adapter is the bound view of zero or more hosts.
type Adapter struct {
	incremental IncrementalReporter
	delta       DeltaReporter
	sinks       []DiagnosticSink
	refreshers  []Refresher
	bound       bool
}

// Bind inspects hosts for capabilities. Nil hosts are ignored; with no hosts
// left the adapter is unbound. Queries are answered by the first host that
// implements them, notifications fan out to every host.
func Bind(logger *slog.Logger, hosts ...any) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Adapter{}
	for _, h := range hosts {
		if h == nil {
			continue
		}
		a.bound = true
		if r, ok := h.(IncrementalReporter); ok && a.incremental == nil {
			a.incremental = r
		}
		if r, ok := h.(DeltaReporter); ok && a.delta == nil {
			a.delta = r
		}
		if s, ok := h.(DiagnosticSink); ok {
			a.sinks = append(a.sinks, s)
		}
		if r, ok := h.(Refresher); ok {
			a.refreshers = append(a.refreshers, r)
		}
	}
	if a.bound {
		logger.Debug("Bound build host", slog.Any("capabilities", a.Capabilities()))
	}
	return a
}

// Bound reports whether any host is present.
func (a *Adapter) Bound() bool {
	return a != nil && a.bound
}

// IsIncremental defaults to false.
func (a *Adapter) IsIncremental() bool {
	if a == nil || a.incremental == nil {
		return false
	}
	return a.incremental.IsIncremental()
}

// HasDelta defaults to true.
func (a *Adapter) HasDelta(path string) bool {
	if a == nil || a.delta == nil {
		return true
	}
	return a.delta.HasDelta(path)
}

// ShouldRun decides whether a run over inputRoot executes at all. Only a
// bound host in incremental mode without a pending delta skips it.
func (a *Adapter) ShouldRun(inputRoot string) bool {
	if !a.Bound() {
		return true
	}
	if !a.IsIncremental() {
		return true
	}
	return a.HasDelta(inputRoot)
}

// Report forwards d to every sink.
func (a *Adapter) Report(d diagnostic.Diagnostic) {
	if a == nil {
		return
	}
	for _, s := range a.sinks {
		s.AddMessage(d)
	}
}

// Refresh notifies every refresher about a written path.
func (a *Adapter) Refresh(path string) {
	if a == nil {
		return
	}
	for _, r := range a.refreshers {
		r.Refresh(path)
	}
}

// Capabilities lists the bound capability names, for logging.
func (a *Adapter) Capabilities() []string {
	var caps []string
	if a == nil {
		return caps
	}
	if a.incremental != nil {
		caps = append(caps, "incremental")
	}
	if a.delta != nil {
		caps = append(caps, "delta")
	}
	if len(a.sinks) > 0 {
		caps = append(caps, "diagnostics")
	}
	if len(a.refreshers) > 0 {
		caps = append(caps, "refresh")
	}
	return caps
}
