package metrics

import "time"

// FileResult enumerates per-file result categories.
type FileResult string

const (
	FileCompiled FileResult = "compiled"
	FileFailed   FileResult = "failed"
)

// RunOutcome enumerates final run states.
type RunOutcome string

const (
	RunSuccess RunOutcome = "success"
	RunFailed  RunOutcome = "failed"
	RunSkipped RunOutcome = "skipped"
	RunAborted RunOutcome = "aborted"
)

// Recorder defines observability hooks for runs and per-file compilation.
type Recorder interface {
	ObserveCompileDuration(d time.Duration)
	IncFileResult(result FileResult)
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome RunOutcome)
	IncArtifactsWritten(n int)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveCompileDuration(time.Duration) {}
func (NoopRecorder) IncFileResult(FileResult)             {}
func (NoopRecorder) ObserveRunDuration(time.Duration)     {}
func (NoopRecorder) IncRunOutcome(RunOutcome)             {}
func (NoopRecorder) IncArtifactsWritten(int)              {}
