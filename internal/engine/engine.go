// Package engine runs builds: it walks the input root, compiles every
// eligible source and aggregates the results.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/bianoble/sassbuild/internal/compiler"
	"github.com/bianoble/sassbuild/internal/config"
	"github.com/bianoble/sassbuild/internal/diagnostic"
	"github.com/bianoble/sassbuild/internal/host"
	"github.com/bianoble/sassbuild/internal/metrics"
	"github.com/bianoble/sassbuild/internal/source"
	"github.com/bianoble/sassbuild/internal/target"
)

// CompileEngine orchestrates a build run.
type CompileEngine struct {
	Compiler compiler.Compiler
	Host     *host.Adapter
	Walker   *source.Walker
	Metrics  metrics.Recorder
	Logger   *slog.Logger
}

// Run builds every eligible source under the configured input root.
//
// A missing input root or an output root that cannot be created aborts the
// run with a *ConfigError before anything is compiled. When the host reports
// incremental mode without a pending delta the run is skipped. Otherwise
// the outcome is returned together with the fail_on_error verdict.
func (e *CompileEngine) Run(ctx context.Context, cfg *config.Config) (*RunOutcome, error) {
	start := time.Now()
	outcome := &RunOutcome{RunID: uuid.NewString()}
	logger := e.logger().With(slog.String("run_id", outcome.RunID))
	rec := e.recorder()

	inputRoot := cfg.InputRoot()
	if _, err := os.ReadDir(inputRoot); err != nil {
		rec.IncRunOutcome(metrics.RunAborted)
		return nil, &ConfigError{Op: "reading input root", Path: inputRoot, Err: err}
	}

	if !e.Host.ShouldRun(inputRoot) {
		logger.Info("No changes detected, skipping build", slog.String("input", inputRoot))
		outcome.Skipped = true
		rec.IncRunOutcome(metrics.RunSkipped)
		return outcome, nil
	}

	mapper := target.Mapper{
		InputRoot:     inputRoot,
		OutputRoot:    cfg.OutputRoot(),
		SourceMapRoot: cfg.SourceMapRoot(),
		Ext:           cfg.Ext(),
	}
	for _, dir := range []string{mapper.OutputRoot, mapper.SourceMapRoot} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			rec.IncRunOutcome(metrics.RunAborted)
			return nil, &ConfigError{Op: "creating output root", Path: dir, Err: err}
		}
	}

	driver := &Driver{
		Mapper:     mapper,
		Compiler:   e.Compiler,
		CopySource: cfg.CopySourceToOutput,
		Host:       e.Host,
		Extractor:  &diagnostic.Extractor{Logger: logger},
		Metrics:    rec,
		Logger:     logger,
	}

	walker := e.Walker
	if walker == nil {
		walker = source.NewWalker(logger)
	}

	var tally Tally
	walkErr := walker.Walk(ctx, inputRoot, mapper.Ext, func(f source.File) error {
		res, err := driver.Compile(ctx, f)
		if err != nil {
			return err
		}
		tally.Record(res.OK)
		outcome.Written = append(outcome.Written, res.Written...)
		return nil
	})

	outcome.FilesSeen = tally.Seen()
	outcome.Failures = tally.Failures()
	outcome.Duration = time.Since(start)
	rec.ObserveRunDuration(outcome.Duration)

	if walkErr != nil {
		outcome.Aborted = true
		rec.IncRunOutcome(metrics.RunAborted)
		var cerr *ConfigError
		if !errors.As(walkErr, &cerr) {
			logger.Warn("Build aborted", slog.Any("error", walkErr))
		}
		return outcome, walkErr
	}

	logger.Info("Compiled files",
		slog.Int("files", outcome.FilesSeen),
		slog.Int("failures", outcome.Failures),
		slog.Duration("duration", outcome.Duration))

	if err := Verdict(outcome, cfg.FailOnError, logger); err != nil {
		rec.IncRunOutcome(metrics.RunFailed)
		return outcome, err
	}
	rec.IncRunOutcome(metrics.RunSuccess)
	return outcome, nil
}

func (e *CompileEngine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func (e *CompileEngine) recorder() metrics.Recorder {
	if e.Metrics == nil {
		return metrics.NoopRecorder{}
	}
	return e.Metrics
}
