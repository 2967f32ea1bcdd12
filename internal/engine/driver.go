package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/bianoble/sassbuild/internal/compiler"
	"github.com/bianoble/sassbuild/internal/diagnostic"
	"github.com/bianoble/sassbuild/internal/host"
	"github.com/bianoble/sassbuild/internal/metrics"
	"github.com/bianoble/sassbuild/internal/sandbox"
	"github.com/bianoble/sassbuild/internal/source"
	"github.com/bianoble/sassbuild/internal/target"
)

// FileResult is the result of compiling one source. OK files have
// artifacts on disk; failed files have exactly one Diagnostic.
type FileResult struct {
	OK         bool
	Written    []FileAction
	Diagnostic *diagnostic.Diagnostic
}

// Driver compiles one source file at a time.
type Driver struct {
	Mapper     target.Mapper
	Compiler   compiler.Compiler
	CopySource bool
	Host       *host.Adapter
	Extractor  *diagnostic.Extractor
	Metrics    metrics.Recorder
	Logger     *slog.Logger
}

// Compile maps, compiles and writes f. Per-file problems become a
// Diagnostic; only a mapping error, which means the roots are
// misconfigured, is returned as an error.
func (d *Driver) Compile(ctx context.Context, f source.File) (FileResult, error) {
	tgt, err := d.Mapper.Map(f.Path)
	if err != nil {
		return FileResult{}, &ConfigError{Op: "mapping", Path: f.Path, Err: err}
	}
	rel := filepath.ToSlash(f.Rel)
	var res FileResult

	input := f.Path
	if d.CopySource {
		abs, mirrorRel, err := d.Mapper.MirrorPath(f.Path)
		if err != nil {
			return FileResult{}, &ConfigError{Op: "mapping", Path: f.Path, Err: err}
		}
		if err := sandbox.SafeCopy(f.Path, d.Mapper.OutputRoot, mirrorRel); err != nil {
			return d.fail(res, f.Path, fmt.Errorf("copying source to output: %w", err)), nil
		}
		d.wrote(&res, rel, abs, "mirrored")
		input = abs
	}

	d.logger().Debug("Processing file", slog.String("file", input))
	start := time.Now()
	out, err := d.Compiler.CompileFile(ctx, compiler.Request{
		Input:           input,
		OutputCSS:       tgt.CSSPath,
		OutputSourceMap: tgt.SourceMapPath,
	})
	d.recorder().ObserveCompileDuration(time.Since(start))
	if err != nil {
		return d.fail(res, input, err), nil
	}

	snap, err := sandbox.Take(d.Mapper.OutputRoot, tgt.RelCSS)
	if err != nil {
		return d.fail(res, input, err), nil
	}
	if err := sandbox.SafeWrite(d.Mapper.OutputRoot, tgt.RelCSS, []byte(out.CSS), 0644); err != nil {
		return d.fail(res, input, fmt.Errorf("writing %s: %w", tgt.CSSPath, err)), nil
	}
	if out.SourceMap != "" {
		if err := sandbox.SafeWrite(d.Mapper.SourceMapRoot, tgt.RelSourceMap, []byte(out.SourceMap), 0644); err != nil {
			if rerr := snap.Restore(); rerr != nil {
				d.logger().Warn("Could not restore stylesheet", slog.String("path", tgt.CSSPath), slog.Any("error", rerr))
			}
			return d.fail(res, input, fmt.Errorf("writing %s: %w", tgt.SourceMapPath, err)), nil
		}
	}

	d.wrote(&res, rel, tgt.CSSPath, "written")
	if out.SourceMap != "" {
		d.wrote(&res, rel, tgt.SourceMapPath, "written")
	}
	d.recorder().IncFileResult(metrics.FileCompiled)
	res.OK = true
	return res, nil
}

func (d *Driver) wrote(res *FileResult, rel, path, action string) {
	res.Written = append(res.Written, FileAction{Source: rel, Path: path, Action: action})
	d.recorder().IncArtifactsWritten(1)
	d.Host.Refresh(path)
}

// fail turns err into the file's single Diagnostic, reports it and logs it.
func (d *Driver) fail(res FileResult, file string, err error) FileResult {
	diag := diagnostic.Diagnostic{
		Severity: diagnostic.SeverityError,
		File:     file,
		Message:  err.Error(),
		Cause:    err,
	}
	var cerr *compiler.CompilationError
	if errors.As(err, &cerr) {
		diag.Message = cerr.Message
		diag.Payload = cerr.Payload
		diag.Line, diag.Column = d.extractor().Extract(cerr.Payload)
	}

	d.Host.Report(diag)
	d.logger().Error(diag.Message, diag.LogAttrs()...)
	d.recorder().IncFileResult(metrics.FileFailed)

	res.OK = false
	res.Diagnostic = &diag
	return res
}

func (d *Driver) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

func (d *Driver) recorder() metrics.Recorder {
	if d.Metrics == nil {
		return metrics.NoopRecorder{}
	}
	return d.Metrics
}

func (d *Driver) extractor() *diagnostic.Extractor {
	if d.Extractor == nil {
		return &diagnostic.Extractor{Logger: d.logger()}
	}
	return d.Extractor
}
