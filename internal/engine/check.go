package engine

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bianoble/sassbuild/internal/config"
	"github.com/bianoble/sassbuild/internal/source"
	"github.com/bianoble/sassbuild/internal/target"
)

// CheckEngine verifies that every eligible source has up-to-date artifacts.
type CheckEngine struct {
	Walker *source.Walker
	Logger *slog.Logger
}

// Check reports sources whose stylesheet (or source map, when maps are
// written as separate files) is missing or older than the newest file under
// the input root. Partials count towards the newest time because any
// source may import them.
func (e *CheckEngine) Check(ctx context.Context, cfg *config.Config) (*CheckResult, error) {
	inputRoot := cfg.InputRoot()
	if _, err := os.ReadDir(inputRoot); err != nil {
		return nil, &ConfigError{Op: "reading input root", Path: inputRoot, Err: err}
	}

	newest, err := newestModTime(inputRoot)
	if err != nil {
		return nil, err
	}

	mapper := target.Mapper{
		InputRoot:     inputRoot,
		OutputRoot:    cfg.OutputRoot(),
		SourceMapRoot: cfg.SourceMapRoot(),
		Ext:           cfg.Ext(),
	}
	wantMap := cfg.GenerateSourceMap && !cfg.EmbedSourceMapInCSS

	walker := e.Walker
	if walker == nil {
		walker = source.NewWalker(e.Logger)
	}

	result := &CheckResult{Clean: true}
	err = walker.Walk(ctx, inputRoot, mapper.Ext, func(f source.File) error {
		tgt, err := mapper.Map(f.Path)
		if err != nil {
			return &ConfigError{Op: "mapping", Path: f.Path, Err: err}
		}
		result.Checked++

		paths := []string{tgt.CSSPath}
		if wantMap {
			paths = append(paths, tgt.SourceMapPath)
		}
		for _, p := range paths {
			info, err := os.Stat(p)
			switch {
			case err != nil:
				result.Missing = append(result.Missing, p)
				result.Clean = false
			case info.ModTime().Before(newest):
				result.Stale = append(result.Stale, p)
				result.Clean = false
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func newestModTime(root string) (time.Time, error) {
	var newest time.Time
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.IsDir() && info.ModTime().After(newest) {
			newest = info.ModTime()
		}
		return nil
	})
	return newest, err
}
