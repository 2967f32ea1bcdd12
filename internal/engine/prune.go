package engine

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bianoble/sassbuild/internal/config"
	"github.com/bianoble/sassbuild/internal/sandbox"
	"github.com/bianoble/sassbuild/internal/state"
)

// PruneEngine removes artifacts whose sources no longer exist.
type PruneEngine struct {
	Logger *slog.Logger
}

// PruneOptions configures a prune operation.
type PruneOptions struct {
	DryRun bool
}

// Prune removes the recorded outputs of every source that is gone from the
// input root. Only files inside the output or source map root are touched.
func (e *PruneEngine) Prune(ctx context.Context, prev *state.File, cfg *config.Config, opts PruneOptions) (*PruneResult, error) {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	result := &PruneResult{}
	inputRoot := cfg.InputRoot()
	roots := []string{cfg.OutputRoot(), cfg.SourceMapRoot()}

	sources := make([]string, 0, len(prev.Outputs))
	for src := range prev.Outputs {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if _, err := os.Stat(filepath.Join(inputRoot, filepath.FromSlash(src))); err == nil {
			continue
		}

		clean := true
		for _, path := range prev.Outputs[src] {
			root, rel, ok := within(roots, path)
			if !ok {
				logger.Warn("Not pruning output outside the output roots", slog.String("path", path))
				clean = false
				continue
			}
			if opts.DryRun {
				result.Removed = append(result.Removed, FileAction{Source: src, Path: path, Action: "would remove"})
				continue
			}
			err := sandbox.SafeRemove(root, rel)
			switch {
			case err == nil:
				result.Removed = append(result.Removed, FileAction{Source: src, Path: path, Action: "removed"})
			case errors.Is(err, os.ErrNotExist):
			default:
				result.Errors = append(result.Errors, SourceError{Source: src, Err: err})
				clean = false
			}
		}
		if clean && !opts.DryRun {
			result.Sources = append(result.Sources, src)
		}
	}
	return result, nil
}

// within finds the root that contains path.
func within(roots []string, path string) (root, rel string, ok bool) {
	for _, r := range roots {
		rel, err := filepath.Rel(r, path)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return r, rel, true
	}
	return "", "", false
}
