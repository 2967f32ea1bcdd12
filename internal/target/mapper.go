package target

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned when a file does not live under the input root.
// It signals a configuration problem, not a per-file failure.
var ErrOutsideRoot = errors.New("file is not under the input root")

// CompilationTarget holds the artifact locations derived from one source file.
type CompilationTarget struct {
	// CSSPath is the absolute location of the generated style sheet.
	CSSPath string
	// SourceMapPath is the absolute location of the source map.
	SourceMapPath string

	// RelCSS and RelSourceMap are CSSPath and SourceMapPath relative to
	// their respective roots.
	RelCSS       string
	RelSourceMap string
}

// Map derives the output locations for file.
// The relative path between inputRoot and file is reused verbatim under
// outputRoot and sourceMapRoot; only the trailing ".<ext>" is replaced.
func Map(inputRoot, file, outputRoot, sourceMapRoot, ext string) (CompilationTarget, error) {
	rel, err := relativeTo(inputRoot, file)
	if err != nil {
		return CompilationTarget{}, err
	}

	stem := trimExt(rel, ext)
	relCSS := stem + ".css"
	relMap := stem + ".css.map"

	return CompilationTarget{
		CSSPath:       filepath.Join(outputRoot, relCSS),
		SourceMapPath: filepath.Join(sourceMapRoot, relMap),
		RelCSS:        relCSS,
		RelSourceMap:  relMap,
	}, nil
}

// Mapper binds the roots and input extension of a run.
type Mapper struct {
	InputRoot     string
	OutputRoot    string
	SourceMapRoot string
	Ext           string
}

// Map computes the CompilationTarget for file.
func (m Mapper) Map(file string) (CompilationTarget, error) {
	return Map(m.InputRoot, file, m.OutputRoot, m.SourceMapRoot, m.Ext)
}

// MirrorPath returns where a verbatim copy of file goes under the output root,
// along with that location relative to the output root.
func (m Mapper) MirrorPath(file string) (abs, rel string, err error) {
	rel, err = relativeTo(m.InputRoot, file)
	if err != nil {
		return "", "", err
	}
	return filepath.Join(m.OutputRoot, rel), rel, nil
}

func relativeTo(root, file string) (string, error) {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(file))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrOutsideRoot, file, err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s (root %s)", ErrOutsideRoot, file, root)
	}
	return rel, nil
}

// trimExt drops ".<ext>" from the end of rel. Names without that extension
// are kept whole so the artifact name never collides with the source.
func trimExt(rel, ext string) string {
	suffix := "." + ext
	if ext != "" && strings.HasSuffix(rel, suffix) {
		return strings.TrimSuffix(rel, suffix)
	}
	return rel
}
