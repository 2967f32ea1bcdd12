package compiler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// DefaultCommand is the Dart Sass executable looked up on PATH.
const DefaultCommand = "sass"

var (
	mappingURLPattern = regexp.MustCompile(`/\*# sourceMappingURL=[^\s*]+ \*/\n?`)
	// traceLinePattern matches the location trailer Dart Sass prints under
	// an error, e.g. "  src/main.scss 4:12  root stylesheet".
	traceLinePattern = regexp.MustCompile(`(?m)^[ \t]+(\S[^\n]*?)[ \t]+(\d+):(\d+)[ \t]+\S[^\n]*$`)
)

// Exec compiles stylesheets by running the Dart Sass command line.
type Exec struct {
	Command string
	Args    []string // extra arguments placed before the generated ones
	Options Options
	Logger  *slog.Logger
}

// NewExec returns an Exec compiler. Options the command line cannot express
// are reported once here rather than on every file.
func NewExec(command string, args []string, opts Options, logger *slog.Logger) *Exec {
	if command == "" {
		command = DefaultCommand
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.SourceComments {
		logger.Warn("generate_source_comments is not supported by the sass command line and is ignored")
	}
	if opts.Precision > 0 {
		logger.Debug("Numeric precision is fixed by the sass command line", slog.Int("precision", opts.Precision))
	}
	return &Exec{Command: command, Args: args, Options: opts, Logger: logger}
}

// CompileFile runs the compiler for one input and returns the generated CSS
// and source map without touching the requested output locations.
func (c *Exec) CompileFile(ctx context.Context, req Request) (*Output, error) {
	tmp, err := os.MkdirTemp("", "sassbuild-*")
	if err != nil {
		return nil, fmt.Errorf("creating compiler scratch directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	scratchCSS := filepath.Join(tmp, filepath.Base(req.OutputCSS))
	args := append(append([]string{}, c.Args...), c.arguments()...)
	args = append(args, req.Input, scratchCSS)

	cmd := exec.CommandContext(ctx, c.Command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.Logger.Debug("Running compiler", slog.String("command", c.Command), slog.Any("args", args))
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, newCompilationError(req.Input, stderr.String())
		}
		return nil, fmt.Errorf("running %s: %w", c.Command, err)
	}

	css, err := os.ReadFile(scratchCSS)
	if err != nil {
		return nil, fmt.Errorf("reading compiler output: %w", err)
	}

	out := &Output{CSS: string(css)}
	if c.Options.SourceMap && !c.Options.EmbedSourceMap {
		sm, err := os.ReadFile(scratchCSS + ".map")
		switch {
		case err == nil:
			out.SourceMap = string(sm)
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("reading compiler source map: %w", err)
		}
		out.CSS = c.relinkSourceMap(out.CSS, req)
	}
	return out, nil
}

// Version reports the compiler version string.
func (c *Exec) Version(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, c.Command, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("running %s --version: %w", c.Command, err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (c *Exec) arguments() []string {
	o := c.Options
	args := []string{"--no-color", "--no-unicode", "--style=" + cliStyle(o.OutputStyle)}
	for _, p := range o.IncludePaths {
		args = append(args, "--load-path="+p)
	}
	if !o.SourceMap {
		return append(args, "--no-source-map")
	}
	// Absolute source URLs keep the map valid after it is moved out of the
	// scratch directory.
	args = append(args, "--source-map-urls=absolute")
	if o.EmbedSources {
		args = append(args, "--embed-sources")
	}
	if o.EmbedSourceMap {
		args = append(args, "--embed-source-map")
	}
	return args
}

// relinkSourceMap points the sourceMappingURL comment at the final map
// location, or drops it when requested.
func (c *Exec) relinkSourceMap(css string, req Request) string {
	if c.Options.OmitSourceMapURL {
		return mappingURLPattern.ReplaceAllString(css, "")
	}
	rel, err := filepath.Rel(filepath.Dir(req.OutputCSS), req.OutputSourceMap)
	if err != nil {
		rel = req.OutputSourceMap
	}
	comment := "/*# sourceMappingURL=" + filepath.ToSlash(rel) + " */\n"
	return mappingURLPattern.ReplaceAllLiteralString(css, comment)
}

func cliStyle(s OutputStyle) string {
	if s == StyleCompressed {
		return "compressed"
	}
	return "expanded"
}

// errorReport mirrors the libsass error JSON so downstream tooling sees the
// same shape regardless of which compiler produced it.
type errorReport struct {
	Status    int    `json:"status"`
	File      string `json:"file"`
	Line      int    `json:"line,omitempty"`
	Column    int    `json:"column,omitempty"`
	Message   string `json:"message"`
	Formatted string `json:"formatted"`
}

func newCompilationError(input, stderr string) *CompilationError {
	report := errorReport{Status: 1, File: input, Message: firstLine(stderr), Formatted: stderr}
	if m := traceLinePattern.FindStringSubmatch(stderr); m != nil {
		report.File = m[1]
		report.Line, _ = strconv.Atoi(m[2])
		report.Column, _ = strconv.Atoi(m[3])
	}

	payload, err := json.Marshal(report)
	if err != nil {
		payload = nil
	}
	return &CompilationError{File: input, Message: report.Message, Payload: string(payload)}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimPrefix(s, "Error: ")
	if s == "" {
		return "compilation failed"
	}
	return s
}
