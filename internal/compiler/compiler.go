// Package compiler defines the boundary to the external stylesheet compiler.
//
// The build core never interprets stylesheet code itself. It hands each
// eligible file to a Compiler together with the run's Options, which are
// passed through unchanged.
package compiler

import (
	"context"
	"fmt"
)

// OutputStyle selects the formatting of generated CSS.
type OutputStyle string

const (
	StyleNested     OutputStyle = "nested"
	StyleExpanded   OutputStyle = "expanded"
	StyleCompact    OutputStyle = "compact"
	StyleCompressed OutputStyle = "compressed"
)

// Syntax is the input stylesheet syntax. Its string value doubles as the
// file extension of eligible sources.
type Syntax string

const (
	SyntaxSCSS Syntax = "scss"
	SyntaxSass Syntax = "sass"
)

// Options configures the compiler for a whole run.
type Options struct {
	OutputStyle      OutputStyle
	Precision        int
	IncludePaths     []string
	Syntax           Syntax
	SourceMap        bool // generate a source map
	EmbedSourceMap   bool // inline the map into the CSS
	EmbedSources     bool // embed source contents into the map
	OmitSourceMapURL bool // leave out the sourceMappingURL comment
	SourceComments   bool // emit line comments pointing back to sources
}

// Request names the files involved in compiling one source.
type Request struct {
	Input           string
	OutputCSS       string
	OutputSourceMap string
}

// Output is the result of a successful compilation.
// SourceMap is empty when no map was produced.
type Output struct {
	CSS       string
	SourceMap string
}

// Compiler translates a single stylesheet.
type Compiler interface {
	CompileFile(ctx context.Context, req Request) (*Output, error)
}

// Func adapts a function to the Compiler interface.
type Func func(ctx context.Context, req Request) (*Output, error)

// CompileFile calls f.
func (f Func) CompileFile(ctx context.Context, req Request) (*Output, error) {
	return f(ctx, req)
}

// CompilationError is returned when the compiler rejects an input.
// Payload carries the compiler's raw error report when available.
type CompilationError struct {
	File    string
	Message string
	Payload string
}

func (e *CompilationError) Error() string {
	if e.File == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}
