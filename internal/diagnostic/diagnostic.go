// Package diagnostic describes compilation failures and recovers source
// positions from the compiler's loosely structured error payload.
package diagnostic

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
)

// Severity indicates the severity level of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Diagnostic reports a single compilation failure.
// Line and Column are 1-based; 0 means unknown.
type Diagnostic struct {
	Severity Severity
	File     string
	Line     int
	Column   int
	Message  string
	Payload  string // raw compiler payload, may be empty
	Cause    error
}

func (d Diagnostic) String() string {
	switch {
	case d.Line > 0 && d.Column > 0:
		return fmt.Sprintf("%s:%d:%d: %s", d.File, d.Line, d.Column, d.Message)
	case d.Line > 0:
		return fmt.Sprintf("%s:%d: %s", d.File, d.Line, d.Message)
	default:
		return fmt.Sprintf("%s: %s", d.File, d.Message)
	}
}

// LogAttrs returns the diagnostic as structured log attributes.
func (d Diagnostic) LogAttrs() []any {
	return []any{
		slog.String("file", d.File),
		slog.Int("line", d.Line),
		slog.Int("column", d.Column),
		slog.String("severity", d.Severity.String()),
	}
}

var (
	linePattern   = regexp.MustCompile(`["']line["'][:\s]+([0-9]+)`)
	columnPattern = regexp.MustCompile(`["']column["'][:\s]+([0-9]+)`)
)

// Extractor pulls line and column numbers out of a compiler error payload.
//
// The payload is expected to be JSON-like text, but the extractor only
// searches for `"line": N` and `"column": N` in any quoting or spacing.
// It is deliberately not a structured parser so that drift in the payload
// format degrades to unknown positions instead of failures.
type Extractor struct {
	Logger *slog.Logger
}

// Extract returns the first line and column found in payload.
// Missing or unparsable fields are reported as 0.
func (e Extractor) Extract(payload string) (line, column int) {
	if payload == "" {
		e.logger().Debug("No diagnostic payload; position unknown")
		return 0, 0
	}
	line = e.field(payload, "line", linePattern)
	column = e.field(payload, "column", columnPattern)
	return line, column
}

func (e Extractor) field(payload, name string, re *regexp.Regexp) int {
	m := re.FindStringSubmatch(payload)
	if len(m) < 2 {
		e.logger().Debug("Diagnostic payload has no position field", slog.String("field", name))
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		e.logger().Debug("Failed to parse diagnostic position",
			slog.String("field", name),
			slog.String("value", m[1]),
			slog.Any("error", err))
		return 0
	}
	return n
}

func (e Extractor) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}
