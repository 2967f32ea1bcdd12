package diagnostic

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractQuotingVariants(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		line    int
		column  int
	}{
		{"json", `{"status": 1, "line": 4, "column": 1, "message": "x"}`, 4, 1},
		{"single quotes", `{'line': 4, 'column': 1}`, 4, 1},
		{"mixed quotes", `"line": 4, 'column': 1`, 4, 1},
		{"no spaces", `{"line":4,"column":1}`, 4, 1},
		{"extra whitespace", "{\n  \"line\"   :  12,\n\t\"column\":\t7\n}", 12, 7},
		{"column before line", `{"column": 9, "line": 3}`, 3, 9},
		{"first match wins", `{"line": 2, "column": 5, "nested": {"line": 8, "column": 6}}`, 2, 5},
	}

	e := Extractor{Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, column := e.Extract(tt.payload)
			assert.Equal(t, tt.line, line, "line")
			assert.Equal(t, tt.column, column, "column")
		})
	}
}

func TestExtractMissingOrMalformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		line    int
		column  int
	}{
		{"absent", "", 0, 0},
		{"not json", "Error: expected '}'", 0, 0},
		{"line only", `{"line": 10}`, 10, 0},
		{"column only", `{"column": 3}`, 0, 3},
		{"non numeric", `{"line": "four", "column": null}`, 0, 0},
		{"overflow", `{"line": 99999999999999999999999, "column": 2}`, 0, 2},
		{"unquoted key", `line: 4, column: 1`, 0, 0},
	}

	var buf bytes.Buffer
	e := Extractor{Logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotPanics(t, func() {
				line, column := e.Extract(tt.payload)
				assert.Equal(t, tt.line, line, "line")
				assert.Equal(t, tt.column, column, "column")
			})
		})
	}
	assert.Contains(t, buf.String(), "level=DEBUG")
}

func TestExtractOverflowLogsParseFailure(t *testing.T) {
	var buf bytes.Buffer
	e := Extractor{Logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}

	e.Extract(`{"line": 99999999999999999999999}`)
	assert.Contains(t, buf.String(), "Failed to parse diagnostic position")
}

func TestExtractNilLogger(t *testing.T) {
	line, column := Extractor{}.Extract(`{"line": 1, "column": 2}`)
	assert.Equal(t, 1, line)
	assert.Equal(t, 2, column)
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{File: "a.scss", Line: 4, Column: 1, Message: "expected ';'", Cause: errors.New("boom")}
	assert.Equal(t, "a.scss:4:1: expected ';'", d.String())

	d.Column = 0
	assert.Equal(t, "a.scss:4: expected ';'", d.String())

	d.Line = 0
	assert.Equal(t, "a.scss: expected ';'", d.String())
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "error", SeverityError.String())
	assert.Equal(t, "warning", SeverityWarning.String())
	assert.True(t, strings.HasPrefix(Severity(42).String(), "unknown"))
}
