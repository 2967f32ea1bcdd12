package config

import (
	"fmt"

	"github.com/bianoble/sassbuild/internal/compiler"
)

// Warning is a contradictory or unsupported setting that was coerced to a
// supported value.
type Warning struct {
	Key     string
	Message string
}

func (w Warning) String() string {
	return w.Key + ": " + w.Message
}

// Normalize coerces settings the build cannot honor and reports one warning
// per coercion. Empty values are filled in silently.
func Normalize(cfg *Config) []Warning {
	var warns []Warning
	warn := func(key, format string, args ...any) {
		warns = append(warns, Warning{Key: key, Message: fmt.Sprintf(format, args...)})
	}

	if !cfg.GenerateSourceMap {
		if cfg.EmbedSourceMapInCSS {
			warn("embed_source_map_in_css", "true is ignored because generate_source_map is false")
			cfg.EmbedSourceMapInCSS = false
		}
		if cfg.EmbedSourceContentsInSourceMap {
			warn("embed_source_contents_in_source_map", "true is ignored because generate_source_map is false")
			cfg.EmbedSourceContentsInSourceMap = false
		}
	}

	if cfg.EmbedSourceMapInCSS && cfg.OmitSourceMappingURL {
		warn("omit_source_mapping_url", "true is ignored because embed_source_map_in_css carries the map in the mapping comment")
		cfg.OmitSourceMappingURL = false
	}

	switch compiler.OutputStyle(cfg.OutputStyle) {
	case compiler.StyleNested, compiler.StyleCompressed:
	case "":
		cfg.OutputStyle = string(compiler.StyleNested)
	default:
		warn("output_style", "%q is replaced by nested, only nested and compressed are supported", cfg.OutputStyle)
		cfg.OutputStyle = string(compiler.StyleNested)
	}

	if cfg.Precision < 0 {
		warn("precision", "%d is negative, using 5", cfg.Precision)
		cfg.Precision = 5
	}

	if cfg.InputSyntax == "" {
		cfg.InputSyntax = string(compiler.SyntaxSCSS)
	}
	if cfg.Compiler.Command == "" {
		cfg.Compiler.Command = compiler.DefaultCommand
	}
	if cfg.Events.NATSURL != "" && cfg.Events.Subject == "" {
		cfg.Events.Subject = DefaultEventSubject
	}
	return warns
}
