package config

import (
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/bianoble/sassbuild/internal/cache"
	"github.com/bianoble/sassbuild/internal/compiler"
	"github.com/bianoble/sassbuild/internal/state"
)

// Config represents the sassbuild.yaml configuration file.
type Config struct {
	Version int `yaml:"version"`

	InputPath           string   `yaml:"input_path"`
	OutputPath          string   `yaml:"output_path"`
	SourceMapOutputPath string   `yaml:"source_map_output_path,omitempty"`
	IncludePaths        []string `yaml:"include_paths,omitempty"`
	InputSyntax         string   `yaml:"input_syntax"`

	OutputStyle                    string `yaml:"output_style"`
	Precision                      int    `yaml:"precision"`
	GenerateSourceComments         bool   `yaml:"generate_source_comments"`
	GenerateSourceMap              bool   `yaml:"generate_source_map"`
	OmitSourceMappingURL           bool   `yaml:"omit_source_mapping_url"`
	EmbedSourceMapInCSS            bool   `yaml:"embed_source_map_in_css"`
	EmbedSourceContentsInSourceMap bool   `yaml:"embed_source_contents_in_source_map"`

	FailOnError        bool `yaml:"fail_on_error"`
	CopySourceToOutput bool `yaml:"copy_source_to_output"`

	Compiler  Compiler `yaml:"compiler"`
	StateFile string   `yaml:"state_file"`
	Events    Events   `yaml:"events,omitempty"`

	// Root is the directory relative paths resolve against. It is set by
	// the loader, never read from a file.
	Root string `yaml:"-"`
}

// Compiler selects the stylesheet compiler command.
type Compiler struct {
	Command string   `yaml:"command,omitempty"`
	Args    []string `yaml:"args,omitempty"`
}

// Events configures diagnostic and refresh publishing.
type Events struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// DefaultEventSubject is used when events are enabled without a subject.
const DefaultEventSubject = "sassbuild.events"

// Default returns the configuration every layer is decoded over.
func Default() *Config {
	return &Config{
		InputPath:         filepath.Join("src", "main", "sass"),
		OutputPath:        "target",
		InputSyntax:       string(compiler.SyntaxSCSS),
		OutputStyle:       string(compiler.StyleNested),
		Precision:         5,
		GenerateSourceMap: true,
		FailOnError:       true,
		Compiler:          Compiler{Command: compiler.DefaultCommand},
		StateFile:         state.DefaultFile,
	}
}

// Resolve makes p absolute against the config root.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// InputRoot is the absolute input directory.
func (c *Config) InputRoot() string { return c.Resolve(c.InputPath) }

// OutputRoot is the absolute CSS output directory.
func (c *Config) OutputRoot() string { return c.Resolve(c.OutputPath) }

// SourceMapRoot is the absolute source map directory. It defaults to the
// output directory.
func (c *Config) SourceMapRoot() string {
	if c.SourceMapOutputPath == "" {
		return c.OutputRoot()
	}
	return c.Resolve(c.SourceMapOutputPath)
}

// StatePath is the absolute build state file location.
func (c *Config) StatePath() string {
	if c.StateFile == "" {
		return c.Resolve(state.DefaultFile)
	}
	return c.Resolve(c.StateFile)
}

// Ext is the source file extension without the dot.
func (c *Config) Ext() string {
	if c.InputSyntax == "" {
		return string(compiler.SyntaxSCSS)
	}
	return c.InputSyntax
}

// CompilerOptions translates the configuration into compiler options.
// Include paths are resolved against the config root.
func (c *Config) CompilerOptions() compiler.Options {
	includes := make([]string, 0, len(c.IncludePaths))
	for _, p := range c.IncludePaths {
		includes = append(includes, c.Resolve(p))
	}
	return compiler.Options{
		OutputStyle:      compiler.OutputStyle(c.OutputStyle),
		Precision:        c.Precision,
		IncludePaths:     includes,
		Syntax:           compiler.Syntax(c.Ext()),
		SourceMap:        c.GenerateSourceMap,
		EmbedSourceMap:   c.EmbedSourceMapInCSS,
		EmbedSources:     c.EmbedSourceContentsInSourceMap,
		OmitSourceMapURL: c.OmitSourceMappingURL,
		SourceComments:   c.GenerateSourceComments,
	}
}

// outputSettings is everything besides the sources that decides what a
// build writes and where.
type outputSettings struct {
	InputRoot     string           `yaml:"input_root"`
	OutputRoot    string           `yaml:"output_root"`
	SourceMapRoot string           `yaml:"source_map_root"`
	CopySource    bool             `yaml:"copy_source"`
	Command       string           `yaml:"command"`
	Args          []string         `yaml:"args"`
	Options       compiler.Options `yaml:"options"`
}

// Fingerprint hashes the settings that shape build outputs. Two configs
// with equal fingerprints produce the same artifacts from the same sources.
func (c *Config) Fingerprint() string {
	data, err := yaml.Marshal(outputSettings{
		InputRoot:     c.InputRoot(),
		OutputRoot:    c.OutputRoot(),
		SourceMapRoot: c.SourceMapRoot(),
		CopySource:    c.CopySourceToOutput,
		Command:       c.Compiler.Command,
		Args:          c.Compiler.Args,
		Options:       c.CompilerOptions(),
	})
	if err != nil {
		return ""
	}
	return cache.ComputeHash(data)
}
