package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bianoble/sassbuild/internal/compiler"
)

// Parse decodes a single configuration file over the defaults without
// validating it.
func Parse(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Default()
	if err := decodeLayer(cfg, data); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.Root = rootOf(path)
	return cfg, nil
}

// Load reads and validates a single sassbuild.yaml configuration file.
func Load(path string) (*Config, error) {
	cfg, err := Parse(path)
	if err != nil {
		return nil, err
	}
	if errs := Validate(cfg); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return cfg, nil
}

// HierarchicalOptions controls layered loading.
type HierarchicalOptions struct {
	ProjectPath      string
	SystemConfigPath string
	UserConfigPath   string

	// NoInherit skips the system and user layers.
	NoInherit bool

	// Env looks up environment overrides. Nil disables them.
	Env func(key string) (string, bool)
}

// HierarchicalResult is a fully loaded configuration and where it came from.
type HierarchicalResult struct {
	Config   *Config
	Layers   []ConfigLayerInfo
	Warnings []Warning
}

// LoadHierarchical decodes the system, user and project layers in order over
// the defaults, applies environment overrides, validates and normalizes.
// Missing system and user files are skipped; the project file is required.
func LoadHierarchical(opts HierarchicalOptions) (*HierarchicalResult, error) {
	var layers []ConfigLayerInfo
	if opts.NoInherit {
		layers = []ConfigLayerInfo{{Path: opts.ProjectPath, Level: LevelProject}}
	} else {
		layers = DiscoverPaths(DiscoverOptions{
			ProjectPath:      opts.ProjectPath,
			SystemConfigPath: opts.SystemConfigPath,
			UserConfigPath:   opts.UserConfigPath,
		})
	}

	cfg := Default()
	for i := range layers {
		layer := &layers[i]
		data, err := os.ReadFile(layer.Path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) && layer.Level != LevelProject {
				continue
			}
			return nil, fmt.Errorf("reading %s config %s: %w", layer.Level, layer.Path, err)
		}
		if err := decodeLayer(cfg, data); err != nil {
			layer.Err = err
			return nil, fmt.Errorf("parsing %s config %s: %w", layer.Level, layer.Path, err)
		}
		layer.Loaded = true
	}
	cfg.Root = rootOf(opts.ProjectPath)

	if opts.Env != nil {
		if err := ApplyEnv(cfg, opts.Env); err != nil {
			return nil, err
		}
	}

	if errs := Validate(cfg); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return &HierarchicalResult{
		Config:   cfg,
		Layers:   layers,
		Warnings: Normalize(cfg),
	}, nil
}

func rootOf(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Dir(path)
	}
	return filepath.Dir(abs)
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks a Config for errors that cannot be coerced.
// Returns a list of validation error messages (empty if valid).
func Validate(cfg *Config) []string {
	var errs []string

	if cfg.Version != 1 {
		errs = append(errs, fmt.Sprintf("unsupported version %d, only version 1 is supported", cfg.Version))
	}

	if strings.TrimSpace(cfg.InputPath) == "" {
		errs = append(errs, "'input_path' is required")
	}
	if strings.TrimSpace(cfg.OutputPath) == "" {
		errs = append(errs, "'output_path' is required")
	}

	switch compiler.Syntax(cfg.InputSyntax) {
	case compiler.SyntaxSCSS, compiler.SyntaxSass, "":
	default:
		errs = append(errs, fmt.Sprintf("invalid input_syntax '%s', must be one of: scss, sass", cfg.InputSyntax))
	}

	for i, p := range cfg.IncludePaths {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, fmt.Sprintf("include_paths[%d]: path must not be empty", i))
		}
	}

	if cfg.Events.NATSURL != "" && !strings.Contains(cfg.Events.NATSURL, "://") {
		errs = append(errs, fmt.Sprintf("events.nats_url '%s' must include a scheme, e.g. nats://localhost:4222", cfg.Events.NATSURL))
	}

	return errs
}
