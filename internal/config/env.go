package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override file settings.
const (
	EnvInputPath           = "SASSBUILD_INPUT_PATH"
	EnvOutputPath          = "SASSBUILD_OUTPUT_PATH"
	EnvSourceMapOutputPath = "SASSBUILD_SOURCE_MAP_OUTPUT_PATH"
	EnvOutputStyle         = "SASSBUILD_OUTPUT_STYLE"
	EnvFailOnError         = "SASSBUILD_FAIL_ON_ERROR"
	EnvCompiler            = "SASSBUILD_COMPILER"
	EnvNoInherit           = "SASSBUILD_NO_INHERIT"
)

// LoadDotEnv loads dir/.env into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv applies environment overrides to cfg using lookup.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str(EnvInputPath, &cfg.InputPath)
	str(EnvOutputPath, &cfg.OutputPath)
	str(EnvSourceMapOutputPath, &cfg.SourceMapOutputPath)
	str(EnvOutputStyle, &cfg.OutputStyle)
	str(EnvCompiler, &cfg.Compiler.Command)

	if v, ok := lookup(EnvFailOnError); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvFailOnError, v, err)
		}
		cfg.FailOnError = b
	}
	return nil
}
