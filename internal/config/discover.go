package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// FileName is the project configuration file name.
const FileName = "sassbuild.yaml"

const configDirName = "sassbuild"

// ErrNoProject is returned by FindProject when no directory up to the
// filesystem root holds a project config.
var ErrNoProject = errors.New("no " + FileName + " found in this directory or any parent")

// ConfigLevel represents the precedence level of a configuration file.
type ConfigLevel string

const (
	LevelSystem  ConfigLevel = "system"
	LevelUser    ConfigLevel = "user"
	LevelProject ConfigLevel = "project"
)

// ConfigLayerInfo describes a discovered config file and its load status.
type ConfigLayerInfo struct {
	Err    error // non-nil if the file exists but failed to load
	Path   string
	Level  ConfigLevel
	Loaded bool
}

// DiscoverOptions controls how config paths are discovered. Empty system
// and user paths mean the platform defaults.
type DiscoverOptions struct {
	ProjectPath      string
	SystemConfigPath string
	UserConfigPath   string
}

// DiscoverPaths lists the config layers from lowest precedence (system) to
// highest (project). A file reachable through two levels is only listed at
// the lower one.
func DiscoverPaths(opts DiscoverOptions) []ConfigLayerInfo {
	candidates := []ConfigLayerInfo{
		{Level: LevelSystem, Path: orDefault(opts.SystemConfigPath, defaultSystemConfigPath)},
		{Level: LevelUser, Path: orDefault(opts.UserConfigPath, defaultUserConfigPath)},
		{Level: LevelProject, Path: opts.ProjectPath},
	}

	seen := map[string]bool{}
	layers := candidates[:0]
	for _, c := range candidates {
		if c.Path == "" {
			continue
		}
		key := absOrSelf(c.Path)
		if seen[key] {
			continue
		}
		seen[key] = true
		layers = append(layers, c)
	}
	return layers
}

// FindProject looks for the project config in dir and then in each parent,
// so commands work from anywhere inside a project tree, e.g. from the
// stylesheet directory itself.
func FindProject(dir string) (string, error) {
	dir = absOrSelf(dir)
	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoProject
		}
		dir = parent
	}
}

func orDefault(path string, fallback func() string) string {
	if path != "" {
		return path
	}
	return fallback()
}

func absOrSelf(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

func defaultSystemConfigPath() string {
	if runtime.GOOS == "windows" {
		pd := os.Getenv("ProgramData")
		if pd == "" {
			pd = `C:\ProgramData`
		}
		return filepath.Join(pd, configDirName, FileName)
	}
	return filepath.Join("/etc", configDirName, FileName)
}

func defaultUserConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, configDirName, FileName)
}

// NoInherit reports whether SASSBUILD_NO_INHERIT asks to skip the system
// and user layers.
func NoInherit() bool {
	return envBoolTrue(EnvNoInherit)
}

// envBoolTrue returns true if the env var is set to "1" or "true" (case-insensitive).
func envBoolTrue(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true"
}
