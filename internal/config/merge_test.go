package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeVersion(t *testing.T) {
	tests := []struct {
		base, overlay, want int
	}{
		{0, 0, 0},
		{1, 0, 1},
		{0, 1, 1},
		{1, 1, 1},
	}
	for _, tt := range tests {
		var got int
		if err := mergeVersion(tt.base, tt.overlay, &got); err != nil {
			t.Fatalf("mergeVersion(%d, %d): %v", tt.base, tt.overlay, err)
		}
		if got != tt.want {
			t.Errorf("mergeVersion(%d, %d) = %d, want %d", tt.base, tt.overlay, got, tt.want)
		}
	}

	var got int
	if err := mergeVersion(1, 2, &got); err == nil {
		t.Error("expected version mismatch error")
	}
}

func TestDecodeLayerKeepsUnmentionedKeys(t *testing.T) {
	cfg := Default()
	require.NoError(t, decodeLayer(cfg, []byte("version: 1\noutput_style: compressed\ninclude_paths: [a, b]\n")))
	require.NoError(t, decodeLayer(cfg, []byte("precision: 10\ninclude_paths: [c]\ncompiler:\n  args: [--quiet]\n")))

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "compressed", cfg.OutputStyle)
	assert.Equal(t, 10, cfg.Precision)
	assert.Equal(t, []string{"c"}, cfg.IncludePaths, "lists are replaced")
	assert.Equal(t, "sass", cfg.Compiler.Command, "nested keys not mentioned survive")
	assert.Equal(t, []string{"--quiet"}, cfg.Compiler.Args)
	assert.True(t, cfg.FailOnError)
}

func TestLoadHierarchicalMergesLayers(t *testing.T) {
	dir := t.TempDir()
	system := writeConfig(t, dir, "system.yaml", "version: 1\nprecision: 3\nfail_on_error: false\ncompiler:\n  command: /opt/sass\n")
	user := writeConfig(t, dir, "user.yaml", "output_style: compressed\nprecision: 4\n")
	project := writeConfig(t, dir, FileName, "version: 1\ninput_path: scss\nprecision: 7\n")

	result, err := LoadHierarchical(HierarchicalOptions{
		ProjectPath:      project,
		SystemConfigPath: system,
		UserConfigPath:   user,
	})
	require.NoError(t, err)

	cfg := result.Config
	assert.Equal(t, 7, cfg.Precision, "project wins")
	assert.Equal(t, "compressed", cfg.OutputStyle, "user layer applies")
	assert.False(t, cfg.FailOnError, "system layer applies")
	assert.Equal(t, "/opt/sass", cfg.Compiler.Command)
	assert.Equal(t, "scss", cfg.InputPath)

	require.Len(t, result.Layers, 3)
	for _, l := range result.Layers {
		assert.True(t, l.Loaded, "%s layer loaded", l.Level)
	}
	assert.Empty(t, result.Warnings)
}

func TestLoadHierarchicalNoInheritProjectOnly(t *testing.T) {
	dir := t.TempDir()
	system := writeConfig(t, dir, "system.yaml", "version: 1\nprecision: 3\n")
	project := writeConfig(t, dir, FileName, "version: 1\n")

	result, err := LoadHierarchical(HierarchicalOptions{
		ProjectPath:      project,
		SystemConfigPath: system,
		NoInherit:        true,
	})
	require.NoError(t, err)

	require.Len(t, result.Layers, 1)
	assert.Equal(t, LevelProject, result.Layers[0].Level)
	assert.Equal(t, 5, result.Config.Precision)
}

func TestLoadHierarchicalSkipsMissingInheritedLayers(t *testing.T) {
	dir := t.TempDir()
	project := writeConfig(t, dir, FileName, "version: 1\n")

	result, err := LoadHierarchical(HierarchicalOptions{
		ProjectPath:      project,
		SystemConfigPath: filepath.Join(dir, "missing-system.yaml"),
		UserConfigPath:   filepath.Join(dir, "missing-user.yaml"),
	})
	require.NoError(t, err)
	require.Len(t, result.Layers, 3)
	assert.False(t, result.Layers[0].Loaded)
	assert.False(t, result.Layers[1].Loaded)
	assert.True(t, result.Layers[2].Loaded)
}

func TestLoadHierarchicalMissingProjectConfig(t *testing.T) {
	_, err := LoadHierarchical(HierarchicalOptions{
		ProjectPath:      "/nonexistent/sassbuild.yaml",
		SystemConfigPath: "/nonexistent/system.yaml",
		UserConfigPath:   "/nonexistent/user.yaml",
	})
	assert.Error(t, err)
}

func TestLoadHierarchicalSystemParseError(t *testing.T) {
	dir := t.TempDir()
	project := writeConfig(t, dir, FileName, "version: 1\n")
	system := writeConfig(t, dir, "system.yaml", "invalid: [yaml: broken")

	_, err := LoadHierarchical(HierarchicalOptions{
		ProjectPath:      project,
		SystemConfigPath: system,
		UserConfigPath:   filepath.Join(dir, "missing.yaml"),
	})
	require.Error(t, err)
	if !strings.Contains(err.Error(), "parsing") || !strings.Contains(err.Error(), "system") {
		t.Errorf("error should mention system parse failure: %v", err)
	}
}

func TestLoadHierarchicalVersionMismatch(t *testing.T) {
	dir := t.TempDir()
	system := writeConfig(t, dir, "system.yaml", "version: 2\n")
	project := writeConfig(t, dir, FileName, "version: 1\n")

	_, err := LoadHierarchical(HierarchicalOptions{
		ProjectPath:      project,
		SystemConfigPath: system,
		UserConfigPath:   filepath.Join(dir, "missing.yaml"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version mismatch")
}

func TestLoadHierarchicalValidationError(t *testing.T) {
	dir := t.TempDir()
	project := writeConfig(t, dir, FileName, "version: 1\ninput_syntax: less\n")

	_, err := LoadHierarchical(HierarchicalOptions{ProjectPath: project, NoInherit: true})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestLoadHierarchicalEnvOverridesFiles(t *testing.T) {
	dir := t.TempDir()
	project := writeConfig(t, dir, FileName, "version: 1\noutput_path: build\nfail_on_error: true\n")

	env := map[string]string{
		EnvOutputPath:  "dist",
		EnvFailOnError: "false",
		EnvOutputStyle: "expanded",
	}
	result, err := LoadHierarchical(HierarchicalOptions{
		ProjectPath: project,
		NoInherit:   true,
		Env: func(k string) (string, bool) {
			v, ok := env[k]
			return v, ok
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "dist", result.Config.OutputPath)
	assert.False(t, result.Config.FailOnError)
	assert.Equal(t, "nested", result.Config.OutputStyle, "unsupported style from env is normalized")
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "output_style", result.Warnings[0].Key)
}
