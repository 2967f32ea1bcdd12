package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bianoble/sassbuild/internal/config"
	"github.com/bianoble/sassbuild/internal/metrics"
	"github.com/bianoble/sassbuild/pkg/sassbuild"
)

// setupLogging installs the default logger for the verbosity flags.
func setupLogging() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel()})))
}

func logLevel() slog.Level {
	switch {
	case quiet:
		return slog.LevelError
	case verbose:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// resolveConfigPath returns --config, or when the flag was left at its
// default and no such file exists here, the nearest sassbuild.yaml in a
// parent directory.
func resolveConfigPath() string {
	if rootCmd.PersistentFlags().Changed("config") {
		return configPath
	}
	if _, err := os.Stat(configPath); err == nil {
		return configPath
	}
	wd, err := os.Getwd()
	if err != nil {
		return configPath
	}
	found, err := config.FindProject(wd)
	if err != nil {
		return configPath
	}
	slog.Debug("Using config from parent directory", slog.String("path", found))
	return found
}

// newClient loads .env next to the config file and the layered config.
// Hosts are bound to every build the client runs.
func newClient(rec metrics.Recorder, hosts ...any) (*sassbuild.Client, error) {
	path := resolveConfigPath()
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}
	if err := config.LoadDotEnv(filepath.Dir(abs)); err != nil {
		return nil, err
	}

	client, err := sassbuild.New(sassbuild.Options{
		ConfigPath: path,
		NoInherit:  noInherit || config.NoInherit(),
		Env:        os.LookupEnv,
		Hosts:      hosts,
		Metrics:    rec,
		Logger:     slog.Default(),
	})
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	for _, w := range client.Warnings() {
		slog.Warn("Config adjusted", slog.String("key", w.Key), slog.String("message", w.Message))
	}
	return client, nil
}

// summary describes a finished run in one line.
func summary(o *sassbuild.RunOutcome) string {
	switch {
	case o == nil:
		return "Build did not run."
	case o.Skipped:
		return "No changes detected."
	case o.Aborted:
		return fmt.Sprintf("Build aborted after %d file(s).", o.FilesSeen)
	case o.Failures > 0:
		return fmt.Sprintf("Compiled %d file(s), %d failed.", o.FilesSeen-o.Failures, o.Failures)
	default:
		return fmt.Sprintf("Compiled %d file(s).", o.FilesSeen)
	}
}

func humanSize(bytes int64) string {
	if bytes == 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB"}
	size := float64(bytes)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d B", bytes)
	}
	return fmt.Sprintf("%.1f %s", size, units[i])
}

// info prints a line unless quiet mode is active.
func info(format string, args ...any) {
	if !quiet {
		fmt.Printf(format+"\n", args...)
	}
}

// detail prints a line only in verbose mode.
func detail(format string, args ...any) {
	if verbose {
		fmt.Printf("  "+format+"\n", args...)
	}
}

// errorf prints an error message to stderr.
func errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
