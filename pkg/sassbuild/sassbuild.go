// Package sassbuild provides the public Go library API for sassbuild.
//
// sassbuild compiles a directory of Sass or SCSS sources into CSS, mirroring
// the input tree under an output root. Builds are incremental: a run whose
// inputs are unchanged since the last clean build is skipped.
//
// # Basic Usage
//
//	client, err := sassbuild.New(sassbuild.Options{
//	    ConfigPath: "sassbuild.yaml",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Compile changed sources
//	outcome, err := client.Build(ctx, sassbuild.BuildOptions{})
//
//	// Report missing or stale artifacts
//	result, err := client.Check(ctx)
package sassbuild

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bianoble/sassbuild/internal/cache"
	"github.com/bianoble/sassbuild/internal/compiler"
	"github.com/bianoble/sassbuild/internal/config"
	"github.com/bianoble/sassbuild/internal/engine"
	"github.com/bianoble/sassbuild/internal/events"
	"github.com/bianoble/sassbuild/internal/host"
	"github.com/bianoble/sassbuild/internal/metrics"
	"github.com/bianoble/sassbuild/internal/state"
)

// BuildOptions configures a build.
type BuildOptions struct {
	// Full ignores the previous build state and compiles everything.
	Full bool

	// Hosts are bound ahead of the client's hosts for this build only.
	Hosts []any
}

// PruneOptions configures a prune operation.
type PruneOptions struct {
	DryRun bool
}

// Builder compiles the configured input root.
type Builder interface {
	Build(ctx context.Context, opts BuildOptions) (*RunOutcome, error)
}

// Checker reports missing or stale artifacts.
type Checker interface {
	Check(ctx context.Context) (*CheckResult, error)
}

// Pruner removes artifacts of sources that no longer exist.
type Pruner interface {
	Prune(ctx context.Context, opts PruneOptions) (*PruneResult, error)
}

// Options configures a sassbuild client.
type Options struct {
	// ConfigPath is the path to the project config file. Default: "sassbuild.yaml".
	ConfigPath string

	// SystemConfigPath and UserConfigPath override the discovered layer
	// locations. NoInherit skips both layers.
	SystemConfigPath string
	UserConfigPath   string
	NoInherit        bool

	// Env looks up environment overrides. Nil disables them.
	Env func(key string) (string, bool)

	// Compiler overrides the sass command line configured in the file.
	Compiler compiler.Compiler

	// Hosts receive diagnostics and refreshes, and may answer incremental
	// queries ahead of the build state.
	Hosts []any

	Metrics metrics.Recorder
	Logger  *slog.Logger
}

// Client is the main entry point for the sassbuild library.
// It implements Builder, Checker and Pruner.
type Client struct {
	cfg       *config.Config
	layers    []config.ConfigLayerInfo
	warnings  []config.Warning
	compiler  compiler.Compiler
	hosts     []any
	publisher *events.Publisher
	fp        *cache.Fingerprints
	metrics   metrics.Recorder
	logger    *slog.Logger
}

// New loads the configuration and prepares a Client. When the config names
// a NATS server, diagnostics and refreshes are published there; a server
// that cannot be reached is logged and skipped.
func New(opts Options) (*Client, error) {
	if opts.ConfigPath == "" {
		opts.ConfigPath = config.FileName
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	res, err := config.LoadHierarchical(config.HierarchicalOptions{
		ProjectPath:      opts.ConfigPath,
		SystemConfigPath: opts.SystemConfigPath,
		UserConfigPath:   opts.UserConfigPath,
		NoInherit:        opts.NoInherit,
		Env:              opts.Env,
	})
	if err != nil {
		return nil, err
	}
	cfg := res.Config

	fp, err := cache.New(cache.DefaultSize)
	if err != nil {
		return nil, fmt.Errorf("initializing fingerprint cache: %w", err)
	}

	c := &Client{
		cfg:      cfg,
		layers:   res.Layers,
		warnings: res.Warnings,
		compiler: opts.Compiler,
		hosts:    append([]any{}, opts.Hosts...),
		fp:       fp,
		metrics:  opts.Metrics,
		logger:   logger,
	}
	if c.compiler == nil {
		c.compiler = compiler.NewExec(cfg.Compiler.Command, cfg.Compiler.Args, cfg.CompilerOptions(), logger)
	}
	if c.metrics == nil {
		c.metrics = metrics.NoopRecorder{}
	}

	if cfg.Events.NATSURL != "" {
		pub, err := events.Connect(cfg.Events.NATSURL, cfg.Events.Subject, logger)
		if err != nil {
			logger.Warn("Build events disabled", slog.Any("error", err))
		} else {
			c.publisher = pub
			c.hosts = append(c.hosts, pub)
		}
	}
	return c, nil
}

// Config returns the effective configuration.
func (c *Client) Config() *config.Config { return c.cfg }

// Layers reports which config files were consulted.
func (c *Client) Layers() []config.ConfigLayerInfo { return c.layers }

// Warnings returns the adjustments made while normalizing the config.
func (c *Client) Warnings() []config.Warning { return c.warnings }

// Compiler returns the compiler builds use.
func (c *Client) Compiler() compiler.Compiler { return c.compiler }

// Build compiles the input root and records the result in the state file.
// Fingerprints are only stored after a clean run, so a build following a
// failure always recompiles.
func (c *Client) Build(ctx context.Context, opts BuildOptions) (*RunOutcome, error) {
	st, err := state.Open(c.cfg.StatePath(), c.cfg.InputRoot(), opts.Full, c.fp, c.logger)
	if err != nil {
		return nil, err
	}
	st.WithSettings(c.cfg.Fingerprint())

	hosts := make([]any, 0, len(opts.Hosts)+len(c.hosts)+1)
	hosts = append(hosts, opts.Hosts...)
	hosts = append(hosts, c.hosts...)
	hosts = append(hosts, st)

	eng := &engine.CompileEngine{
		Compiler: c.compiler,
		Host:     host.Bind(c.logger, hosts...),
		Metrics:  c.metrics,
		Logger:   c.logger,
	}
	outcome, runErr := eng.Run(ctx, c.cfg)
	if outcome == nil || outcome.Skipped {
		return outcome, runErr
	}

	clean := outcome.Failures == 0 && !outcome.Aborted
	if err := st.Commit(outcome.RunID, clean, outcome.WrittenBySource()); err != nil {
		c.logger.Warn("Failed to save build state", slog.String("path", c.cfg.StatePath()), slog.Any("error", err))
	}
	return outcome, runErr
}

// Check reports sources whose artifacts are missing or stale.
func (c *Client) Check(ctx context.Context) (*CheckResult, error) {
	eng := &engine.CheckEngine{Logger: c.logger}
	return eng.Check(ctx, c.cfg)
}

// Prune removes the artifacts of sources that no longer exist and drops
// them from the state file.
func (c *Client) Prune(ctx context.Context, opts PruneOptions) (*PruneResult, error) {
	st, err := state.Open(c.cfg.StatePath(), c.cfg.InputRoot(), false, c.fp, c.logger)
	if err != nil {
		return nil, err
	}

	eng := &engine.PruneEngine{Logger: c.logger}
	result, err := eng.Prune(ctx, st.Previous(), c.cfg, engine.PruneOptions{DryRun: opts.DryRun})
	if err != nil {
		return result, err
	}
	if !opts.DryRun {
		if err := st.Forget(result.Sources); err != nil {
			return result, fmt.Errorf("saving build state: %w", err)
		}
	}
	return result, nil
}

// Close releases the event connection, if any.
func (c *Client) Close() error {
	if c.publisher == nil {
		return nil
	}
	return c.publisher.Close()
}
