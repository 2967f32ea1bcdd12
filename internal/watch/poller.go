package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/bianoble/sassbuild/internal/cache"
	"github.com/bianoble/sassbuild/internal/state"
)

// DefaultPollInterval is used when no interval is given.
const DefaultPollInterval = 2 * time.Second

// Poller detects changes by fingerprinting the input root on a schedule.
// It serves filesystems where change notifications are unavailable.
type Poller struct {
	changes  *Changes
	interval time.Duration
	fp       *cache.Fingerprints
	last     map[string]string
	logger   *slog.Logger
}

// NewPoller returns a Poller scanning every interval.
func NewPoller(changes *Changes, interval time.Duration, logger *slog.Logger) (*Poller, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	fp, err := cache.New(cache.DefaultSize)
	if err != nil {
		return nil, err
	}
	return &Poller{changes: changes, interval: interval, fp: fp, logger: logger}, nil
}

// Run scans until ctx ends and calls fn after every scan that found a
// change.
func (p *Poller) Run(ctx context.Context, fn RebuildFunc) error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	defer func() {
		if err := s.Shutdown(); err != nil {
			p.logger.Warn("Scheduler shutdown failed", slog.Any("error", err))
		}
	}()

	ticks := make(chan struct{}, 1)
	job, err := s.NewJob(
		gocron.DurationJob(p.interval),
		gocron.NewTask(func() {
			select {
			case ticks <- struct{}{}:
			default:
			}
		}),
		gocron.WithName("sassbuild-poll"),
	)
	if err != nil {
		return fmt.Errorf("scheduling poll job: %w", err)
	}

	if p.last, err = state.Scan(p.changes.inputRoot, p.fp); err != nil {
		return err
	}
	s.Start()
	p.logger.Info("Polling for changes",
		slog.String("input", p.changes.inputRoot),
		slog.Duration("interval", p.interval),
		slog.String("job_id", job.ID().String()))

	r := newRebuilder(p.changes, 0, fn)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticks:
			if n := p.poll(); n > 0 {
				p.logger.Debug("Changes detected", slog.Int("count", n))
				r.fire(ctx)
			}
		}
	}
}

// poll rescans the input root and records every path whose fingerprint
// appeared, disappeared or changed. It returns the number recorded.
func (p *Poller) poll() int {
	cur, err := state.Scan(p.changes.inputRoot, p.fp)
	if err != nil {
		p.logger.Warn("Scan failed", slog.Any("error", err))
		return 0
	}
	n := 0
	check := func(rel string) {
		abs := filepath.Join(p.changes.inputRoot, filepath.FromSlash(rel))
		if p.changes.Ignored(abs) {
			return
		}
		p.changes.mark(abs)
		n++
	}
	for rel, hash := range cur {
		if p.last[rel] != hash {
			check(rel)
		}
	}
	for rel := range p.last {
		if _, ok := cur[rel]; !ok {
			check(rel)
		}
	}
	p.last = cur
	return n
}
