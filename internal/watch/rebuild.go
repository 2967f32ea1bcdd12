package watch

import (
	"context"
	"time"
)

// DefaultDebounce coalesces bursts of events into one rebuild.
const DefaultDebounce = 300 * time.Millisecond

// RebuildFunc runs one build. It is never called concurrently.
type RebuildFunc func(ctx context.Context)

// rebuilder serializes rebuilds and drains the change set after each one.
// It is owned by a single loop goroutine.
type rebuilder struct {
	changes  *Changes
	rebuild  RebuildFunc
	debounce time.Duration
	timer    *time.Timer
	trigger  chan struct{}
}

func newRebuilder(changes *Changes, debounce time.Duration, fn RebuildFunc) *rebuilder {
	return &rebuilder{
		changes:  changes,
		rebuild:  fn,
		debounce: debounce,
		trigger:  make(chan struct{}, 1),
	}
}

// schedule arms the debounce timer, replacing any pending one.
func (r *rebuilder) schedule() {
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.debounce, func() {
		select {
		case r.trigger <- struct{}{}:
		default:
		}
	})
}

func (r *rebuilder) fire(ctx context.Context) {
	if r.changes.Pending() == 0 {
		return
	}
	r.rebuild(ctx)
	r.changes.Drain()
}

func (r *rebuilder) stop() {
	if r.timer != nil {
		r.timer.Stop()
	}
}
