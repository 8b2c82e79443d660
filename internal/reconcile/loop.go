// Package reconcile implements the polling loop terminals use to stay
// consistent with server state. There is no push channel: each terminal
// periodically fetches the full view relevant to it and replaces its local
// snapshot wholesale, superseding any optimistic local state.
package reconcile

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FetchFunc retrieves the authoritative snapshot for the loop's view.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Loop periodically fetches a snapshot and hands it to the update callback.
//
// A fetch that fails is a missed tick: the previous snapshot stays in place
// and the loop continues on the next interval. A fetch still in flight when
// the loop's context is cancelled has its result discarded, never applied.
type Loop[T any] struct {
	interval time.Duration
	fetch    FetchFunc[T]
	onUpdate func(T)
	logger   *zap.Logger

	mu       sync.RWMutex
	snapshot T
	valid    bool
}

// NewLoop constructs a reconciliation loop. onUpdate may be nil when callers
// only read via Snapshot.
func NewLoop[T any](interval time.Duration, fetch FetchFunc[T], onUpdate func(T), logger *zap.Logger) *Loop[T] {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop[T]{
		interval: interval,
		fetch:    fetch,
		onUpdate: onUpdate,
		logger:   logger,
	}
}

// Run fetches immediately, then on every interval tick until ctx is
// cancelled. It blocks until then.
func (l *Loop[T]) Run(ctx context.Context) {
	l.tick(ctx)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

// Snapshot returns the last successfully fetched state. The second return
// is false until the first successful fetch.
func (l *Loop[T]) Snapshot() (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshot, l.valid
}

func (l *Loop[T]) tick(ctx context.Context) {
	snapshot, err := l.fetch(ctx)
	if ctx.Err() != nil {
		// Torn down while the fetch was in flight; the result must not
		// mutate state after cancellation.
		return
	}
	if err != nil {
		l.logger.Debug("reconcile fetch failed; keeping stale snapshot", zap.Error(err))
		return
	}

	l.mu.Lock()
	l.snapshot = snapshot
	l.valid = true
	l.mu.Unlock()

	if l.onUpdate != nil {
		l.onUpdate(snapshot)
	}
}
