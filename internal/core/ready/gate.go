// Package ready coordinates one-time store initialization. Concurrent
// Initialize calls coalesce onto a single in-flight attempt; every
// repository operation waits on EnsureReady before touching the store.
package ready

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"academic-records-core/internal/domain"
)

type State int

const (
	Uninitialized State = iota
	Initializing
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// SetupFunc runs the full schema setup. It is invoked at most once per
// initialization attempt.
type SetupFunc func(ctx context.Context) error

type Gate struct {
	setup SetupFunc
	log   *zap.Logger

	mu      sync.Mutex
	state   State
	lastErr error
	attempt chan struct{} // closed when the in-flight attempt resolves
	readyCh chan struct{} // closed once, on the Ready transition
}

func New(setup SetupFunc, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{
		setup:   setup,
		log:     log,
		state:   Uninitialized,
		readyCh: make(chan struct{}),
	}
}

func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Initialize is the idempotent entry point. Ready returns nil
// immediately; an in-flight attempt is joined, not duplicated; a
// Failed gate retries.
func (g *Gate) Initialize(ctx context.Context) error {
	g.mu.Lock()
	switch g.state {
	case Ready:
		g.mu.Unlock()
		return nil
	case Initializing:
		ch := g.attempt
		g.mu.Unlock()
		select {
		case <-ch:
			g.mu.Lock()
			err := g.lastErr
			g.mu.Unlock()
			return err
		case <-ctx.Done():
			return domain.Wrap("ready.Initialize", domain.ErrTimeout, "initialization wait canceled", ctx.Err())
		}
	}

	// Uninitialized or Failed: this caller runs the attempt.
	g.state = Initializing
	g.lastErr = nil
	g.attempt = make(chan struct{})
	done := g.attempt
	g.mu.Unlock()

	g.log.Info("store initialization starting")
	err := g.setup(ctx)

	g.mu.Lock()
	if err != nil {
		g.state = Failed
		g.lastErr = domain.Wrap("ready.Initialize", domain.ErrStorage, "schema setup failed", err)
		g.log.Error("store initialization failed", zap.Error(err))
	} else {
		g.state = Ready
		close(g.readyCh)
		g.log.Info("store ready")
	}
	result := g.lastErr
	close(done)
	g.mu.Unlock()
	return result
}

// EnsureReady waits for the Ready transition. It never starts an
// attempt itself; with a zero timeout against a gate that is not Ready
// it fails at once.
func (g *Gate) EnsureReady(ctx context.Context, timeout time.Duration) error {
	g.mu.Lock()
	if g.state == Ready {
		g.mu.Unlock()
		return nil
	}
	ch := g.readyCh
	g.mu.Unlock()

	if timeout <= 0 {
		return domain.NewTimeout("ready.EnsureReady", "store not ready")
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-ch:
		return nil
	case <-t.C:
		return domain.NewTimeout("ready.EnsureReady", "readiness wait exceeded deadline")
	case <-ctx.Done():
		return domain.Wrap("ready.EnsureReady", domain.ErrTimeout, "readiness wait canceled", ctx.Err())
	}
}
