package ready

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"academic-records-core/internal/domain"
)

func TestInitializeHappyPath(t *testing.T) {
	var runs int32
	g := New(func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}, nil)

	assert.Equal(t, Uninitialized, g.State())
	require.NoError(t, g.Initialize(context.Background()))
	assert.Equal(t, Ready, g.State())

	// Already Ready: no second setup run.
	require.NoError(t, g.Initialize(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
}

func TestInitializeCoalesces(t *testing.T) {
	var runs int32
	release := make(chan struct{})
	g := New(func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		<-release
		return nil
	}, nil)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = g.Initialize(context.Background())
		}(i)
	}

	// Let every caller reach the gate, then release the single attempt.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
	assert.Equal(t, Ready, g.State())
}

func TestInitializeFailureThenRetry(t *testing.T) {
	var runs int32
	g := New(func(context.Context) error {
		if atomic.AddInt32(&runs, 1) == 1 {
			return errors.New("disk on fire")
		}
		return nil
	}, nil)

	err := g.Initialize(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.Equal(t, Failed, g.State())

	// A Failed gate retries instead of replaying the old error.
	require.NoError(t, g.Initialize(context.Background()))
	assert.Equal(t, Ready, g.State())
	assert.Equal(t, int32(2), atomic.LoadInt32(&runs))
}

func TestJoinedCallerSeesAttemptError(t *testing.T) {
	release := make(chan struct{})
	g := New(func(context.Context) error {
		<-release
		return errors.New("schema broken")
	}, nil)

	first := make(chan error, 1)
	go func() { first <- g.Initialize(context.Background()) }()

	// Wait until the attempt is in flight, then join it.
	require.Eventually(t, func() bool { return g.State() == Initializing },
		time.Second, 5*time.Millisecond)

	joined := make(chan error, 1)
	go func() { joined <- g.Initialize(context.Background()) }()

	close(release)
	assert.ErrorIs(t, <-first, domain.ErrStorage)
	assert.ErrorIs(t, <-joined, domain.ErrStorage)
	assert.Equal(t, Failed, g.State())
}

func TestEnsureReadyZeroTimeout(t *testing.T) {
	g := New(func(context.Context) error { return nil }, nil)

	// Not Ready and no budget to wait: immediate timeout error.
	err := g.EnsureReady(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrTimeout)

	require.NoError(t, g.Initialize(context.Background()))
	assert.NoError(t, g.EnsureReady(context.Background(), 0))
}

func TestEnsureReadyWaitsForReadyTransition(t *testing.T) {
	release := make(chan struct{})
	g := New(func(context.Context) error {
		<-release
		return nil
	}, nil)

	go func() { _ = g.Initialize(context.Background()) }()

	done := make(chan error, 1)
	go func() { done <- g.EnsureReady(context.Background(), 2*time.Second) }()

	time.Sleep(20 * time.Millisecond)
	close(release)
	assert.NoError(t, <-done)
}

func TestEnsureReadyDeadline(t *testing.T) {
	g := New(func(context.Context) error { return nil }, nil)
	err := g.EnsureReady(context.Background(), 30*time.Millisecond)
	assert.ErrorIs(t, err, domain.ErrTimeout)
}

func TestEnsureReadyContextCancel(t *testing.T) {
	g := New(func(context.Context) error { return nil }, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := g.EnsureReady(ctx, time.Minute)
	assert.ErrorIs(t, err, domain.ErrTimeout)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "uninitialized", Uninitialized.String())
	assert.Equal(t, "initializing", Initializing.String())
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "failed", Failed.String())
}
