package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is the default backend: a map guarded by a mutex, bounded by
// the working set rather than wall time. Stale entries linger until
// re-accessed or invalidated, which is fine since keys are reused.
type Memory struct {
	mu sync.Mutex
	m  map[string]entry
}

func NewMemory() *Memory {
	return &Memory{m: make(map[string]entry)}
}

func (b *Memory) Get(_ context.Context, key string) (entry, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.m[key]
	return e, ok, nil
}

func (b *Memory) Set(_ context.Context, key string, payload []byte, at time.Time, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.m[key] = entry{Payload: payload, At: at}
	return nil
}

func (b *Memory) Delete(_ context.Context, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range keys {
		delete(b.m, k)
	}
	return nil
}

func (b *Memory) Keys(_ context.Context) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := make([]string, 0, len(b.m))
	for k := range b.m {
		keys = append(keys, k)
	}
	return keys, nil
}

func (b *Memory) Clear(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.m = make(map[string]entry)
	return nil
}

// Len reports the number of live entries, stale or not.
func (b *Memory) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.m)
}
