// Package cache implements the read-through TTL cache that sits in
// front of every repository read. Entries are never expired by a
// background process; freshness is checked lazily on access. Each
// repository owns one Cache instance under its own namespace, so
// invalidation in one repository can never evict another's entries.
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
)

var (
	cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cache_hits_total", Help: "Count of cache hits"},
		[]string{"namespace"},
	)
	cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cache_misses_total", Help: "Count of cache misses"},
		[]string{"namespace"},
	)
)

func init() { prometheus.MustRegister(cacheHits, cacheMisses) }

// entry is a cached payload with its insertion timestamp. A zero At
// means the backend enforces expiry itself (redis).
type entry struct {
	Payload []byte
	At      time.Time
}

// Backend stores raw entries. Implementations: Memory (default,
// in-process) and Redis.
type Backend interface {
	Get(ctx context.Context, key string) (entry, bool, error)
	Set(ctx context.Context, key string, payload []byte, at time.Time, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Keys(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error
}

type Cache struct {
	ns  string
	be  Backend
	sf  singleflight.Group
	now func() time.Time
}

func New(namespace string, be Backend) *Cache {
	return &Cache{ns: namespace, be: be, now: time.Now}
}

// GetOrLoad returns the cached payload when present and younger than
// ttl; otherwise it invokes load (coalesced across concurrent callers
// for the same key), stores the result with the current timestamp and
// returns it.
func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if e, ok, err := c.be.Get(ctx, key); err == nil && ok {
		if e.At.IsZero() || c.now().Sub(e.At) < ttl {
			cacheHits.WithLabelValues(c.ns).Inc()
			return e.Payload, nil
		}
	}
	cacheMisses.WithLabelValues(c.ns).Inc()

	v, err, _ := c.sf.Do(key, func() (any, error) {
		b, e := load(ctx)
		if e != nil {
			return nil, e
		}
		_ = c.be.Set(ctx, key, b, c.now(), ttl)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Invalidate removes every entry whose key matches pred.
func (c *Cache) Invalidate(ctx context.Context, pred func(key string) bool) error {
	keys, err := c.be.Keys(ctx)
	if err != nil {
		return err
	}
	var doomed []string
	for _, k := range keys {
		if pred(k) {
			doomed = append(doomed, k)
		}
	}
	if len(doomed) == 0 {
		return nil
	}
	return c.be.Delete(ctx, doomed...)
}

// InvalidatePrefix removes the entry at prefix and every entry in the
// segment subtree below it. "alerts:student:42" does not match
// "alerts:student:421".
func (c *Cache) InvalidatePrefix(ctx context.Context, prefix string) error {
	return c.Invalidate(ctx, SegmentPrefix(prefix))
}

// InvalidateKey removes a single exact entry.
func (c *Cache) InvalidateKey(ctx context.Context, key string) error {
	return c.be.Delete(ctx, key)
}

// Clear removes all entries unconditionally.
func (c *Cache) Clear(ctx context.Context) error {
	return c.be.Clear(ctx)
}

// Key joins segments with the cache delimiter.
func Key(parts ...string) string { return strings.Join(parts, ":") }

// SegmentPrefix builds a predicate matching prefix as a whole-segment
// prefix.
func SegmentPrefix(prefix string) func(string) bool {
	return func(key string) bool {
		return key == prefix || strings.HasPrefix(key, prefix+":")
	}
}
