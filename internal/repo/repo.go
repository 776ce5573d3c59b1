// Package repo implements the entity repositories: parameterized CRUD
// and query operations with a read-through cache per repository. Every
// operation waits on the readiness gate before touching the store, and
// every write invalidates the affected cache entries before returning.
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"academic-records-core/internal/core/cache"
	"academic-records-core/internal/core/ready"
	"academic-records-core/internal/domain"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Options tune every repository the same way.
type Options struct {
	TTL          time.Duration // cache entry lifetime
	ReadyTimeout time.Duration // EnsureReady deadline per operation
}

func (o Options) withDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = time.Minute
	}
	if o.ReadyTimeout <= 0 {
		o.ReadyTimeout = 10 * time.Second
	}
	return o
}

// base carries the shared plumbing of all repositories.
type base struct {
	db   *gorm.DB
	gate *ready.Gate
	c    *cache.Cache
	log  *zap.Logger
	opts Options
}

func newBase(db *gorm.DB, gate *ready.Gate, c *cache.Cache, log *zap.Logger, opts Options) base {
	if log == nil {
		log = zap.NewNop()
	}
	return base{db: db, gate: gate, c: c, log: log, opts: opts.withDefaults()}
}

func (b *base) ensureReady(ctx context.Context) error {
	return b.gate.EnsureReady(ctx, b.opts.ReadyTimeout)
}

// storeErr maps driver errors onto the domain taxonomy. Unique and
// foreign-key violations are conflicts; everything else is storage.
func storeErr(op, msg string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey),
		errors.Is(err, gorm.ErrForeignKeyViolated):
		return &domain.Error{Op: op, Kind: domain.ErrConflict, Message: msg, Err: err}
	default:
		return domain.WrapStorage(op, msg, err)
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func pageKey(limit, offset int) string {
	return fmt.Sprintf("limit=%d:offset=%d", limit, offset)
}

func idKey(id uint) string {
	return fmt.Sprintf("id:%d", id)
}
