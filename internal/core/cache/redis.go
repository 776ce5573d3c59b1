package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend keeps entries in a Redis instance under a namespace
// prefix. Expiry is delegated to Redis (entries are SET with the
// ttl), so Get reports zero insertion time and the layer above treats
// any returned payload as fresh.
type RedisBackend struct {
	rdb *redis.Client
	ns  string
}

func NewRedis(rdb *redis.Client, namespace string) *RedisBackend {
	return &RedisBackend{rdb: rdb, ns: namespace}
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
}

func (b *RedisBackend) full(key string) string { return b.ns + "|" + key }

func (b *RedisBackend) Get(ctx context.Context, key string) (entry, bool, error) {
	payload, err := b.rdb.Get(ctx, b.full(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return entry{}, false, nil
		}
		return entry{}, false, err
	}
	return entry{Payload: payload}, true, nil
}

func (b *RedisBackend) Set(ctx context.Context, key string, payload []byte, _ time.Time, ttl time.Duration) error {
	return b.rdb.Set(ctx, b.full(key), payload, ttl).Err()
}

func (b *RedisBackend) Delete(ctx context.Context, keys ...string) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = b.full(k)
	}
	return b.rdb.Del(ctx, full...).Err()
}

func (b *RedisBackend) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := b.rdb.Scan(ctx, 0, b.full("*"), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), b.ns+"|"))
	}
	return keys, iter.Err()
}

func (b *RedisBackend) Clear(ctx context.Context) error {
	keys, err := b.Keys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return b.Delete(ctx, keys...)
}
