package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// L2 is a Redis-backed cache tier. All operations fail soft: when Redis is
// unreachable, reads report a miss and writes are silently discarded, so a
// Redis outage degrades the tiered cache to local-only instead of surfacing
// errors to callers.
type L2 struct {
	rdb *redis.Client
}

// NewL2 creates a Redis-backed L2 tier.
func NewL2(addr, password string, db int) *L2 {
	return &L2{rdb: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

// Get retrieves a value by key. It returns (nil, false, nil) on a miss or
// when Redis is unreachable.
func (l *L2) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := l.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, nil // fail soft on connection errors
	}
	return val, true, nil
}

// Set stores a value under key with the given TTL. Zero TTL means no
// automatic expiration. Write errors are discarded (fail soft).
func (l *L2) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	_ = l.rdb.Set(ctx, key, val, ttl).Err()
	return nil
}

// Delete removes the entry for key. Errors are discarded (fail soft).
func (l *L2) Delete(ctx context.Context, key string) error {
	_ = l.rdb.Del(ctx, key).Err()
	return nil
}

// GetOrSet returns the cached value for key, loading and storing it on a
// miss. The L2 tier does not deduplicate loads; use Tiered when multiple
// processes share a loader.
func (l *L2) GetOrSet(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) ([]byte, error)) ([]byte, error) {
	if v, ok, _ := l.Get(ctx, key); ok {
		return v, nil
	}
	v, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	_ = l.Set(ctx, key, v, ttl)
	return v, nil
}

// Ping checks the Redis connection.
func (l *L2) Ping(ctx context.Context) error {
	return l.rdb.Ping(ctx).Err()
}

// Close closes the underlying Redis client.
func (l *L2) Close() error {
	return l.rdb.Close()
}
