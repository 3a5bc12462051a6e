package cache

import (
	"bytes"
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Bounded is a ristretto-backed frontend for workloads that need a memory
// cost cap. Unlike Local it may evict entries under pressure and admits
// writes probabilistically, so it is not a drop-in for callers that rely on
// the engine's keep-until-expiry guarantee; it exists for best-effort
// memoization caches. Each entry is charged a cost of its value length.
type Bounded struct {
	rc    *ristretto.Cache[string, []byte]
	group loadGroup
}

// NewBounded creates a Bounded cache holding at most maxBytes of values.
func NewBounded(maxBytes int64) (*Bounded, error) {
	rc, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxBytes / 64 * 10,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Bounded{rc: rc}, nil
}

// Get retrieves a value by key.
func (b *Bounded) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := b.rc.Get(key)
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(v), true, nil
}

// Set stores a value under key with the given TTL. The write may be dropped
// by ristretto's admission policy; Set waits for the write buffer so a
// subsequent Get observes an admitted write.
func (b *Bounded) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	v := bytes.Clone(val)
	b.rc.SetWithTTL(key, v, max(int64(len(v)), 1), ttl)
	b.rc.Wait()
	return nil
}

// Delete removes the entry for key, if any.
func (b *Bounded) Delete(_ context.Context, key string) error {
	b.rc.Del(key)
	return nil
}

// GetOrSet returns the cached value for key, loading and storing it on a
// miss. Concurrent callers for the same cold key share one loader run.
func (b *Bounded) GetOrSet(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) ([]byte, error)) ([]byte, error) {
	if v, ok, _ := b.Get(ctx, key); ok {
		return v, nil
	}
	return b.group.do(ctx, key, loader, func(v []byte) {
		_ = b.Set(ctx, key, v, ttl)
	})
}

// Close releases ristretto's internal goroutines.
func (b *Bounded) Close() {
	b.rc.Close()
}
