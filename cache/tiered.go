package cache

import (
	"bytes"
	"context"
	"time"
)

// Tiered combines the Local (in-process) tier with a Redis L2. Reads check
// Local first, then L2, then the loader; writes and deletes touch both
// tiers. An L2 hit is promoted into Local so subsequent reads stay
// in-process.
type Tiered struct {
	local *Local
	l2    *L2
	group loadGroup
}

// NewTiered composes a two-level cache.
func NewTiered(local *Local, l2 *L2) *Tiered {
	return &Tiered{local: local, l2: l2}
}

// Get checks Local, then L2. On an L2 hit the value is promoted into
// Local without a TTL, since the original deadline is not recoverable from
// the L2 read.
func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok, err := t.local.Get(ctx, key); err != nil || ok {
		return v, ok, err
	}
	v, ok, err := t.l2.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	_ = t.local.Set(ctx, key, v, 0)
	return v, true, nil
}

// Set writes the value to L2 first, then Local.
func (t *Tiered) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	_ = t.l2.Set(ctx, key, val, ttl)
	return t.local.Set(ctx, key, val, ttl)
}

// Delete removes the key from both tiers.
func (t *Tiered) Delete(ctx context.Context, key string) error {
	_ = t.l2.Delete(ctx, key)
	return t.local.Delete(ctx, key)
}

// GetOrSet follows the Local → L2 → loader path, deduplicating concurrent
// loads for the same key within this process.
func (t *Tiered) GetOrSet(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) ([]byte, error)) ([]byte, error) {
	if v, ok, _ := t.local.Get(ctx, key); ok {
		return v, nil
	}
	if v, ok, _ := t.l2.Get(ctx, key); ok {
		_ = t.local.Set(ctx, key, v, ttl)
		return bytes.Clone(v), nil
	}
	return t.group.do(ctx, key, loader, func(v []byte) {
		_ = t.l2.Set(ctx, key, v, ttl)
		_ = t.local.Set(ctx, key, v, ttl)
	})
}
