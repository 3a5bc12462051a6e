package cache

import (
	"bytes"
	"context"
	"time"

	"github.com/Keksclan/goRawrStash/engine"
)

// Local adapts the in-process engine to the Cache contract. Unlike the raw
// engine API, Local returns owned copies from Get so callers may mutate the
// result freely.
type Local struct {
	eng   *engine.Cache
	group loadGroup
}

// NewLocal wraps an existing engine. The caller keeps ownership of the
// engine's lifecycle (Close).
func NewLocal(eng *engine.Cache) *Local {
	return &Local{eng: eng}
}

// Engine exposes the underlying engine for callers that need the richer
// TryGetMetadata/Count surface.
func (l *Local) Engine() *engine.Cache { return l.eng }

// Get retrieves a value by key.
func (l *Local) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := l.eng.TryGet(key)
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(v), true, nil
}

// Set stores a value under key with the given TTL.
func (l *Local) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	l.eng.Set(key, val, ttl)
	return nil
}

// Delete removes the entry for key, if any.
func (l *Local) Delete(_ context.Context, key string) error {
	l.eng.Remove(key)
	return nil
}

// GetOrSet returns the cached value for key, loading and storing it on a
// miss. Concurrent callers for the same cold key share one loader run.
func (l *Local) GetOrSet(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) ([]byte, error)) ([]byte, error) {
	if v, ok, _ := l.Get(ctx, key); ok {
		return v, nil
	}
	return l.group.do(ctx, key, loader, func(v []byte) {
		l.eng.Set(key, v, ttl)
	})
}
