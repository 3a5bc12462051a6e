// Package cache provides the caller-facing caching contract layered on top
// of the engine: a Local frontend backed by the in-process engine, an
// optional Redis L2, a Tiered composition of the two, and a cost-Bounded
// ristretto frontend for workloads that need a memory cap instead of the
// engine's TTL-only policy.
package cache

import (
	"bytes"
	"context"
	"sync"
	"time"
)

// Cache is the public caching contract exposed to user logic.
type Cache interface {
	// Get retrieves a value by key. The boolean indicates a cache hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value under key with the given TTL. A zero TTL means the
	// entry has no automatic expiration.
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error

	// Delete removes the entry for key, if any.
	Delete(ctx context.Context, key string) error

	// GetOrSet returns the cached value for key. On a cache miss it calls
	// loader exactly once (deduplicating concurrent callers for the same
	// key), stores the result, and returns it.
	GetOrSet(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) ([]byte, error)) ([]byte, error)
}

// call tracks one in-flight load shared by concurrent GetOrSet callers.
type call struct {
	wg  sync.WaitGroup
	val []byte
	err error
}

// loadGroup deduplicates concurrent loads per key. Every frontend in this
// package embeds one so that a thundering herd on a cold key runs the loader
// once.
type loadGroup struct {
	mu    sync.Mutex
	loads map[string]*call
}

// do returns the result of loader for key, joining an in-flight load when
// one exists. store is called with the loaded value on success.
func (g *loadGroup) do(ctx context.Context, key string, loader func(context.Context) ([]byte, error), store func([]byte)) ([]byte, error) {
	g.mu.Lock()
	if g.loads == nil {
		g.loads = make(map[string]*call)
	}
	if c, ok := g.loads[key]; ok {
		g.mu.Unlock()
		c.wg.Wait()
		if c.err != nil {
			return nil, c.err
		}
		return bytes.Clone(c.val), nil
	}

	c := &call{}
	c.wg.Add(1)
	g.loads[key] = c
	g.mu.Unlock()

	c.val, c.err = loader(ctx)
	if c.err == nil {
		store(c.val)
	}
	c.wg.Done()

	g.mu.Lock()
	delete(g.loads, key)
	g.mu.Unlock()

	if c.err != nil {
		return nil, c.err
	}
	return bytes.Clone(c.val), nil
}
