// Package engine implements the in-process cache core: a concurrent entry
// store keyed by string, per-entry TTL expiration with lazy eviction on
// reads, a periodic background sweep that reclaims never-read expired keys,
// and entry-box pooling to cut allocation pressure under write churn.
//
// All operations are safe for concurrent use without external locking. The
// engine provides per-key atomicity only: there is no ordering guarantee
// across keys, and Clear is key-by-key rather than transactional.
package engine

import (
	"context"
	"sync"
	"time"
)

// Cache is the cache engine. Create one with New and release its background
// sweeper with Close.
//
// Keys are case-sensitive and may be any string, including the empty string;
// callers that require non-empty keys must enforce that at their boundary
// (the stash RPC facade does).
type Cache struct {
	store Store
	pool  *entryPool
	obs   Observer
	now   func() time.Time

	sweepEvery time.Duration

	// Sweeper goroutine ownership. Close cancels ctx and waits on wg so the
	// sweep is released even when the engine is torn down mid-pass.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// New constructs a Cache and starts the background sweeper (unless disabled
// via WithSweepInterval). New never returns nil.
func New(opts ...Option) *Cache {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Cache{
		store:      NewSyncStore(),
		pool:       newEntryPool(),
		obs:        NopObserver{},
		now:        time.Now,
		sweepEvery: DefaultSweepInterval,
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, o := range opts {
		o(c)
	}

	if c.sweepEvery > 0 {
		c.wg.Add(1)
		go c.sweepLoop()
	}
	return c
}

// Close stops the background sweeper and waits for an in-flight pass to
// finish. It is idempotent. Cache operations remain usable after Close; only
// proactive sweeping stops.
func (c *Cache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	cancel := c.cancel
	c.mu.Unlock()

	cancel()
	c.wg.Wait()
	return nil
}

// Set upserts the value for key with a fresh hit counter. A ttl > 0 arms
// expiration at now+ttl; a ttl <= 0 stores the entry without a deadline.
// Set always succeeds. The value is copied, so the caller keeps ownership
// of its buffer.
//
// Concurrent Sets on the same key are last-write-wins: the retry loop below
// guarantees at most one surviving entry box per key, and an allocation that
// loses the insert race goes back to the pool instead of leaking.
func (c *Cache) Set(key string, value []byte, ttl time.Duration) {
	rec := newRecord(key, value, ttl, c.now())

	for {
		e, ok := c.store.Load(key)
		if !ok {
			// Absent: take a box from the pool and try to claim the key.
			fresh := c.pool.get()
			fresh.rec.Store(rec)
			if _, loaded := c.store.LoadOrStore(key, fresh); loaded {
				// Another writer claimed the key first. Retire our box and
				// retry as an in-place update of the winner.
				c.pool.put(fresh)
				continue
			}
			c.obs.Write()
			return
		}

		old := e.rec.Load()
		if old == nil || old.key != key {
			// The box is mid-retirement or was recycled for another key
			// between the map read and here. Re-resolve the mapping.
			continue
		}
		// Publish the new record only if the box still carries the one we
		// observed. The CAS cannot land on a box that has been recycled for
		// a different key: recycling always rewrites the record pointer
		// first, which makes the CAS fail.
		if e.rec.CompareAndSwap(old, rec) {
			c.obs.Write()
			return
		}
	}
}

// TryGet returns the value stored for key. It reports false when the key is
// absent or expired; an entry found expired is evicted on the spot. A hit
// increments the entry's hit counter.
//
// The returned slice is a read-only view of an immutable per-write snapshot:
// it stays valid even if the entry is concurrently rewritten or removed.
// Callers must not modify it; copy first if mutation is needed.
func (c *Cache) TryGet(key string) ([]byte, bool) {
	for {
		e, ok := c.store.Load(key)
		if !ok {
			c.obs.Miss()
			return nil, false
		}
		rec := e.rec.Load()
		if rec == nil {
			// A concurrent remove or sweep is retiring this box; the lookup
			// linearizes after that removal.
			c.obs.Miss()
			return nil, false
		}
		if rec.key != key {
			// Recycled box observed through a stale map read; re-resolve.
			continue
		}
		if rec.expired(c.now()) {
			if c.evict(key, e, rec) {
				c.obs.Expire()
			}
			c.obs.Miss()
			return nil, false
		}
		rec.hits.Add(1)
		c.obs.Hit()
		return rec.value, true
	}
}

// TryGetMetadata returns an accounting snapshot for key without touching the
// hit counter. Expiration semantics match TryGet: an entry found expired is
// evicted and reported as absent.
func (c *Cache) TryGetMetadata(key string) (Metadata, bool) {
	for {
		e, ok := c.store.Load(key)
		if !ok {
			c.obs.Miss()
			return Metadata{}, false
		}
		rec := e.rec.Load()
		if rec == nil {
			c.obs.Miss()
			return Metadata{}, false
		}
		if rec.key != key {
			continue
		}
		if rec.expired(c.now()) {
			if c.evict(key, e, rec) {
				c.obs.Expire()
			}
			c.obs.Miss()
			return Metadata{}, false
		}
		c.obs.Hit()
		return rec.metadata(), true
	}
}

// Remove deletes the entry for key and reports whether a removal occurred.
// Removing an absent key is a no-op returning false.
func (c *Cache) Remove(key string) bool {
	e, ok := c.store.Load(key)
	if !ok {
		return false
	}
	if !c.store.CompareAndDelete(key, e) {
		// A concurrent remove, sweep or Clear won; it owns the reclamation.
		return false
	}
	c.pool.put(e)
	c.obs.Remove()
	return true
}

// Clear removes every current entry key-by-key. It is not a single atomic
// transaction: a Set racing with Clear may leave its (new) entry behind.
func (c *Cache) Clear() {
	c.store.Range(func(key string, e *entry) bool {
		if c.store.CompareAndDelete(key, e) {
			c.pool.put(e)
			c.obs.Remove()
		}
		return true
	})
}

// Count returns the number of stored entries. The count may transiently
// include entries that are already expired but not yet evicted.
func (c *Cache) Count() int64 {
	return c.store.Len()
}

// evict removes an entry that was observed expired. The removal is
// re-validated twice against live state: the record CAS fails if a
// concurrent Set has rewritten the entry (the new record must survive), and
// the CompareAndDelete fails if another remover already unmapped the box
// (which then owns the reclamation).
func (c *Cache) evict(key string, e *entry, rec *record) bool {
	if !e.rec.CompareAndSwap(rec, nil) {
		return false
	}
	if !c.store.CompareAndDelete(key, e) {
		return false
	}
	c.pool.put(e)
	return true
}
