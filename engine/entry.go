package engine

import (
	"sync"
	"sync/atomic"
	"time"
)

// record is the immutable payload published by a single Set. Every write
// allocates a fresh record, so a value slice handed out by TryGet can never
// be observed changing, even when the entry box that referenced it is
// recycled for another key. Records are never pooled.
//
// The record carries its own key so that a reader holding a recycled box can
// detect the reuse and re-resolve the mapping.
type record struct {
	key       string
	value     []byte
	createdAt time.Time
	expiresAt time.Time // zero means the entry never expires

	// hits counts successful TryGet calls since this record was published.
	// Keeping the counter on the record (not the box) means a Set resets it
	// for free, and a racing increment lands on the superseded generation.
	hits atomic.Int64
}

// newRecord builds the payload for a write. A ttl <= 0 means no expiration.
// The value is cloned; callers keep ownership of their buffer.
func newRecord(key string, value []byte, ttl time.Duration, now time.Time) *record {
	r := &record{
		key:       key,
		createdAt: now,
	}
	if value != nil {
		r.value = make([]byte, len(value))
		copy(r.value, value)
	}
	if ttl > 0 {
		r.expiresAt = now.Add(ttl)
	}
	return r
}

// expired reports whether the record's deadline has passed as of now.
func (r *record) expired(now time.Time) bool {
	return !r.expiresAt.IsZero() && !now.Before(r.expiresAt)
}

// metadata copies the accounting fields out. The snapshot does not alias the
// live record and is never mutated after return.
func (r *record) metadata() Metadata {
	return Metadata{
		CreatedAt: r.createdAt,
		ExpiresAt: r.expiresAt,
		Hits:      r.hits.Load(),
	}
}

// Metadata is a read-only snapshot of an entry's accounting fields.
// A zero ExpiresAt means the entry never expires.
type Metadata struct {
	CreatedAt time.Time
	ExpiresAt time.Time
	Hits      int64
}

// HasTTL reports whether the entry carries an expiration deadline.
func (m Metadata) HasTTL() bool { return !m.ExpiresAt.IsZero() }

// entry is the mutable, pooled box mapped by the store. The only mutable
// state is the atomic record pointer; a nil record marks a box that is being
// retired (or is sitting in the pool).
//
// Ownership discipline: a box is referenced by exactly one of {store, pool}
// at any time, except for the brief hand-off inside Set's retry loop.
type entry struct {
	rec atomic.Pointer[record]
}

// entryPool recycles retired entry boxes to cut per-write allocations.
// It has no capacity bound; under churn the pool grows until the next GC
// cycle trims it (sync.Pool semantics).
type entryPool struct {
	pool sync.Pool
}

func newEntryPool() *entryPool {
	return &entryPool{
		pool: sync.Pool{
			New: func() any { return new(entry) },
		},
	}
}

// get returns a box ready for reset. Its record pointer may be stale until
// the caller publishes a fresh record; boxes are never handed to the store
// before that happens.
func (p *entryPool) get() *entry {
	return p.pool.Get().(*entry)
}

// put retires a box. The record pointer is cleared so readers still holding
// the box observe the retirement, and so the payload becomes collectable.
func (p *entryPool) put(e *entry) {
	e.rec.Store(nil)
	p.pool.Put(e)
}
