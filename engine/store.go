package engine

import (
	"sync"
	"sync/atomic"
)

// Store is the concurrent map the engine runs on. It offers per-key atomic
// primitives only, no cross-key transactions. Any implementation must make
// Load, LoadOrStore and CompareAndDelete linearizable per key; Range may
// observe a racing snapshot.
//
// The engine ships two implementations: NewSyncStore (default, backed by
// sync.Map) and NewShardedStore (fnv-sharded mutex maps). Both track their
// size with an atomic counter so Len never walks the map.
type Store interface {
	// Load returns the entry mapped to key, if any.
	Load(key string) (*entry, bool)

	// LoadOrStore inserts e under key if the key is absent. It returns the
	// entry that is mapped after the call and whether it was already present.
	LoadOrStore(key string, e *entry) (*entry, bool)

	// CompareAndDelete removes key only while it still maps to e. It reports
	// whether the removal happened.
	CompareAndDelete(key string, e *entry) bool

	// Range calls fn for every mapping until fn returns false. The iteration
	// order is unspecified and the view may interleave with concurrent writes.
	Range(fn func(key string, e *entry) bool)

	// Len returns the current number of mappings, including entries that are
	// expired but not yet swept.
	Len() int64
}

// syncStore is the default Store, a thin shell over sync.Map. The map's
// LoadOrStore / CompareAndDelete give exactly the insert-if-absent and
// compare-remove primitives the Set retry loop needs.
type syncStore struct {
	m    sync.Map
	size atomic.Int64
}

// NewSyncStore returns the default sync.Map-backed store.
func NewSyncStore() Store {
	return &syncStore{}
}

func (s *syncStore) Load(key string) (*entry, bool) {
	v, ok := s.m.Load(key)
	if !ok {
		return nil, false
	}
	return v.(*entry), true
}

func (s *syncStore) LoadOrStore(key string, e *entry) (*entry, bool) {
	v, loaded := s.m.LoadOrStore(key, e)
	if !loaded {
		s.size.Add(1)
	}
	return v.(*entry), loaded
}

func (s *syncStore) CompareAndDelete(key string, e *entry) bool {
	if !s.m.CompareAndDelete(key, e) {
		return false
	}
	s.size.Add(-1)
	return true
}

func (s *syncStore) Range(fn func(key string, e *entry) bool) {
	s.m.Range(func(k, v any) bool {
		return fn(k.(string), v.(*entry))
	})
}

func (s *syncStore) Len() int64 {
	return s.size.Load()
}
