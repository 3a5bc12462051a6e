package engine

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
)

// defaultShardCount is used when NewShardedStore is given a non-positive
// shard count.
const defaultShardCount = 16

// ShardedStore is an alternative Store that splits the key space across
// fnv-hashed shards, each guarded by its own RWMutex. It trades the
// allocation profile of sync.Map for predictable behavior under write-heavy
// churn, where sync.Map's dirty-map promotion gets expensive.
type ShardedStore struct {
	shards []*storeShard
	size   atomic.Int64
}

type storeShard struct {
	mu sync.RWMutex
	m  map[string]*entry
}

// NewShardedStore creates a ShardedStore with n shards. n <= 0 selects the
// default shard count.
func NewShardedStore(n int) *ShardedStore {
	if n <= 0 {
		n = defaultShardCount
	}
	s := &ShardedStore{shards: make([]*storeShard, n)}
	for i := range s.shards {
		s.shards[i] = &storeShard{m: make(map[string]*entry)}
	}
	return s
}

// shardFor hashes key onto one of the shards. FNV-1a is cheap and spreads
// short string keys well enough that no shard becomes a hot spot.
func (s *ShardedStore) shardFor(key string) *storeShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[int(h.Sum32())%len(s.shards)]
}

func (s *ShardedStore) Load(key string) (*entry, bool) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	e, ok := sh.m[key]
	sh.mu.RUnlock()
	return e, ok
}

func (s *ShardedStore) LoadOrStore(key string, e *entry) (*entry, bool) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if cur, ok := sh.m[key]; ok {
		return cur, true
	}
	sh.m[key] = e
	s.size.Add(1)
	return e, false
}

func (s *ShardedStore) CompareAndDelete(key string, e *entry) bool {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if cur, ok := sh.m[key]; !ok || cur != e {
		return false
	}
	delete(sh.m, key)
	s.size.Add(-1)
	return true
}

// Range iterates a per-shard snapshot so that fn is free to call back into
// the store (eviction during a sweep takes the shard write lock).
func (s *ShardedStore) Range(fn func(key string, e *entry) bool) {
	for _, sh := range s.shards {
		sh.mu.RLock()
		keys := make([]string, 0, len(sh.m))
		entries := make([]*entry, 0, len(sh.m))
		for k, e := range sh.m {
			keys = append(keys, k)
			entries = append(entries, e)
		}
		sh.mu.RUnlock()

		for i := range keys {
			if !fn(keys[i], entries[i]) {
				return
			}
		}
	}
}

func (s *ShardedStore) Len() int64 {
	return s.size.Load()
}
