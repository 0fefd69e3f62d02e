// Package cache implements a generic, sharded, TTL-expiring key/value
// store with a weak-reference background evictor, mirroring the
// DashMap-backed Cache<K, V> of the provider-aggregation core this
// gateway ports.
package cache

import (
	"sync"
	"time"
)

const shardCount = 16

// entry is one cached value plus the instant it was inserted.
type entry[V any] struct {
	value     V
	insertedAt time.Time
}

type shard[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]entry[V]
}

// Cache is a generic TTL-expiring map safe for concurrent use by many
// goroutines. Reads do not block other reads; a stale entry observed by
// get is removed in place (lazy single-key eviction).
type Cache[K comparable, V any] struct {
	maxAge time.Duration
	shards [shardCount]*shard[K, V]
}

// New builds a Cache whose entries are considered live for maxAge after
// insertion.
func New[K comparable, V any](maxAge time.Duration) *Cache[K, V] {
	c := &Cache[K, V]{maxAge: maxAge}
	for i := range c.shards {
		c.shards[i] = &shard[K, V]{data: make(map[K]entry[V])}
	}
	return c
}

func (c *Cache[K, V]) shardFor(k K) *shard[K, V] {
	h := hashKey(k)
	return c.shards[h%shardCount]
}

// Get returns the live value for k, or ok=false if absent or stale. A
// stale hit is evicted before returning.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	s := c.shardFor(k)

	s.mu.RLock()
	e, found := s.data[k]
	s.mu.RUnlock()

	var zero V
	if !found {
		return zero, false
	}
	if time.Since(e.insertedAt) <= c.maxAge {
		return e.value, true
	}

	s.mu.Lock()
	if e2, still := s.data[k]; still && time.Since(e2.insertedAt) > c.maxAge {
		delete(s.data, k)
	}
	s.mu.Unlock()
	return zero, false
}

// Insert stores v under k with a fresh insertion timestamp, returning the
// previous value if one was present (regardless of its freshness).
func (c *Cache[K, V]) Insert(k K, v V) (V, bool) {
	s := c.shardFor(k)

	s.mu.Lock()
	defer s.mu.Unlock()

	old, had := s.data[k]
	s.data[k] = entry[V]{value: v, insertedAt: time.Now()}
	return old.value, had
}

// Refresh resets k's insertion timestamp to now if present, returning
// whether it was present.
func (c *Cache[K, V]) Refresh(k K) bool {
	s := c.shardFor(k)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, found := s.data[k]
	if !found {
		return false
	}
	e.insertedAt = time.Now()
	s.data[k] = e
	return true
}

// EvictStale removes every entry whose age exceeds the cache's max age.
func (c *Cache[K, V]) EvictStale() {
	now := time.Now()
	for _, s := range c.shards {
		s.mu.Lock()
		for k, e := range s.data {
			if now.Sub(e.insertedAt) > c.maxAge {
				delete(s.data, k)
			}
		}
		s.mu.Unlock()
	}
}

// ShrinkToFit is an advisory compaction hint; Go maps do not expose a
// shrink primitive, so this rebuilds each shard's map to drop the
// allocation overhead of deleted buckets.
func (c *Cache[K, V]) ShrinkToFit() {
	for _, s := range c.shards {
		s.mu.Lock()
		fresh := make(map[K]entry[V], len(s.data))
		for k, e := range s.data {
			fresh[k] = e
		}
		s.data = fresh
		s.mu.Unlock()
	}
}

func hashKey[K comparable](k K) uint32 {
	// fnv-1a over string keys, which are the only keys this gateway uses;
	// any non-string key hashes to 0, so all of them share shard 0.
	s, ok := any(k).(string)
	if !ok {
		return 0
	}
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}
