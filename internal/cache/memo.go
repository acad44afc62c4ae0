// Package cache provides goroutine-safe memo tables with hit and miss counters.
package cache

import (
	"fmt"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Stats is a snapshot of memo usage.
type Stats struct {
	Hits   uint64
	Misses uint64
	Size   int
}

// Memo maps keys to computed values. With a capacity of zero the table
// grows without bound; otherwise the least recently used entries are
// evicted once capacity is reached.
type Memo[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]V
	bounded *lru.Cache[K, V]

	hits   atomic.Uint64
	misses atomic.Uint64
}

// New creates a memo. capacity 0 means unbounded.
func New[K comparable, V any](capacity int) (*Memo[K, V], error) {
	if capacity < 0 {
		return nil, fmt.Errorf("cache capacity must be >= 0, got %d", capacity)
	}
	m := &Memo[K, V]{}
	if capacity == 0 {
		m.entries = make(map[K]V)
		return m, nil
	}
	c, err := lru.New[K, V](capacity)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	m.bounded = c
	return m, nil
}

// Get looks up key and records a hit or miss.
func (m *Memo[K, V]) Get(key K) (V, bool) {
	var v V
	var ok bool
	if m.bounded != nil {
		v, ok = m.bounded.Get(key)
	} else {
		m.mu.RLock()
		v, ok = m.entries[key]
		m.mu.RUnlock()
	}
	if ok {
		m.hits.Add(1)
	} else {
		m.misses.Add(1)
	}
	return v, ok
}

// Put stores value under key.
func (m *Memo[K, V]) Put(key K, value V) {
	if m.bounded != nil {
		m.bounded.Add(key, value)
		return
	}
	m.mu.Lock()
	m.entries[key] = value
	m.mu.Unlock()
}

// Len returns the number of stored entries.
func (m *Memo[K, V]) Len() int {
	if m.bounded != nil {
		return m.bounded.Len()
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Purge drops every entry and resets the counters.
func (m *Memo[K, V]) Purge() {
	if m.bounded != nil {
		m.bounded.Purge()
	} else {
		m.mu.Lock()
		clear(m.entries)
		m.mu.Unlock()
	}
	m.hits.Store(0)
	m.misses.Store(0)
}

// Hits returns the number of successful lookups.
func (m *Memo[K, V]) Hits() uint64 { return m.hits.Load() }

// Misses returns the number of failed lookups.
func (m *Memo[K, V]) Misses() uint64 { return m.misses.Load() }

// Stats returns a snapshot of the counters and size.
func (m *Memo[K, V]) Stats() Stats {
	return Stats{Hits: m.Hits(), Misses: m.Misses(), Size: m.Len()}
}
