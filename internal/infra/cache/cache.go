// Package cache provides a thread-safe in-memory TTL cache keyed by a
// structured, organization-scoped key. Entries are a disposable
// projection of backend state: mutations invalidate, reads refetch.
package cache

import (
	"sync"
	"time"
)

// Key identifies a cached entry. Org is mandatory on every key so that
// invalidation and enumeration can be scoped to one tenant; Params
// carries list-specific filter parameters (empty when none).
type Key struct {
	Domain string // feature area: "people", "deals", "dashboard", ...
	Entity string // entry kind within the domain: "list", "record", ...
	Org    string // organization id
	Params string // canonical filter string, "" for unparameterized entries
}

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// InMemory is a thread-safe in-memory cache with TTL.
type InMemory[T any] struct {
	mu    sync.RWMutex
	items map[Key]entry[T]
	ttl   time.Duration
}

// New creates a new in-memory cache with the given TTL.
func New[T any](ttl time.Duration) *InMemory[T] {
	c := &InMemory[T]{
		items: make(map[Key]entry[T]),
		ttl:   ttl,
	}
	// Background cleanup goroutine
	go c.cleanup()
	return c
}

// Get retrieves a value from the cache. Returns false if not found or expired.
func (c *InMemory[T]) Get(k Key) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[k]
	if !ok || time.Now().After(e.expiresAt) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set stores a value in the cache with the configured TTL.
func (c *InMemory[T]) Set(k Key, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[k] = entry[T]{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Delete removes a value from the cache.
func (c *InMemory[T]) Delete(k Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, k)
}

// Invalidate removes every live entry whose key matches pred and
// returns how many were removed. Predicates must check Key.Org so
// invalidation never crosses a tenant boundary.
func (c *InMemory[T]) Invalidate(pred func(Key) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k := range c.items {
		if pred(k) {
			delete(c.items, k)
			n++
		}
	}
	return n
}

// Snapshot returns a copy of every live entry whose key matches pred.
// Values are returned as stored; callers mutating slices or maps must
// work on their own copies.
func (c *InMemory[T]) Snapshot(pred func(Key) bool) map[Key]T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now()
	out := make(map[Key]T)
	for k, e := range c.items {
		if now.After(e.expiresAt) {
			continue
		}
		if pred(k) {
			out[k] = e.value
		}
	}
	return out
}

// Restore writes every snapshot entry back, replacing whatever is
// currently cached under those keys. Used to roll back optimistic
// updates verbatim.
func (c *InMemory[T]) Restore(snap map[Key]T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	exp := time.Now().Add(c.ttl)
	for k, v := range snap {
		c.items[k] = entry[T]{value: v, expiresAt: exp}
	}
}

// Clear evicts everything. Called on organization switch and sign-out
// so no cached result can survive into another tenant's session.
func (c *InMemory[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[Key]entry[T])
}

// cleanup periodically removes expired entries.
func (c *InMemory[T]) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		now := time.Now()
		for k, v := range c.items {
			if now.After(v.expiresAt) {
				delete(c.items, k)
			}
		}
		c.mu.Unlock()
	}
}
