// Package cache provides session-scoped memoization for expensive upstream
// calls. Entries never expire and there is no eviction; the working set is
// bounded by what a user asks for within one session.
package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache memoizes the result of an asynchronous lookup keyed by string.
// Concurrent calls for the same key collapse onto a single in-flight
// computation; a failed computation stores nothing, so the next call with
// the same key retries.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]V
	group   singleflight.Group
}

// New creates an empty cache.
func New[V any]() *Cache[V] {
	return &Cache[V]{entries: make(map[string]V)}
}

// Get returns the cached value for key, or invokes compute exactly once to
// produce it. The context passed to compute is the first caller's; callers
// that join an in-flight computation share its result regardless of their
// own context.
func (c *Cache[V]) Get(ctx context.Context, key string, compute func(ctx context.Context) (V, error)) (V, error) {
	c.mu.RLock()
	if v, ok := c.entries[key]; ok {
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// A previous flight may have stored the value between our read miss
		// and joining the group.
		c.mu.RLock()
		if v, ok := c.entries[key]; ok {
			c.mu.RUnlock()
			return v, nil
		}
		c.mu.RUnlock()

		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = v
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// Len returns the number of stored entries.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
