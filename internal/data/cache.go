package data

import (
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// cacheEntry is one stored run.
type cacheEntry[T any] struct {
	Value     T
	CreatedAt time.Time
	ExpiresAt time.Time
}

// RunCache keeps completed backtest results in memory under generated ids so
// API clients can page through records after the run request returns.
type RunCache[T any] struct {
	mu    sync.RWMutex
	store map[string]*cacheEntry[T]
	ttl   time.Duration
	now   func() time.Time
}

// NewRunCache creates a cache with the given TTL. A non-positive ttl uses
// RUN_CACHE_TTL or one hour.
func NewRunCache[T any](ttl time.Duration) *RunCache[T] {
	if ttl <= 0 {
		ttl = time.Hour
		if ttlStr := os.Getenv("RUN_CACHE_TTL"); ttlStr != "" {
			if parsed, err := time.ParseDuration(ttlStr); err == nil && parsed > 0 {
				ttl = parsed
			}
		}
	}
	return &RunCache[T]{
		store: make(map[string]*cacheEntry[T]),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Put stores v and returns its new id.
func (c *RunCache[T]) Put(v T) string {
	id := uuid.NewString()
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[id] = &cacheEntry[T]{Value: v, CreatedAt: now, ExpiresAt: now.Add(c.ttl)}
	return id
}

// Get returns the value for id if present and not expired.
func (c *RunCache[T]) Get(id string) (T, bool) {
	var zero T
	if _, err := uuid.Parse(id); err != nil {
		return zero, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.store[id]
	if !ok || c.now().After(entry.ExpiresAt) {
		return zero, false
	}
	return entry.Value, true
}

func (c *RunCache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Prune removes expired entries and returns how many were dropped.
func (c *RunCache[T]) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for id, entry := range c.store {
		if now.After(entry.ExpiresAt) {
			delete(c.store, id)
			n++
		}
	}
	return n
}

// StartCleanup prunes every interval until stop is closed.
func (c *RunCache[T]) StartCleanup(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.Prune()
			case <-stop:
				return
			}
		}
	}()
}
