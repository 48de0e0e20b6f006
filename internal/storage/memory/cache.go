package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"hotel_booking/internal/adapters/observability"
)

// Cache is a process-local stand-in for the Redis cache. Values are stored as JSON so
// readers never share memory with writers.
type Cache struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]cacheEntry
}

type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

func NewCache() *Cache {
	return &Cache{now: time.Now, entries: make(map[string]cacheEntry)}
}

func (c *Cache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()
	if !ok {
		observability.ObserveCache("memory", "miss")
		return false, nil
	}
	observability.ObserveCache("memory", "hit")
	if err := json.Unmarshal(e.data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) Set(_ context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	e := cacheEntry{data: b}
	if ttlSec > 0 {
		e.expiresAt = c.now().Add(time.Duration(ttlSec) * time.Second)
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	observability.ObserveCache("memory", "set")
	return nil
}

func (c *Cache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	observability.ObserveCache("memory", "del")
	return nil
}
