// Package ticketing looks up live event data (pricing, sale status, seatmap)
// from the Ticketmaster Discovery API, with a TTL cache in front to stay
// inside rate limits.
package ticketing

import (
	"context"
	"sync"
	"time"
)

// CacheTTL is how long a lookup stays fresh.
const CacheTTL = 15 * time.Minute

// CacheKey namespaces one lookup by external event id.
func CacheKey(eventID string) string {
	return "tm_event_" + eventID
}

// Cache stores raw lookup payloads. A miss is (nil, false, nil); errors are
// reserved for backend failures.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryCache is an in-process Cache. Entries expire at read time.
type MemoryCache struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemoryCache returns an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{now: time.Now, entries: make(map[string]memoryEntry)}
}

// WithClock overrides the time source for tests.
func (c *MemoryCache) WithClock(now func() time.Time) *MemoryCache {
	c.now = now
	return c
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if c.now().After(entry.expires) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	buf := make([]byte, len(value))
	copy(buf, value)
	c.entries[key] = memoryEntry{value: buf, expires: c.now().Add(ttl)}
	return nil
}
