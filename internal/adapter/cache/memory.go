package cache

import (
	"context"
	"sync"
	"time"

	"github.com/simaogato/skinledger-backend/internal/domain"
)

// entry wraps a cached quote with expiry and insertion order tracking.
type entry struct {
	quote     *domain.PriceQuote
	expiry    time.Time
	insertIdx int64
}

// MemoryCache is an in-process QuoteCache with a TTL and a bound on entries.
// When full, the oldest inserted entry is evicted.
type MemoryCache struct {
	mu         sync.RWMutex
	items      map[string]entry
	ttl        time.Duration
	maxEntries int
	nextIdx    int64
	now        func() time.Time
}

// NewMemoryCache creates a new MemoryCache with the given TTL and max entry count.
func NewMemoryCache(ttl time.Duration, maxEntries int) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &MemoryCache{
		items:      make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns a cached quote if found and not expired.
func (c *MemoryCache) Get(ctx context.Context, key string) (*domain.PriceQuote, bool, error) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}

	if c.now().After(e.expiry) {
		// Expired: remove lazily
		c.mu.Lock()
		if e2, ok2 := c.items[key]; ok2 && c.now().After(e2.expiry) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}

	q := *e.quote
	return &q, true, nil
}

// Set stores a quote in the cache. Evicts the oldest entry if at capacity.
func (c *MemoryCache) Set(ctx context.Context, key string, quote *domain.PriceQuote) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	q := *quote
	e := entry{
		quote:     &q,
		expiry:    c.now().Add(c.ttl),
		insertIdx: c.nextIdx,
	}
	c.nextIdx++

	if _, exists := c.items[key]; exists {
		c.items[key] = e
		return nil
	}

	if len(c.items) >= c.maxEntries {
		c.evictOldest()
	}

	c.items[key] = e
	return nil
}

// Len returns the number of stored entries, expired ones included
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// evictOldest removes the entry with the lowest insertIdx. Must be called with mu held.
func (c *MemoryCache) evictOldest() {
	var oldestKey string
	var oldestIdx int64 = -1

	for key, e := range c.items {
		if oldestIdx == -1 || e.insertIdx < oldestIdx {
			oldestIdx = e.insertIdx
			oldestKey = key
		}
	}

	if oldestKey != "" {
		delete(c.items, oldestKey)
	}
}
