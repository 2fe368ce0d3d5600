// Package cache provides a TTL key/value store with per-category expiry,
// used to avoid redundant calls to upstream price providers.
package cache

import (
	"sync"
	"time"
)

// Category selects the TTL applied to a stored entry.
type Category string

const (
	CategoryPrice      Category = "PRICE"
	CategoryHistorical Category = "HISTORICAL"
	CategoryMarket     Category = "MARKET"
	CategoryQuote      Category = "QUOTE"
)

// Default TTLs per data category.
const (
	TTLPrice      = 30 * time.Second
	TTLHistorical = 5 * time.Minute
	TTLMarket     = 2 * time.Minute
	TTLQuote      = 10 * time.Second
)

// maxEntries is the housekeeping threshold: once the store grows past it,
// every write triggers a sweep of already-expired entries. Valid entries are
// never evicted, even under cap pressure.
const maxEntries = 100

type entry struct {
	data      interface{}
	createdAt time.Time
	expiresAt time.Time
}

// Stats reports cache occupancy and effectiveness.
type Stats struct {
	Entries  int     `json:"entries"`
	HitRatio float64 `json:"hitRatio"`
}

// Config holds construction options for the cache.
type Config struct {
	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// Cache is a mutex-serialized TTL store. Entries are lazily evicted on read
// and swept in bulk once the entry count exceeds maxEntries.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
	hits    uint64
	misses  uint64
}

// New creates an empty cache.
func New(cfg Config) *Cache {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Cache{
		entries: make(map[string]entry),
		now:     now,
	}
}

// TTLFor returns the expiry duration for a data category.
func TTLFor(cat Category) time.Duration {
	switch cat {
	case CategoryHistorical:
		return TTLHistorical
	case CategoryMarket:
		return TTLMarket
	case CategoryQuote:
		return TTLQuote
	default:
		return TTLPrice
	}
}

// Set stores a value with an expiry of now + the category TTL.
func (c *Cache) Set(key string, data interface{}, cat Category) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = entry{
		data:      data,
		createdAt: now,
		expiresAt: now.Add(TTLFor(cat)),
	}
	c.cleanupLocked()
}

// Get returns the stored value if present and not expired. An expired entry
// is evicted and reported as a miss.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		c.misses++
		return nil, false
	}
	c.hits++
	return e.data, true
}

// Stats returns current occupancy and hit ratio.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	ratio := 0.0
	if total > 0 {
		ratio = float64(c.hits) / float64(total)
	}
	return Stats{Entries: len(c.entries), HitRatio: ratio}
}

// cleanupLocked evicts expired entries once the store exceeds maxEntries.
// Callers must hold c.mu.
func (c *Cache) cleanupLocked() {
	if len(c.entries) <= maxEntries {
		return
	}
	now := c.now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}
