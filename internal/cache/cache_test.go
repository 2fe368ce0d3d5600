package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLFor(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		expected time.Duration
	}{
		{name: "price", category: CategoryPrice, expected: 30 * time.Second},
		{name: "historical", category: CategoryHistorical, expected: 5 * time.Minute},
		{name: "market", category: CategoryMarket, expected: 2 * time.Minute},
		{name: "quote", category: CategoryQuote, expected: 10 * time.Second},
		{name: "unknown defaults to price", category: Category("OTHER"), expected: 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TTLFor(tt.category))
		})
	}
}

func TestCache_GetReturnsStoredValue(t *testing.T) {
	c := New(Config{})

	type payload struct{ Price float64 }
	stored := &payload{Price: 123.45}
	c.Set("price:hybrid", stored, CategoryPrice)

	got, ok := c.Get("price:hybrid")
	require.True(t, ok)
	assert.Same(t, stored, got.(*payload))
}

func TestCache_ExpiryEvictsAndMisses(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	c := New(Config{Now: clock})

	c.Set("k", "v", CategoryQuote)

	// Just inside the TTL.
	now = now.Add(TTLQuote - time.Millisecond)
	_, ok := c.Get("k")
	require.True(t, ok)

	// Past the TTL: miss, and the entry is gone.
	now = now.Add(2 * time.Millisecond)
	_, ok = c.Get("k")
	require.False(t, ok)
	assert.Equal(t, 0, c.Stats().Entries)

	// Still a miss even if the clock rolls back (entry was deleted).
	now = now.Add(-time.Hour)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestCache_SweepOnlyEvictsExpired(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	c := New(Config{Now: clock})

	// Fill past the housekeeping threshold with short-lived entries.
	for i := 0; i < maxEntries; i++ {
		c.Set(fmt.Sprintf("quote:%d", i), i, CategoryQuote)
	}
	require.Equal(t, maxEntries, c.Stats().Entries)

	// Expire the quote entries, then write one more to trigger the sweep.
	now = now.Add(TTLQuote + time.Second)
	c.Set("fresh", "v", CategoryHistorical)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Entries)

	got, ok := c.Get("fresh")
	require.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestCache_ValidEntriesSurviveCapPressure(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	c := New(Config{Now: clock})

	// All entries valid: the sweep must not evict any of them.
	for i := 0; i < maxEntries+20; i++ {
		c.Set(fmt.Sprintf("hist:%d", i), i, CategoryHistorical)
	}
	assert.Equal(t, maxEntries+20, c.Stats().Entries)
}

func TestCache_Stats(t *testing.T) {
	c := New(Config{})
	c.Set("a", 1, CategoryPrice)

	_, _ = c.Get("a")       // hit
	_, _ = c.Get("missing") // miss
	_, _ = c.Get("a")       // hit

	stats := c.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.InDelta(t, 2.0/3.0, stats.HitRatio, 1e-9)
}
