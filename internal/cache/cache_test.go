package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInMemoryCacheExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewInMemoryCache()
	c.now = func() time.Time { return now }

	c.Set("k", "token-1", time.Minute)
	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "token-1", got)

	now = now.Add(time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok, "entry must expire exactly at its ttl")

	c.Set("other", "token-2", time.Minute)
	assert.Len(t, c.store, 1, "expired entries are dropped on Set")
}

func TestInMemoryCacheMissing(t *testing.T) {
	_, ok := NewInMemoryCache().Get("absent")
	assert.False(t, ok)
}

func TestComputeKey(t *testing.T) {
	a := ComputeKey("westeurope", "secret")
	assert.Equal(t, a, ComputeKey("westeurope", "secret"))
	assert.NotEqual(t, a, ComputeKey("eastus", "secret"))
	assert.Len(t, a, 64)
	assert.NotContains(t, a, "secret")
}
