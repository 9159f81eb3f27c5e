package cache

import (
	"sync"
	"time"
)

// TokenCache stores short-lived credentials until they expire.
type TokenCache interface {
	// Get returns the token for the given key if it has not expired.
	Get(key string) (string, bool)
	// Set stores the token for the given key for ttl.
	Set(key string, token string, ttl time.Duration)
}

type entry struct {
	token     string
	expiresAt time.Time
}

// InMemoryCache is a thread-safe, in-memory implementation of TokenCache.
type InMemoryCache struct {
	mu    sync.RWMutex
	store map[string]entry
	now   func() time.Time
}

// NewInMemoryCache initializes and returns a new in-memory cache.
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		store: make(map[string]entry),
		now:   time.Now,
	}
}

// Get retrieves a token from the cache by key. Expired entries are reported
// as missing and removed lazily on the next Set.
func (c *InMemoryCache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, found := c.store[key]
	if !found || !c.now().Before(e.expiresAt) {
		return "", false
	}
	return e.token, true
}

// Set adds or updates a token in the cache.
func (c *InMemoryCache) Set(key string, token string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.store {
		if !now.Before(e.expiresAt) {
			delete(c.store, k)
		}
	}
	c.store[key] = entry{token: token, expiresAt: now.Add(ttl)}
}
