package fingerprint

import "sync"

// CacheKey is the fixed key under which the fingerprint is cached for the
// life of the process session. It mirrors the session-storage cache key used
// by the customer portal and exists mainly for diagnostics.
const CacheKey = "portal_device_fp"

// Cache memoizes a generated fingerprint so repeated requests within one
// process session reuse the same value. It is cleared on logout; the next
// authentication generates a fresh fingerprint.
type Cache struct {
	mu    sync.Mutex
	value string
}

// NewCache creates an empty fingerprint [Cache].
func NewCache() *Cache {
	return &Cache{}
}

// Get returns the cached fingerprint and whether one is present.
func (c *Cache) Get() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.value != ""
}

// GetOrGenerate returns the cached fingerprint, generating and caching one
// via the generator on first use.
//
// GetOrGenerate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Cache) GetOrGenerate(g *Generator) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.value == "" {
		c.value = g.Generate()
	}
	return c.value
}

// Clear drops the cached fingerprint. Idempotent.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = ""
}
