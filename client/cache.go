package client

import (
	"sync"

	"github.com/shopspring/decimal"
)

// SessionCache holds data scoped to the currently connected principal:
// profile fragments, owned-asset lists, the FLOW balance. Everything in it
// is dropped when the session ends; a stale read of a previous principal's
// data after logout is a correctness bug, not a performance nitpick.
type SessionCache struct {
	mu          sync.RWMutex
	principalID string
	entries     map[string]any
	balance     decimal.Decimal
	hasBalance  bool
}

// NewSessionCache creates an empty cache.
func NewSessionCache() *SessionCache {
	return &SessionCache{entries: make(map[string]any)}
}

// Scope binds the cache to a principal. Switching principals drops every
// entry held for the previous one.
func (c *SessionCache) Scope(principalID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.principalID != principalID {
		c.entries = make(map[string]any)
		c.balance = decimal.Zero
		c.hasBalance = false
	}
	c.principalID = principalID
}

// PrincipalID returns the principal the cache is currently scoped to.
func (c *SessionCache) PrincipalID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.principalID
}

// Put stores a value under a principal-scoped key. No-op while unscoped.
func (c *SessionCache) Put(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.principalID == "" {
		return
	}
	c.entries[key] = v
}

// Get returns the value stored under key.
func (c *SessionCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// SetBalance caches the wallet's FLOW balance.
func (c *SessionCache) SetBalance(d decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.principalID == "" {
		return
	}
	c.balance = d
	c.hasBalance = true
}

// Balance returns the cached FLOW balance, if any.
func (c *SessionCache) Balance() (decimal.Decimal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.balance, c.hasBalance
}

// Clear unscopes the cache and drops every entry.
func (c *SessionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.principalID = ""
	c.entries = make(map[string]any)
	c.balance = decimal.Zero
	c.hasBalance = false
}

// Len reports the number of cached entries.
func (c *SessionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
