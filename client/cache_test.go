package client

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSessionCacheScoping(t *testing.T) {
	c := NewSessionCache()

	// Unscoped writes are dropped.
	c.Put("profile", "x")
	assert.Equal(t, 0, c.Len())

	c.Scope("p1")
	c.Put("profile", "alice")
	c.SetBalance(decimal.RequireFromString("10"))

	v, ok := c.Get("profile")
	assert.True(t, ok)
	assert.Equal(t, "alice", v)
	balance, ok := c.Balance()
	assert.True(t, ok)
	assert.True(t, balance.Equal(decimal.RequireFromString("10")))

	// Re-scoping to the same principal keeps the entries.
	c.Scope("p1")
	assert.Equal(t, 1, c.Len())

	// Switching principals drops everything held for the previous one.
	c.Scope("p2")
	_, ok = c.Get("profile")
	assert.False(t, ok)
	_, ok = c.Balance()
	assert.False(t, ok)

	c.Put("profile", "bob")
	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.PrincipalID())
}
