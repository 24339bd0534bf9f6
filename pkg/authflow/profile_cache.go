package authflow

import (
	"github.com/google/uuid"

	"github.com/figuroforge/authkit/pkg/cache"
	"github.com/figuroforge/authkit/pkg/session"
)

const defaultProfileCacheSize = 256

// ProfileCache memoizes profile records across the process. It is an
// explicit injectable object rather than a package-level global so tests
// can reset it, and it is cleared synchronously on sign-out so a prior
// user's profile never leaks into a later render.
type ProfileCache struct {
	lru *cache.LRU[uuid.UUID, session.Profile]
}

// NewProfileCache creates a profile cache. capacity <= 0 uses the default.
func NewProfileCache(capacity int) *ProfileCache {
	if capacity <= 0 {
		capacity = defaultProfileCacheSize
	}
	return &ProfileCache{lru: cache.NewLRU[uuid.UUID, session.Profile](capacity)}
}

// Get returns the cached profile for a user, if present.
func (c *ProfileCache) Get(userID uuid.UUID) (session.Profile, bool) {
	return c.lru.Get(userID)
}

// Put stores a profile keyed by its user id.
func (c *ProfileCache) Put(p session.Profile) {
	c.lru.Put(p.UserID, p)
}

// Remove drops one user's cached profile.
func (c *ProfileCache) Remove(userID uuid.UUID) {
	c.lru.Remove(userID)
}

// Clear drops every cached profile.
func (c *ProfileCache) Clear() {
	c.lru.Clear()
}

// Len reports the number of cached profiles.
func (c *ProfileCache) Len() int {
	return c.lru.Len()
}
