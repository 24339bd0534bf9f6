// Package cache provides a generic in-process LRU cache. It backs the
// profile cache in the auth flow, which must be explicit and resettable
// rather than a hidden module-level global.
package cache
