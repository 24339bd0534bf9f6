// Package ratelimiter throttles repeated auth attempts with a token
// bucket per key, typically "signin:<email>" or "signup:<email>".
//
// The surface is deliberately small. Callers ask Allow and get back a
// Decision; they never inspect bucket internals. The auth flow consults
// it through a best-effort probe, so a store error must never be treated
// as a denial. Use MemoryStore for a single process or RedisStore to
// share limits across instances.
package ratelimiter
