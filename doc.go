// Package authkit is the session-security core of the Figuro Forge
// client: an auth provider with verification enforcement, a route guard,
// and the supporting utilities they share.
//
// The root module carries no code of its own; functionality lives in
// focused packages under pkg:
//
//   - pkg/authflow: the auth Provider, verification Enforcer, route guard
//     middleware, security score and the stateless security utilities.
//   - pkg/session: the session store contract plus in-memory and Postgres
//     implementations, Google OAuth adapter and mailers.
//   - pkg/validator, pkg/sanitizer: input validation and normalization.
//   - pkg/ratelimiter: token bucket with memory and Redis stores.
//   - pkg/secevent: fire-and-forget security event recording.
//   - pkg/broadcast, pkg/cache, pkg/async: typed broadcasting, LRU
//     caching and cancellable deferred execution.
//   - pkg/logger, pkg/config: slog factory and env-based configuration.
//
// Each package has its own documentation with usage examples.
package authkit
