// Package async provides a small generic Future primitive for deferring
// work off the current call path.
//
// The auth provider uses Run to load profiles after a session-change
// notification has settled: the continuation runs on its own goroutine, and
// because Run checks the context before invoking the function, continuations
// scheduled after the provider closes are dropped instead of writing into
// torn-down state.
package async
