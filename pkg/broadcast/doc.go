// Package broadcast provides a typed publish/subscribe primitive. The auth
// provider uses it to announce profile refreshes to billing consumers with a
// typed payload instead of an ad hoc string-named event, making the coupling
// visible in code.
package broadcast
