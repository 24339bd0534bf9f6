// Package secevent records security-relevant events from the auth flow
// (sign-in attempts, forced sign-outs, verification emails).
//
// Recording is strictly fire-and-forget: the recorder enqueues events on a
// bounded buffer serviced by a background worker, drops on overflow, and
// swallows storage failures. A logging failure must never surface to a user
// signing in.
package secevent
