package authflow

import "errors"

var (
	// ErrRateLimited is returned by the probe only when the limiter
	// explicitly confirms the limit. Probe unavailability never raises it.
	ErrRateLimited = errors.New("too many attempts")

	// ErrAlreadyStarted indicates a second Start call on a running provider.
	ErrAlreadyStarted = errors.New("auth provider already started")

	// ErrNotStarted indicates an operation on a provider before Start.
	ErrNotStarted = errors.New("auth provider not started")
)
