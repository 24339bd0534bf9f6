package authflow

import (
	"errors"
	"strings"

	"github.com/figuroforge/authkit/pkg/session"
)

// User-displayable messages. Raw backend error text never reaches the UI.
const (
	msgInvalidCredentials   = "Invalid email or password. Please try again."
	msgEmailAlreadyExists   = "An account with this email already exists. Try signing in instead."
	msgRateLimited          = "Too many attempts. Please wait a moment and try again."
	msgVerificationRequired = "Almost there! Check your inbox and confirm your email to continue."
	msgGenericFailure       = "Something went wrong. Please try again."
)

// FriendlyError translates backend error shapes into user-displayable
// strings. Sentinel errors are matched first; unknown backends are matched
// on well-known message fragments so hosted-auth responses map the same
// way as the bundled stores. Everything else collapses to a generic
// message to avoid leaking internals.
func FriendlyError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, session.ErrInvalidCredentials), errors.Is(err, session.ErrUserNotFound):
		return msgInvalidCredentials
	case errors.Is(err, session.ErrEmailAlreadyExists):
		return msgEmailAlreadyExists
	case errors.Is(err, ErrRateLimited):
		return msgRateLimited
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "invalid login credentials"):
		return msgInvalidCredentials
	case strings.Contains(msg, "already registered"), strings.Contains(msg, "already exists"):
		return msgEmailAlreadyExists
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "too many"):
		return msgRateLimited
	case strings.Contains(msg, "not confirmed"):
		return msgVerificationRequired
	}

	return msgGenericFailure
}
