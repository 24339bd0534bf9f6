package session

import (
	"context"

	"github.com/google/uuid"
)

// ChangeCallback receives session-change notifications. The session is nil
// for SIGNED_OUT and for an anonymous INITIAL_SESSION.
type ChangeCallback func(event Event, sess *Session)

// Unsubscribe detaches a previously registered callback. Safe to call more
// than once.
type Unsubscribe func()

// Store is the session store surface the auth flow consumes. Production
// deployments back it with a hosted auth service; MemoryStore and PGStore
// implement the same contract for tests and self-hosting.
//
// All mutating operations notify subscribed callbacks with the appropriate
// event tag. Implementations must be safe for concurrent use.
type Store interface {
	// CurrentSession returns the live session, or nil when anonymous.
	CurrentSession(ctx context.Context) (*Session, error)

	// OnSessionChange registers a callback and immediately delivers an
	// INITIAL_SESSION notification carrying the current session (nil when
	// anonymous).
	OnSessionChange(fn ChangeCallback) Unsubscribe

	// SignInWithPassword authenticates with email and password.
	SignInWithPassword(ctx context.Context, email, password string) (*AuthResult, error)

	// SignUp registers a new account. Following hosted-auth defaults the
	// result may carry a live session even though the email is unconfirmed;
	// callers enforcing verification-first must discard it.
	SignUp(ctx context.Context, email, password string, opts SignUpOptions) (*AuthResult, error)

	// SignOut invalidates the current session, or every session for the
	// user when scope is ScopeGlobal.
	SignOut(ctx context.Context, scope SignOutScope) error

	// SignInWithOAuth starts the OAuth handshake and returns the provider
	// authorization URL to redirect the browser to. Completion arrives
	// later as a SIGNED_IN notification.
	SignInWithOAuth(ctx context.Context, provider string, opts OAuthOptions) (string, error)

	// ResendVerificationEmail re-sends the signup confirmation email.
	ResendVerificationEmail(ctx context.Context, email string) error

	// ResetPasswordForEmail sends a password reset email.
	ResetPasswordForEmail(ctx context.Context, email string, opts ResetPasswordOptions) error

	// UserByID returns the identity record for a user.
	UserByID(ctx context.Context, id uuid.UUID) (*User, error)

	// UserByEmail returns the identity record for an email, or
	// ErrUserNotFound. Used for pre-flight existing-account checks.
	UserByEmail(ctx context.Context, email string) (*User, error)

	// Profile returns the application profile, or ErrProfileNotFound.
	Profile(ctx context.Context, userID uuid.UUID) (*Profile, error)

	// CreateProfile provisions a profile with the given defaults.
	CreateProfile(ctx context.Context, userID uuid.UUID, defaults Profile) (*Profile, error)
}
