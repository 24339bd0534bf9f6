package session

import (
	"time"

	"github.com/google/uuid"
)

// Event tags delivered with session-change notifications.
type Event string

const (
	EventInitialSession Event = "INITIAL_SESSION"
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
)

// Auth provider tags recorded on user accounts.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// Plan tiers for generation quotas and billing.
type Plan string

const (
	PlanFree   Plan = "free"
	PlanPro    Plan = "pro"
	PlanStudio Plan = "studio"
)

// SignOutScope controls how far a sign-out reaches.
type SignOutScope string

const (
	// ScopeGlobal invalidates the user's sessions on every device.
	ScopeGlobal SignOutScope = "global"
	// ScopeLocal invalidates only the current session.
	ScopeLocal SignOutScope = "local"
)

// Session is the token bundle issued by the store. The auth provider holds
// a read-only cached copy; the store owns the authoritative record.
type Session struct {
	AccessToken string
	ExpiresAt   time.Time
	UserID      uuid.UUID
}

// IsLive reports whether the session carries a usable access token.
func (s *Session) IsLive() bool {
	return s != nil && s.AccessToken != "" && !s.IsExpired()
}

// IsExpired reports whether the session has passed its expiry.
func (s *Session) IsExpired() bool {
	return s != nil && time.Now().After(s.ExpiresAt)
}

// User is the identity record held by the store. Immutable from the
// client's perspective; only the store mutates it.
type User struct {
	ID               uuid.UUID
	Email            string
	EmailConfirmedAt *time.Time // nil means the email is unverified
	Provider         string
	CreatedAt        time.Time
}

// IsVerified reports whether the user's email has been confirmed.
func (u *User) IsVerified() bool {
	return u != nil && u.EmailConfirmedAt != nil
}

// IsOAuth reports whether the account was created through an OAuth
// provider. OAuth accounts are treated as pre-verified by the identity
// provider.
func (u *User) IsOAuth() bool {
	return u != nil && u.Provider != "" && u.Provider != ProviderPassword
}

// Profile is the application-level record keyed by user id. Created lazily
// on first successful sign-in if absent.
type Profile struct {
	UserID             uuid.UUID
	DisplayName        string
	AvatarURL          string
	Plan               Plan
	OnboardingComplete bool
}

// DefaultProfile returns the auto-provisioning defaults for a new user.
func DefaultProfile(userID uuid.UUID) Profile {
	return Profile{
		UserID: userID,
		Plan:   PlanFree,
	}
}

// AuthResult bundles the user and session returned by sign-in and sign-up
// operations. Session may be nil when the store withholds one (e.g. signup
// pending email confirmation).
type AuthResult struct {
	User    *User
	Session *Session
}

// SignUpOptions carries optional sign-up parameters.
type SignUpOptions struct {
	// EmailRedirectTo is embedded in the verification email link.
	EmailRedirectTo string
}

// OAuthOptions carries optional OAuth flow parameters.
type OAuthOptions struct {
	// RedirectTo is the address the provider returns the browser to.
	RedirectTo string
}

// ResetPasswordOptions carries optional password-reset parameters.
type ResetPasswordOptions struct {
	// RedirectTo is embedded in the reset email link.
	RedirectTo string
}
