package secevent

import "time"

// Common event types recorded by the auth flow.
const (
	TypeSignUpAttempt        = "signup_attempt"
	TypeSignUpSuccess        = "signup_success"
	TypeSignInAttempt        = "signin_attempt"
	TypeSignInSuccess        = "signin_success"
	TypeSignInFailure        = "signin_failure"
	TypeSignOut              = "signout"
	TypeForcedSignOut        = "forced_signout"
	TypeVerificationEmail    = "verification_email_sent"
	TypePasswordResetRequest = "password_reset_requested"
	TypeOAuthInitiated       = "oauth_initiated"
)

// Event is a single security event record.
type Event struct {
	ID        string         `json:"id"`
	EventType string         `json:"event_type"`
	Details   map[string]any `json:"event_details,omitempty"`
	Success   bool           `json:"success"`
	UserID    string         `json:"user_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// EventOption adds data to an Event during recording.
type EventOption func(*Event)

// WithDetail attaches one key/value pair to the event details.
func WithDetail(key string, value any) EventOption {
	return func(e *Event) {
		if e.Details == nil {
			e.Details = make(map[string]any)
		}
		e.Details[key] = value
	}
}

// WithUser attaches the acting user identifier.
func WithUser(userID string) EventOption {
	return func(e *Event) {
		e.UserID = userID
	}
}
