package authflow

import (
	"context"
	"io"
	"log/slog"

	"github.com/figuroforge/authkit/pkg/logger"
	"github.com/figuroforge/authkit/pkg/secevent"
	"github.com/figuroforge/authkit/pkg/session"
)

// Result is the transient outcome of an enforcement decision. Consumed
// immediately by the caller, never stored.
type Result struct {
	AllowAccess bool
	Err         string
}

// Enforcer decides whether a (user, session) pair may access protected
// content, and performs the forced sign-out that accompanies a denial.
// The provider and the route guard share one Enforcer so the two
// redundant checks cannot drift apart.
type Enforcer struct {
	store    session.Store
	recorder secevent.Recorder
	logger   *slog.Logger
}

// EnforcerOption configures an Enforcer.
type EnforcerOption func(*Enforcer)

// WithEnforcerRecorder sets the security-event recorder for forced
// sign-outs.
func WithEnforcerRecorder(r secevent.Recorder) EnforcerOption {
	return func(e *Enforcer) {
		e.recorder = r
	}
}

// WithEnforcerLogger sets the enforcer's logger.
func WithEnforcerLogger(l *slog.Logger) EnforcerOption {
	return func(e *Enforcer) {
		e.logger = l
	}
}

// NewEnforcer creates a verification enforcer bound to a session store.
func NewEnforcer(store session.Store, opts ...EnforcerOption) *Enforcer {
	e := &Enforcer{
		store:  store,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enforce applies the verification policy: access is denied iff the
// user's email is unconfirmed and the account did not come through an
// OAuth provider. OAuth identities are treated as pre-verified by the
// identity provider. Pure decision; no side effects.
func (e *Enforcer) Enforce(user *session.User, sess *session.Session) Result {
	if user == nil || sess == nil {
		return Result{AllowAccess: false, Err: "no active session"}
	}
	if !user.IsVerified() && !user.IsOAuth() {
		return Result{AllowAccess: false, Err: "email verification required"}
	}
	return Result{AllowAccess: true}
}

// ForceSignOutUnverified invalidates the user's sessions everywhere.
// Always called together with a denial, never independently. The sign-out
// is best effort: a store failure is logged, not propagated, because the
// caller has already discarded the local state.
func (e *Enforcer) ForceSignOutUnverified(ctx context.Context, reason string) {
	if e.recorder != nil {
		e.recorder.Record(ctx, secevent.TypeForcedSignOut, true,
			secevent.WithDetail("reason", reason),
		)
	}

	if err := e.store.SignOut(ctx, session.ScopeGlobal); err != nil {
		e.logger.ErrorContext(ctx, "forced sign-out failed",
			logger.Error(err),
			logger.Component("authflow"),
		)
	}
}
