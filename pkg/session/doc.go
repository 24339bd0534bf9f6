// Package session defines the session store contract the auth flow is
// built against, plus two implementations and the adapters they share.
//
// The Store interface mirrors the surface of a hosted auth service: password
// and OAuth sign-in, sign-up with email verification, scoped sign-out, and a
// subscription API that pushes INITIAL_SESSION, SIGNED_IN, TOKEN_REFRESHED
// and SIGNED_OUT notifications to registered callbacks. Subscribing always
// delivers an immediate INITIAL_SESSION carrying the current session (nil
// when anonymous), so consumers can treat startup and later changes
// uniformly.
//
// # Implementations
//
//   - MemoryStore: in-process maps, bcrypt hashes, deterministic enough for
//     tests and local development. Includes ConfirmEmail, CompleteOAuth and
//     RefreshToken helpers to drive flows that normally require a browser.
//   - PGStore: PostgreSQL via pgx, schema managed by embedded goose
//     migrations (Connect and Migrate helpers included). Notifications stay
//     in-process; one PGStore serves one client.
//
// Both emulate the hosted-auth quirk that sign-up returns a live session
// before the email is confirmed. Callers that require verification-first
// access must discard that session themselves.
//
// # Usage
//
//	store := session.NewMemoryStore(
//	    session.WithMailer(session.DevMailer{Logger: log}),
//	    session.WithSessionTTL(time.Hour),
//	)
//
//	unsub := store.OnSessionChange(func(event session.Event, sess *session.Session) {
//	    log.Info("session change", "event", string(event))
//	})
//	defer unsub()
//
//	res, err := store.SignInWithPassword(ctx, "user@example.com", "secret")
//
// Lookup operations return sentinel errors (ErrUserNotFound,
// ErrProfileNotFound, ErrSessionNotFound) suitable for errors.Is checks.
// Sign-in failures collapse to ErrInvalidCredentials so callers cannot
// distinguish unknown emails from wrong passwords.
package session
