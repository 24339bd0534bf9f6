// Package authflow implements the layered session-security flow at the
// heart of the Figuro Forge client: a Provider that owns process-wide
// authentication state, a verification Enforcer, a route guard, and the
// stateless security utilities they share.
//
// # Provider
//
// The Provider subscribes to a session.Store and processes its
// notifications (INITIAL_SESSION, SIGNED_IN, TOKEN_REFRESHED,
// SIGNED_OUT). Enforcement runs on every notification that carries a
// user, not only at boot, because a session can become invalid between
// checks. A pair that fails enforcement is never exposed: the provider
// clears its state, issues a global sign-out and emits a hard navigation
// intent to the auth entry route.
//
//	store := session.NewMemoryStore()
//	provider := authflow.NewProvider(store,
//	    authflow.WithRateLimiter(bucket),
//	    authflow.WithLogger(log),
//	)
//	if err := provider.Start(ctx); err != nil {
//	    return err
//	}
//	defer provider.Close()
//
//	res := provider.SignUp(ctx, "new@example.com", "secret123")
//	switch {
//	case res.AccountExists:
//	    // offer sign-in instead
//	case res.VerificationRequired:
//	    // "check your email" success state
//	case res.Err != "":
//	    // inline error
//	}
//
// All public operations return structured results with user-displayable
// error strings; none panic or return raw backend errors. Sign-up
// downgrades the backend's "sign up = signed in" default to "sign up =
// must verify": a session issued for an unconfirmed password account is
// discarded and a global sign-out forced.
//
// Profile loads are deferred until the triggering notification callback
// has returned, and every deferred continuation is bound to the
// provider's lifecycle context so no state is written after Close. After
// each successful load the provider broadcasts a typed RefreshSignal that
// billing UI consumes via SubscribeRefresh.
//
// # Enforcer and guard
//
// The Enforcer denies access iff the email is unconfirmed and the account
// did not come through an OAuth provider. The RouteGuard middleware
// re-runs the same Enforcer instance per request as intentional defense
// in depth; having one shared call-site keeps the two checks from
// drifting apart.
//
// Navigation is emitted as intents through the Navigator interface and
// toasts through the Notifier interface, keeping the core free of UI
// side effects. RecordingNavigator and RecordingNotifier are the
// defaults, which tests assert against directly.
package authflow
