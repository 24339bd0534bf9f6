package authflow

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/figuroforge/authkit/pkg/async"
	"github.com/figuroforge/authkit/pkg/logger"
)

// BotChecker is a best-effort bot-mitigation probe. Its readiness is
// advisory only and never gates rendering.
type BotChecker interface {
	Ready(ctx context.Context) (bool, error)
}

// RouteGuard is a per-request gate wrapping protected content. It checks
// the provider's snapshot, then re-runs verification enforcement through
// the provider's own Enforcer as a second, intentional defense-in-depth
// check against state races.
type RouteGuard struct {
	provider      *Provider
	authRoute     string
	settleTimeout time.Duration
	bot           BotChecker
	logger        *slog.Logger
}

// GuardOption configures a RouteGuard.
type GuardOption func(*RouteGuard)

// WithGuardAuthRoute overrides the redirect target for denied requests.
func WithGuardAuthRoute(route string) GuardOption {
	return func(g *RouteGuard) { g.authRoute = route }
}

// WithGuardSettleTimeout bounds how long a request waits for the provider
// to deliver its initial session before the snapshot is taken at face
// value.
func WithGuardSettleTimeout(d time.Duration) GuardOption {
	return func(g *RouteGuard) { g.settleTimeout = d }
}

// WithBotChecker enables the advisory bot-mitigation probe.
func WithBotChecker(b BotChecker) GuardOption {
	return func(g *RouteGuard) { g.bot = b }
}

// WithGuardLogger sets the guard's logger.
func WithGuardLogger(l *slog.Logger) GuardOption {
	return func(g *RouteGuard) { g.logger = l }
}

// NewRouteGuard creates a guard sharing the provider's enforcement
// call-site.
func NewRouteGuard(p *Provider, opts ...GuardOption) *RouteGuard {
	g := &RouteGuard{
		provider:      p,
		authRoute:     p.authRoute,
		settleTimeout: defaultSettleTimeout,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Middleware gates the wrapped handler: anonymous requests redirect to
// the auth entry route, unverified sessions are force-signed-out and
// redirected, verified sessions pass through. The bot check runs in
// parallel and never blocks the response.
func (g *RouteGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.bot != nil {
			g.probeBotCheck()
		}

		// A provider that has not yet delivered its initial session
		// reports no user even when one is signed in. Redirecting on
		// that snapshot would bounce an authenticated request, so wait
		// for the state machine to settle first.
		snap := g.awaitSettled(r.Context())
		if snap.User == nil || snap.Session == nil {
			http.Redirect(w, r, g.authRoute, http.StatusSeeOther)
			return
		}

		res := g.provider.Enforcer().Enforce(snap.User, snap.Session)
		if !res.AllowAccess {
			g.provider.Enforcer().ForceSignOutUnverified(r.Context(), res.Err)
			http.Redirect(w, r, g.authRoute, http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// defaultSettleTimeout caps the wait for INITIAL_SESSION. Past it the
// request is judged on whatever state the provider has; a store that
// never answers must not hold requests forever.
const defaultSettleTimeout = 3 * time.Second

// awaitSettled blocks until the provider has processed its initial
// session, the request is cancelled, or the settle timeout elapses,
// then returns the latest snapshot.
func (g *RouteGuard) awaitSettled(ctx context.Context) Snapshot {
	snap := g.provider.Snapshot()
	if !snap.IsLoading {
		return snap
	}

	ctx, cancel := context.WithTimeout(ctx, g.settleTimeout)
	defer cancel()

	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return g.provider.Snapshot()
		case <-ticker.C:
			if snap = g.provider.Snapshot(); !snap.IsLoading {
				return snap
			}
		}
	}
}

// probeBotCheck runs the bot probe without gating the request. It is
// bound to the provider lifecycle, not the request, because the response
// is usually written before the probe completes. The result is logged for
// the passive indicator elsewhere in the UI.
func (g *RouteGuard) probeBotCheck() {
	async.Run(g.provider.lifecycleCtx(), func(ctx context.Context) (struct{}, error) {
		ready, err := g.bot.Ready(ctx)
		if err != nil {
			g.logger.DebugContext(ctx, "bot check unavailable",
				logger.Error(err), logger.Component("authflow"))
			return struct{}{}, nil
		}
		g.logger.DebugContext(ctx, "bot check completed",
			slog.Bool("ready", ready), logger.Component("authflow"))
		return struct{}{}, nil
	})
}
