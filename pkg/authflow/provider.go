package authflow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/figuroforge/authkit/pkg/async"
	"github.com/figuroforge/authkit/pkg/broadcast"
	"github.com/figuroforge/authkit/pkg/logger"
	"github.com/figuroforge/authkit/pkg/ratelimiter"
	"github.com/figuroforge/authkit/pkg/sanitizer"
	"github.com/figuroforge/authkit/pkg/secevent"
	"github.com/figuroforge/authkit/pkg/session"
	"github.com/figuroforge/authkit/pkg/validator"
)

// Default routes and redirect targets. All overridable via options.
const (
	DefaultAuthRoute    = "/auth"
	DefaultLandingRoute = "/studio"
	defaultVerifyURL    = "/auth/verify"
	defaultResetURL     = "/auth/reset"
	defaultOAuthURL     = "/auth/callback"
)

// RefreshSignal is broadcast after every successful profile load. Billing
// UI subscribes to it to re-pull subscription state; the typed signal
// replaces an ad hoc string-named event so the coupling is visible in code.
type RefreshSignal struct {
	UserID uuid.UUID
	At     time.Time
}

// Snapshot is the read-only projection of provider state handed to
// consumers. Pointers reference copies; mutating them does not affect the
// provider.
type Snapshot struct {
	User          *session.User
	Session       *session.Session
	Profile       *session.Profile
	IsLoading     bool
	SecurityScore int
}

// SignUpResult is the structured outcome of SignUp. AccountExists and
// VerificationRequired are flags, not errors: callers branch UI on them.
type SignUpResult struct {
	Err           string
	AccountExists bool
	// VerificationRequired marks the success-with-gate outcome: the
	// account was created but the issued session was discarded pending
	// email confirmation.
	VerificationRequired bool
}

// OpResult is the structured outcome of operations that only need an
// error channel. Err is user-displayable; empty means success.
type OpResult struct {
	Err string
}

// Provider owns process-wide authentication state. It subscribes to
// session-change notifications, runs verification enforcement on every
// transition that carries a user, orchestrates the public auth operations
// and exposes a read-only snapshot to the rest of the application.
//
// The provider is the single writer of its state. Consumers read through
// Snapshot; navigation and notifications are emitted as intents through
// the injected Navigator and Notifier.
type Provider struct {
	store    session.Store
	enforcer *Enforcer
	cache    *ProfileCache
	probe    *Probe
	recorder secevent.Recorder
	stopRec  func()
	nav      Navigator
	notifier Notifier
	prefs    PreferenceStore
	refresh  broadcast.Broadcaster[RefreshSignal]
	log      *slog.Logger

	authRoute      string
	landingRoute   string
	verifyURL      string
	resetURL       string
	oauthURL       string
	passwordPolicy validator.PasswordStrengthConfig

	ctx    context.Context
	cancel context.CancelFunc

	mu            sync.Mutex
	user          *session.User
	sess          *session.Session
	profile       *session.Profile
	isLoading     bool
	securityScore int
	hasRedirected bool
	unsub         session.Unsubscribe
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithNavigator sets the navigation intent executor.
func WithNavigator(n Navigator) ProviderOption {
	return func(p *Provider) { p.nav = n }
}

// WithNotifier sets the toast notifier.
func WithNotifier(n Notifier) ProviderOption {
	return func(p *Provider) { p.notifier = n }
}

// WithRecorder sets the security-event recorder. The caller owns its
// lifecycle; the provider's Close will not stop it.
func WithRecorder(r secevent.Recorder) ProviderOption {
	return func(p *Provider) {
		p.recorder = r
		p.stopRec = nil
	}
}

// WithPreferences sets the advisory preference store.
func WithPreferences(prefs PreferenceStore) ProviderOption {
	return func(p *Provider) { p.prefs = prefs }
}

// WithProfileCache sets the shared profile cache.
func WithProfileCache(c *ProfileCache) ProviderOption {
	return func(p *Provider) { p.cache = c }
}

// WithRateLimiter enables soft rate-limit probing on sign-in and sign-up.
func WithRateLimiter(rl ratelimiter.Limiter) ProviderOption {
	return func(p *Provider) { p.probe = NewProbe(rl, p.log) }
}

// WithLogger sets the provider's logger.
func WithLogger(l *slog.Logger) ProviderOption {
	return func(p *Provider) { p.log = l }
}

// WithRoutes overrides the auth entry route and the authenticated landing
// route.
func WithRoutes(authRoute, landingRoute string) ProviderOption {
	return func(p *Provider) {
		p.authRoute = authRoute
		p.landingRoute = landingRoute
	}
}

// WithRedirectURLs overrides the addresses embedded in verification mail,
// reset mail and the OAuth return.
func WithRedirectURLs(verify, reset, oauth string) ProviderOption {
	return func(p *Provider) {
		p.verifyURL = verify
		p.resetURL = reset
		p.oauthURL = oauth
	}
}

// WithPasswordPolicy overrides the local password validation policy.
func WithPasswordPolicy(policy validator.PasswordStrengthConfig) ProviderOption {
	return func(p *Provider) { p.passwordPolicy = policy }
}

// NewProvider creates an auth provider bound to a session store. The
// provider starts in the Booting state; call Start to subscribe to
// session changes.
func NewProvider(store session.Store, opts ...ProviderOption) *Provider {
	p := &Provider{
		store:        store,
		cache:        NewProfileCache(0),
		nav:          NewRecordingNavigator(DefaultAuthRoute),
		notifier:     NewRecordingNotifier(),
		prefs:        &MemoryPreferences{},
		refresh:      broadcast.NewMemoryBroadcaster[RefreshSignal](8),
		log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		authRoute:    DefaultAuthRoute,
		landingRoute: DefaultLandingRoute,
		verifyURL:    defaultVerifyURL,
		resetURL:     defaultResetURL,
		oauthURL:     defaultOAuthURL,
		// The store enforces its own policy; local validation only fails
		// fast on obviously unusable input.
		passwordPolicy: validator.PasswordStrengthConfig{MinLength: 6, MaxLength: 128},
		isLoading:      true,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.recorder == nil {
		p.recorder, p.stopRec = secevent.NewRecorder(secevent.NewSlogStore(p.log))
	}

	p.enforcer = NewEnforcer(store,
		WithEnforcerRecorder(p.recorder),
		WithEnforcerLogger(p.log),
	)

	return p
}

// Start subscribes to session-change notifications. The store delivers an
// immediate INITIAL_SESSION, so the provider leaves Booting before Start
// returns. ctx bounds every deferred continuation the provider schedules.
func (p *Provider) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.unsub != nil {
		p.mu.Unlock()
		return ErrAlreadyStarted
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.mu.Unlock()

	unsub := p.store.OnSessionChange(p.handleChange)

	p.mu.Lock()
	p.unsub = unsub
	p.mu.Unlock()
	return nil
}

// Close unsubscribes from the store and cancels pending continuations, so
// no state is written after shutdown.
func (p *Provider) Close() error {
	p.mu.Lock()
	unsub := p.unsub
	p.unsub = nil
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	if cancel == nil {
		return ErrNotStarted
	}
	cancel()
	if unsub != nil {
		unsub()
	}
	if p.stopRec != nil {
		p.stopRec()
	}
	return p.refresh.Close()
}

// Snapshot returns the current read-only state projection.
func (p *Provider) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := Snapshot{
		IsLoading:     p.isLoading,
		SecurityScore: p.securityScore,
	}
	if p.user != nil {
		cp := *p.user
		snap.User = &cp
	}
	if p.sess != nil {
		cp := *p.sess
		snap.Session = &cp
	}
	if p.profile != nil {
		cp := *p.profile
		snap.Profile = &cp
	}
	return snap
}

// Enforcer returns the shared verification enforcer. The route guard uses
// the same instance so the redundant check cannot drift from the
// provider's own.
func (p *Provider) Enforcer() *Enforcer {
	return p.enforcer
}

// SubscribeRefresh returns a subscriber for the post-profile-load refresh
// signal. The subscription ends when ctx is cancelled.
func (p *Provider) SubscribeRefresh(ctx context.Context) broadcast.Subscriber[RefreshSignal] {
	return p.refresh.Subscribe(ctx)
}

// SignUp registers a new account. Local validation fails fast without a
// network call; the rate-limit probe is soft; a pre-flight lookup turns
// duplicate accounts into the AccountExists flag instead of an ambiguous
// backend error; and a session issued before email confirmation is
// discarded with a forced global sign-out.
func (p *Provider) SignUp(ctx context.Context, email, password string) SignUpResult {
	email = sanitizer.NormalizeEmail(email)

	if err := p.validateCredentials(email, password); err != nil {
		return SignUpResult{Err: err.Error()}
	}

	if err := p.probe.Check(ctx, "signup:"+email); err != nil {
		p.record(ctx, secevent.TypeSignUpAttempt, false,
			secevent.WithDetail("reason", "rate_limited"))
		return SignUpResult{Err: msgRateLimited}
	}

	if _, err := p.store.UserByEmail(ctx, email); err == nil {
		p.record(ctx, secevent.TypeSignUpAttempt, false,
			secevent.WithDetail("reason", "account_exists"))
		return SignUpResult{AccountExists: true}
	} else if !errors.Is(err, session.ErrUserNotFound) {
		// Pre-flight is an optimization, not a gate.
		p.log.DebugContext(ctx, "pre-flight account check unavailable",
			logger.Error(err), logger.Component("authflow"))
	}

	res, err := p.store.SignUp(ctx, email, password, session.SignUpOptions{
		EmailRedirectTo: p.verifyURL,
	})
	if err != nil {
		if errors.Is(err, session.ErrEmailAlreadyExists) {
			p.record(ctx, secevent.TypeSignUpAttempt, false,
				secevent.WithDetail("reason", "account_exists"))
			return SignUpResult{AccountExists: true}
		}
		p.record(ctx, secevent.TypeSignUpAttempt, false)
		return SignUpResult{Err: FriendlyError(err)}
	}

	// The backend's "sign up = signed in" default is downgraded to
	// "sign up = must verify": a live session for an unconfirmed
	// password account is never accepted.
	if res.Session != nil && !res.User.IsVerified() && !res.User.IsOAuth() {
		p.clearState()
		p.enforcer.ForceSignOutUnverified(ctx, "signup session issued before email verification")
		p.notifier.Notify(Notice{Level: NoticeInfo, Message: msgVerificationRequired})
		p.record(ctx, secevent.TypeSignUpSuccess, true,
			secevent.WithUser(res.User.ID.String()),
			secevent.WithDetail("verification_required", true))
		return SignUpResult{VerificationRequired: true}
	}

	p.record(ctx, secevent.TypeSignUpSuccess, true,
		secevent.WithUser(res.User.ID.String()))
	return SignUpResult{}
}

// SignIn authenticates with email and password. rememberMe is recorded as
// an advisory preference; enforcement of the signed-in session happens on
// the store's SIGNED_IN notification.
func (p *Provider) SignIn(ctx context.Context, email, password string, rememberMe bool) OpResult {
	email = sanitizer.NormalizeEmail(email)

	if err := p.validateCredentials(email, password); err != nil {
		return OpResult{Err: err.Error()}
	}

	if err := p.probe.Check(ctx, "signin:"+email); err != nil {
		p.record(ctx, secevent.TypeSignInFailure, false,
			secevent.WithDetail("reason", "rate_limited"))
		return OpResult{Err: msgRateLimited}
	}

	if p.prefs != nil {
		p.prefs.SetRememberMe(rememberMe)
	}

	res, err := p.store.SignInWithPassword(ctx, email, password)
	if err != nil {
		p.record(ctx, secevent.TypeSignInFailure, false,
			secevent.WithDetail("email", sanitizer.MaskEmail(email)))
		return OpResult{Err: FriendlyError(err)}
	}

	p.record(ctx, secevent.TypeSignInSuccess, true,
		secevent.WithUser(res.User.ID.String()))
	return OpResult{}
}

// SignOut clears local state, invalidates the session on every device and
// emits a hard navigation to the auth entry route.
func (p *Provider) SignOut(ctx context.Context) {
	p.clearState()

	if err := p.store.SignOut(ctx, session.ScopeGlobal); err != nil {
		p.log.ErrorContext(ctx, "sign-out failed",
			logger.Error(err), logger.Component("authflow"))
	}

	p.record(ctx, secevent.TypeSignOut, true)
	p.nav.Navigate(NavIntent{Route: p.authRoute, Hard: true})
}

// SignInWithGoogle starts the OAuth flow. Fire-and-forget: completion
// arrives later as a SIGNED_IN notification, so errors surface through
// the notifier rather than a return value.
func (p *Provider) SignInWithGoogle(ctx context.Context) {
	url, err := p.store.SignInWithOAuth(ctx, session.ProviderGoogle, session.OAuthOptions{
		RedirectTo: p.oauthURL,
	})
	if err != nil {
		p.record(ctx, secevent.TypeOAuthInitiated, false)
		p.notifier.Notify(Notice{Level: NoticeError, Message: FriendlyError(err)})
		return
	}

	p.record(ctx, secevent.TypeOAuthInitiated, true)
	p.nav.Navigate(NavIntent{Route: url, Hard: true})
}

// ResendVerificationEmail re-sends the signup confirmation email.
func (p *Provider) ResendVerificationEmail(ctx context.Context, email string) OpResult {
	email = sanitizer.NormalizeEmail(email)

	if err := validator.Apply(validator.ValidEmail("email", email)); err != nil {
		return OpResult{Err: err.Error()}
	}

	if err := p.store.ResendVerificationEmail(ctx, email); err != nil {
		p.record(ctx, secevent.TypeVerificationEmail, false)
		return OpResult{Err: FriendlyError(err)}
	}

	p.record(ctx, secevent.TypeVerificationEmail, true)
	return OpResult{}
}

// ResetPassword sends a password reset email.
func (p *Provider) ResetPassword(ctx context.Context, email string) OpResult {
	email = sanitizer.NormalizeEmail(email)

	if err := validator.Apply(validator.ValidEmail("email", email)); err != nil {
		return OpResult{Err: err.Error()}
	}

	if err := p.store.ResetPasswordForEmail(ctx, email, session.ResetPasswordOptions{
		RedirectTo: p.resetURL,
	}); err != nil {
		p.record(ctx, secevent.TypePasswordResetRequest, false)
		return OpResult{Err: FriendlyError(err)}
	}

	p.record(ctx, secevent.TypePasswordResetRequest, true)
	return OpResult{}
}

// RefreshAuth re-pulls the current session and re-runs enforcement plus
// the profile-load sequence. Idempotent: a second call with no backend
// change leaves the snapshot untouched. Used after external events (e.g.
// payment completion) that may have changed verification or plan state.
func (p *Provider) RefreshAuth(ctx context.Context) {
	sess, err := p.store.CurrentSession(ctx)
	if err != nil {
		p.log.ErrorContext(ctx, "failed to refresh session",
			logger.Error(err), logger.Component("authflow"))
		return
	}
	if sess == nil {
		p.clearState()
		return
	}

	user, err := p.store.UserByID(ctx, sess.UserID)
	if err != nil {
		p.log.ErrorContext(ctx, "failed to resolve user for session",
			logger.Error(err), logger.Component("authflow"))
		return
	}

	res := p.enforcer.Enforce(user, sess)
	if !res.AllowAccess {
		p.reject(ctx, res)
		return
	}

	p.mu.Lock()
	p.user = user
	cp := *sess
	p.sess = &cp
	p.securityScore = SecurityScore(user, sess)
	p.mu.Unlock()

	p.loadProfile(ctx, user.ID)
}

// handleChange processes one store notification. Each notification is
// handled independently and idempotently; rapid successions such as
// SIGNED_IN immediately followed by TOKEN_REFRESHED are safe.
func (p *Provider) handleChange(event session.Event, sess *session.Session) {
	switch event {
	case session.EventSignedOut:
		p.clearState()

	case session.EventInitialSession:
		if sess != nil {
			p.acceptOrReject(sess)
		}
		p.mu.Lock()
		p.isLoading = false
		p.mu.Unlock()

	case session.EventSignedIn, session.EventTokenRefreshed:
		p.acceptOrReject(sess)
	}
}

// acceptOrReject runs enforcement for a session-carrying notification.
// On pass it updates exposed state and defers the profile load until the
// notification callback has returned; on denial the pair is cleared and a
// global sign-out issued before anything is exposed.
func (p *Provider) acceptOrReject(sess *session.Session) {
	if sess == nil {
		return
	}
	ctx := p.lifecycleCtx()

	user, err := p.store.UserByID(ctx, sess.UserID)
	if err != nil {
		p.log.ErrorContext(ctx, "failed to resolve user for session",
			logger.Error(err), logger.Component("authflow"))
		return
	}

	res := p.enforcer.Enforce(user, sess)
	if !res.AllowAccess {
		p.reject(ctx, res)
		return
	}

	p.mu.Lock()
	p.user = user
	cp := *sess
	p.sess = &cp
	p.securityScore = SecurityScore(user, sess)
	// One-shot: INITIAL_SESSION and SIGNED_IN may both arrive for the
	// same OAuth completion, but only the first navigates.
	redirect := user.IsOAuth() && !p.hasRedirected && p.onAuthRoute(p.nav.Current())
	if redirect {
		p.hasRedirected = true
	}
	p.mu.Unlock()

	userID := user.ID
	async.Run(ctx, func(ctx context.Context) (struct{}, error) {
		p.loadProfile(ctx, userID)
		if redirect {
			p.nav.Navigate(NavIntent{Route: p.landingRoute, Hard: true})
		}
		return struct{}{}, nil
	})
}

// reject clears exposed state, forces a global sign-out and hard-navigates
// to the auth entry route so no protected UI is painted with stale state.
func (p *Provider) reject(ctx context.Context, res Result) {
	p.clearState()
	p.enforcer.ForceSignOutUnverified(ctx, res.Err)
	if !p.onAuthRoute(p.nav.Current()) {
		p.nav.Navigate(NavIntent{Route: p.authRoute, Hard: true})
	}
}

// onAuthRoute reports whether route belongs to the auth area. Sub-routes
// count: OAuth completion lands the browser on the provider callback path
// under the auth entry route, and that arrival must still trigger the
// one-time redirect to the landing route.
func (p *Provider) onAuthRoute(route string) bool {
	return route == p.authRoute || strings.HasPrefix(route, p.authRoute+"/")
}

// loadProfile fetches (or lazily provisions) the profile, publishes it if
// the user is still current, and broadcasts the refresh signal.
func (p *Provider) loadProfile(ctx context.Context, userID uuid.UUID) {
	prof, ok := p.cache.Get(userID)
	if !ok {
		loaded, err := p.fetchOrProvision(ctx, userID)
		if err != nil {
			p.log.WarnContext(ctx, "failed to load profile",
				logger.UserID(userID.String()),
				logger.Error(err),
				logger.Component("authflow"),
			)
			return
		}
		prof = *loaded
		p.cache.Put(prof)
	}

	p.mu.Lock()
	if p.user != nil && p.user.ID == userID {
		cp := prof
		p.profile = &cp
	}
	p.mu.Unlock()

	if err := p.refresh.Broadcast(ctx, broadcast.Message[RefreshSignal]{
		Data: RefreshSignal{UserID: userID, At: time.Now()},
	}); err != nil {
		p.log.DebugContext(ctx, "refresh broadcast failed",
			logger.Error(err), logger.Component("authflow"))
	}
}

// fetchOrProvision implements one-time profile auto-provisioning. Both
// branches check existence first, so re-running on duplicate
// notifications is side-effect free.
func (p *Provider) fetchOrProvision(ctx context.Context, userID uuid.UUID) (*session.Profile, error) {
	prof, err := p.store.Profile(ctx, userID)
	if err == nil {
		return prof, nil
	}
	if !errors.Is(err, session.ErrProfileNotFound) {
		return nil, err
	}

	prof, err = p.store.CreateProfile(ctx, userID, session.DefaultProfile(userID))
	if errors.Is(err, session.ErrProfileExists) {
		// Lost a provisioning race; the winner's record is authoritative.
		return p.store.Profile(ctx, userID)
	}
	return prof, err
}

func (p *Provider) clearState() {
	p.mu.Lock()
	p.user = nil
	p.sess = nil
	p.profile = nil
	p.securityScore = 0
	p.hasRedirected = false
	p.mu.Unlock()

	p.cache.Clear()
}

func (p *Provider) validateCredentials(email, password string) error {
	return validator.Apply(
		validator.ValidEmail("email", email),
		validator.StrongPassword("password", password, p.passwordPolicy),
	)
}

func (p *Provider) record(ctx context.Context, eventType string, success bool, opts ...secevent.EventOption) {
	if p.recorder != nil {
		p.recorder.Record(ctx, eventType, success, opts...)
	}
}

func (p *Provider) lifecycleCtx() context.Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctx != nil {
		return p.ctx
	}
	return context.Background()
}
