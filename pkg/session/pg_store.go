package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/figuroforge/authkit/pkg/logger"
	"github.com/figuroforge/authkit/pkg/sanitizer"
)

// PGStore is a PostgreSQL-backed Store implementation for self-hosted
// deployments. Identity, profile and session records live in Postgres;
// change notifications fan out in-process, so one PGStore serves one
// client just like the hosted-auth SDK it stands in for.
type PGStore struct {
	pool *pgxpool.Pool

	mu          sync.RWMutex
	current     string // token of the "current device" session
	subscribers map[int]ChangeCallback
	nextSubID   int

	mailer     Mailer
	oauth      *GoogleOAuth
	bcryptCost int
	sessionTTL time.Duration
	logger     *slog.Logger
}

// PGStoreOption configures a PGStore.
type PGStoreOption func(*PGStore)

// WithPGMailer sets the mailer used for verification and reset emails.
func WithPGMailer(m Mailer) PGStoreOption {
	return func(s *PGStore) {
		s.mailer = m
	}
}

// WithPGGoogleOAuth enables the Google OAuth entry point.
func WithPGGoogleOAuth(adapter *GoogleOAuth) PGStoreOption {
	return func(s *PGStore) {
		s.oauth = adapter
	}
}

// WithPGBcryptCost sets the bcrypt cost for password hashing.
func WithPGBcryptCost(cost int) PGStoreOption {
	return func(s *PGStore) {
		s.bcryptCost = cost
	}
}

// WithPGSessionTTL sets the lifetime of issued sessions.
func WithPGSessionTTL(ttl time.Duration) PGStoreOption {
	return func(s *PGStore) {
		s.sessionTTL = ttl
	}
}

// WithPGLogger sets the logger for best-effort operations.
func WithPGLogger(l *slog.Logger) PGStoreOption {
	return func(s *PGStore) {
		s.logger = l
	}
}

// NewPGStore creates a Postgres-backed session store on an existing pool.
// Run Migrate before first use.
func NewPGStore(pool *pgxpool.Pool, opts ...PGStoreOption) *PGStore {
	s := &PGStore{
		pool:        pool,
		subscribers: make(map[int]ChangeCallback),
		bcryptCost:  bcrypt.DefaultCost,
		sessionTTL:  time.Hour,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// CurrentSession returns the live session, or nil when anonymous.
func (s *PGStore) CurrentSession(ctx context.Context) (*Session, error) {
	s.mu.RLock()
	token := s.current
	s.mu.RUnlock()

	if token == "" {
		return nil, nil
	}

	sess, err := s.sessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			s.clearCurrent(token)
			return nil, nil
		}
		return nil, err
	}
	if sess.IsExpired() {
		s.clearCurrent(token)
		if _, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE access_token = $1`, token); err != nil {
			s.logger.Error("failed to delete expired session", logger.Error(err), logger.Component("session"))
		}
		return nil, nil
	}

	return sess, nil
}

// OnSessionChange registers a callback and immediately delivers an
// INITIAL_SESSION notification with the current session.
func (s *PGStore) OnSessionChange(fn ChangeCallback) Unsubscribe {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	initial, err := s.CurrentSession(context.Background())
	if err != nil {
		s.logger.Error("failed to load session for initial notification",
			logger.Error(err), logger.Component("session"))
		initial = nil
	}
	fn(EventInitialSession, initial)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
		})
	}
}

// SignInWithPassword authenticates with email and password.
// Returns ErrInvalidCredentials for any failure to prevent user enumeration.
func (s *PGStore) SignInWithPassword(ctx context.Context, email, password string) (*AuthResult, error) {
	email = sanitizer.NormalizeEmail(email)

	var (
		user User
		hash []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, email_confirmed_at, provider, password_hash, created_at
		 FROM users WHERE email = $1`, email,
	).Scan(&user.ID, &user.Email, &user.EmailConfirmedAt, &user.Provider, &hash, &user.CreatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	sess, err := s.issueSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.notify(EventSignedIn, sess)
	return &AuthResult{User: &user, Session: sess}, nil
}

// SignUp registers a new account. Mirrors hosted-auth defaults: the result
// carries a live session even though the email is unconfirmed.
func (s *PGStore) SignUp(ctx context.Context, email, password string, opts SignUpOptions) (*AuthResult, error) {
	email = sanitizer.NormalizeEmail(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:        uuid.New(),
		Email:     email,
		Provider:  ProviderPassword,
		CreatedAt: time.Now(),
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO users (id, email, provider, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Email, user.Provider, hash, user.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}

	if s.mailer != nil {
		if err := s.mailer.SendVerification(ctx, email, opts.EmailRedirectTo); err != nil {
			s.logger.Error("failed to send verification email",
				logger.UserID(user.ID.String()),
				logger.Error(err),
				logger.Component("session"),
			)
		}
	}

	sess, err := s.issueSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.notify(EventSignedIn, sess)
	return &AuthResult{User: user, Session: sess}, nil
}

// SignOut invalidates the current session, or all of the user's sessions
// when scope is ScopeGlobal, then notifies subscribers.
func (s *PGStore) SignOut(ctx context.Context, scope SignOutScope) error {
	s.mu.Lock()
	token := s.current
	s.current = ""
	s.mu.Unlock()

	if token == "" {
		return nil
	}

	var err error
	if scope == ScopeGlobal {
		_, err = s.pool.Exec(ctx,
			`DELETE FROM sessions WHERE user_id =
			   (SELECT user_id FROM sessions WHERE access_token = $1)`, token)
	} else {
		_, err = s.pool.Exec(ctx, `DELETE FROM sessions WHERE access_token = $1`, token)
	}
	if err != nil {
		return err
	}

	s.notify(EventSignedOut, nil)
	return nil
}

// SignInWithOAuth returns the provider authorization URL. Completion is
// delivered by CompleteOAuth on the callback path.
func (s *PGStore) SignInWithOAuth(ctx context.Context, provider string, opts OAuthOptions) (string, error) {
	if provider != ProviderGoogle || s.oauth == nil {
		return "", ErrUnknownProvider
	}

	state, err := randomToken()
	if err != nil {
		return "", err
	}

	return s.oauth.AuthURL(state, opts.RedirectTo), nil
}

// ResendVerificationEmail re-sends the signup confirmation email.
func (s *PGStore) ResendVerificationEmail(ctx context.Context, email string) error {
	email = sanitizer.NormalizeEmail(email)

	exists, err := s.emailExists(ctx, email)
	if err != nil {
		return err
	}

	// Unknown addresses are not an error: the store must not leak which
	// emails have accounts.
	if !exists || s.mailer == nil {
		return nil
	}

	return s.mailer.SendVerification(ctx, email, "")
}

// ResetPasswordForEmail sends a password reset email.
func (s *PGStore) ResetPasswordForEmail(ctx context.Context, email string, opts ResetPasswordOptions) error {
	email = sanitizer.NormalizeEmail(email)

	exists, err := s.emailExists(ctx, email)
	if err != nil {
		return err
	}

	if !exists || s.mailer == nil {
		return nil
	}

	return s.mailer.SendPasswordReset(ctx, email, opts.RedirectTo)
}

// UserByID returns the identity record for a user.
func (s *PGStore) UserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var user User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, email_confirmed_at, provider, created_at
		 FROM users WHERE id = $1`, id,
	).Scan(&user.ID, &user.Email, &user.EmailConfirmedAt, &user.Provider, &user.CreatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UserByEmail returns the identity record for an email.
func (s *PGStore) UserByEmail(ctx context.Context, email string) (*User, error) {
	email = sanitizer.NormalizeEmail(email)

	var user User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, email_confirmed_at, provider, created_at
		 FROM users WHERE email = $1`, email,
	).Scan(&user.ID, &user.Email, &user.EmailConfirmedAt, &user.Provider, &user.CreatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Profile returns the application profile for a user.
func (s *PGStore) Profile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	var p Profile
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, display_name, avatar_url, plan, onboarding_complete
		 FROM profiles WHERE user_id = $1`, userID,
	).Scan(&p.UserID, &p.DisplayName, &p.AvatarURL, &p.Plan, &p.OnboardingComplete)
	if err != nil {
		if isNotFoundError(err) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

// CreateProfile provisions a profile with the given defaults.
func (s *PGStore) CreateProfile(ctx context.Context, userID uuid.UUID, defaults Profile) (*Profile, error) {
	defaults.UserID = userID
	_, err := s.pool.Exec(ctx,
		`INSERT INTO profiles (user_id, display_name, avatar_url, plan, onboarding_complete)
		 VALUES ($1, $2, $3, $4, $5)`,
		defaults.UserID, defaults.DisplayName, defaults.AvatarURL, defaults.Plan, defaults.OnboardingComplete,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrProfileExists
		}
		return nil, err
	}
	return &defaults, nil
}

// ConfirmEmail marks a user's email as confirmed. Stands in for the user
// clicking the verification link.
func (s *PGStore) ConfirmEmail(ctx context.Context, email string) error {
	email = sanitizer.NormalizeEmail(email)

	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET email_confirmed_at = now() WHERE email = $1`, email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// CompleteOAuth finishes the OAuth callback: it creates or finds the user,
// issues a session and notifies SIGNED_IN. OAuth identities arrive
// pre-verified by the provider.
func (s *PGStore) CompleteOAuth(ctx context.Context, email string) (*AuthResult, error) {
	email = sanitizer.NormalizeEmail(email)
	now := time.Now()

	var user User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, email_confirmed_at, provider, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		 RETURNING id, email, email_confirmed_at, provider, created_at`,
		uuid.New(), email, now, ProviderGoogle, now,
	).Scan(&user.ID, &user.Email, &user.EmailConfirmedAt, &user.Provider, &user.CreatedAt)
	if err != nil {
		return nil, err
	}

	sess, err := s.issueSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.notify(EventSignedIn, sess)
	return &AuthResult{User: &user, Session: sess}, nil
}

// RefreshToken rotates the current session's access token and notifies
// TOKEN_REFRESHED. Returns ErrSessionNotFound when anonymous.
func (s *PGStore) RefreshToken(ctx context.Context) (*Session, error) {
	s.mu.RLock()
	token := s.current
	s.mu.RUnlock()

	if token == "" {
		return nil, ErrSessionNotFound
	}

	next, err := randomToken()
	if err != nil {
		return nil, err
	}

	var sess Session
	err = s.pool.QueryRow(ctx,
		`UPDATE sessions
		 SET access_token = $1, expires_at = $2
		 WHERE access_token = $3 AND expires_at > now()
		 RETURNING access_token, expires_at, user_id`,
		next, time.Now().Add(s.sessionTTL), token,
	).Scan(&sess.AccessToken, &sess.ExpiresAt, &sess.UserID)
	if err != nil {
		if isNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	cp := sess
	s.notify(EventTokenRefreshed, &cp)
	return &sess, nil
}

func (s *PGStore) sessionByToken(ctx context.Context, token string) (*Session, error) {
	var sess Session
	err := s.pool.QueryRow(ctx,
		`SELECT access_token, expires_at, user_id FROM sessions WHERE access_token = $1`, token,
	).Scan(&sess.AccessToken, &sess.ExpiresAt, &sess.UserID)
	if err != nil {
		if isNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &sess, nil
}

func (s *PGStore) emailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email,
	).Scan(&exists)
	return exists, err
}

func (s *PGStore) issueSession(ctx context.Context, userID uuid.UUID) (*Session, error) {
	token, err := randomToken()
	if err != nil {
		return nil, err
	}

	sess := &Session{
		AccessToken: token,
		ExpiresAt:   time.Now().Add(s.sessionTTL),
		UserID:      userID,
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO sessions (access_token, user_id, expires_at) VALUES ($1, $2, $3)`,
		sess.AccessToken, sess.UserID, sess.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.current = token
	s.mu.Unlock()

	cp := *sess
	return &cp, nil
}

func (s *PGStore) clearCurrent(token string) {
	s.mu.Lock()
	if s.current == token {
		s.current = ""
	}
	s.mu.Unlock()
}

// notify delivers an event to all subscribers on the caller's goroutine.
// Each subscriber gets its own copy of the session.
func (s *PGStore) notify(event Event, sess *Session) {
	s.mu.RLock()
	callbacks := make([]ChangeCallback, 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		callbacks = append(callbacks, fn)
	}
	s.mu.RUnlock()

	for _, fn := range callbacks {
		var cp *Session
		if sess != nil {
			c := *sess
			cp = &c
		}
		fn(event, cp)
	}
}

// Compile-time interface assertion
var _ Store = (*PGStore)(nil)
