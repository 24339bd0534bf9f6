package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/figuroforge/authkit/pkg/logger"
	"github.com/figuroforge/authkit/pkg/sanitizer"
)

// MemoryStore is an in-process Store implementation. It backs tests and
// local development, emulating hosted-auth behavior: sign-up hands back a
// live session even though the email is unconfirmed, and notifications are
// delivered to subscribers on every state change.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[uuid.UUID]*User
	emails      map[string]uuid.UUID
	hashes      map[uuid.UUID][]byte
	profiles    map[uuid.UUID]*Profile
	sessions    map[string]*Session
	current     string // token of the "current device" session
	subscribers map[int]ChangeCallback
	nextSubID   int

	mailer     Mailer
	oauth      *GoogleOAuth
	bcryptCost int
	sessionTTL time.Duration
	logger     *slog.Logger
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithMailer sets the mailer used for verification and reset emails.
func WithMailer(m Mailer) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.mailer = m
	}
}

// WithGoogleOAuth enables the Google OAuth entry point.
func WithGoogleOAuth(adapter *GoogleOAuth) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.oauth = adapter
	}
}

// WithBcryptCost sets the bcrypt cost for password hashing.
func WithBcryptCost(cost int) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.bcryptCost = cost
	}
}

// WithSessionTTL sets the lifetime of issued sessions.
func WithSessionTTL(ttl time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.sessionTTL = ttl
	}
}

// WithStoreLogger sets the logger for best-effort operations.
func WithStoreLogger(l *slog.Logger) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.logger = l
	}
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		users:       make(map[uuid.UUID]*User),
		emails:      make(map[string]uuid.UUID),
		hashes:      make(map[uuid.UUID][]byte),
		profiles:    make(map[uuid.UUID]*Profile),
		sessions:    make(map[string]*Session),
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
func (s *MemoryStore) CurrentSession(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessions[s.current]
	if sess == nil {
		return nil, nil
	}
	if sess.IsExpired() {
		delete(s.sessions, s.current)
		s.current = ""
		return nil, nil
	}

	cp := *sess
	return &cp, nil
}

// OnSessionChange registers a callback and immediately delivers an
// INITIAL_SESSION notification with the current session.
func (s *MemoryStore) OnSessionChange(fn ChangeCallback) Unsubscribe {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn

	var initial *Session
	if sess := s.sessions[s.current]; sess != nil && !sess.IsExpired() {
		cp := *sess
		initial = &cp
	}
	s.mu.Unlock()

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
func (s *MemoryStore) SignInWithPassword(ctx context.Context, email, password string) (*AuthResult, error) {
	email = sanitizer.NormalizeEmail(email)

	s.mu.Lock()
	id, ok := s.emails[email]
	if !ok {
		s.mu.Unlock()
		return nil, ErrInvalidCredentials
	}
	hash := s.hashes[id]
	user := s.users[id]
	s.mu.Unlock()

	if user == nil || bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	sess, err := s.issueSession(id)
	if err != nil {
		return nil, err
	}

	s.notify(EventSignedIn, sess)

	cp := *user
	return &AuthResult{User: &cp, Session: sess}, nil
}

// SignUp registers a new account. Mirrors hosted-auth defaults: the result
// carries a live session even though the email is unconfirmed.
func (s *MemoryStore) SignUp(ctx context.Context, email, password string, opts SignUpOptions) (*AuthResult, error) {
	email = sanitizer.NormalizeEmail(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if _, exists := s.emails[email]; exists {
		s.mu.Unlock()
		return nil, ErrEmailAlreadyExists
	}

	user := &User{
		ID:        uuid.New(),
		Email:     email,
		Provider:  ProviderPassword,
		CreatedAt: time.Now(),
	}
	s.users[user.ID] = user
	s.emails[email] = user.ID
	s.hashes[user.ID] = hash
	s.mu.Unlock()

	if s.mailer != nil {
		if err := s.mailer.SendVerification(ctx, email, opts.EmailRedirectTo); err != nil {
			s.logger.Error("failed to send verification email",
				logger.UserID(user.ID.String()),
				logger.Error(err),
				logger.Component("session"),
			)
		}
	}

	sess, err := s.issueSession(user.ID)
	if err != nil {
		return nil, err
	}

	s.notify(EventSignedIn, sess)

	cp := *user
	return &AuthResult{User: &cp, Session: sess}, nil
}

// SignOut invalidates the current session, or all of the user's sessions
// when scope is ScopeGlobal, then notifies subscribers.
func (s *MemoryStore) SignOut(ctx context.Context, scope SignOutScope) error {
	s.mu.Lock()
	current := s.sessions[s.current]
	if current == nil {
		s.mu.Unlock()
		return nil
	}

	if scope == ScopeGlobal {
		for token, sess := range s.sessions {
			if sess.UserID == current.UserID {
				delete(s.sessions, token)
			}
		}
	} else {
		delete(s.sessions, s.current)
	}
	s.current = ""
	s.mu.Unlock()

	s.notify(EventSignedOut, nil)
	return nil
}

// SignInWithOAuth returns the provider authorization URL. Completion is
// simulated in tests via CompleteOAuth.
func (s *MemoryStore) SignInWithOAuth(ctx context.Context, provider string, opts OAuthOptions) (string, error) {
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
func (s *MemoryStore) ResendVerificationEmail(ctx context.Context, email string) error {
	email = sanitizer.NormalizeEmail(email)

	s.mu.RLock()
	_, exists := s.emails[email]
	s.mu.RUnlock()

	// Unknown addresses are not an error: the store must not leak which
	// emails have accounts.
	if !exists || s.mailer == nil {
		return nil
	}

	return s.mailer.SendVerification(ctx, email, "")
}

// ResetPasswordForEmail sends a password reset email.
func (s *MemoryStore) ResetPasswordForEmail(ctx context.Context, email string, opts ResetPasswordOptions) error {
	email = sanitizer.NormalizeEmail(email)

	s.mu.RLock()
	_, exists := s.emails[email]
	s.mu.RUnlock()

	if !exists || s.mailer == nil {
		return nil
	}

	return s.mailer.SendPasswordReset(ctx, email, opts.RedirectTo)
}

// UserByID returns the identity record for a user.
func (s *MemoryStore) UserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

// UserByEmail returns the identity record for an email.
func (s *MemoryStore) UserByEmail(ctx context.Context, email string) (*User, error) {
	email = sanitizer.NormalizeEmail(email)

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *s.users[id]
	return &cp, nil
}

// Profile returns the application profile for a user.
func (s *MemoryStore) Profile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

// CreateProfile provisions a profile with the given defaults.
func (s *MemoryStore) CreateProfile(ctx context.Context, userID uuid.UUID, defaults Profile) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return nil, ErrUserNotFound
	}
	if _, ok := s.profiles[userID]; ok {
		return nil, ErrProfileExists
	}

	defaults.UserID = userID
	s.profiles[userID] = &defaults
	cp := defaults
	return &cp, nil
}

// ConfirmEmail marks a user's email as confirmed. Stands in for the user
// clicking the verification link.
func (s *MemoryStore) ConfirmEmail(email string) error {
	email = sanitizer.NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.emails[email]
	if !ok {
		return ErrUserNotFound
	}
	now := time.Now()
	s.users[id].EmailConfirmedAt = &now
	return nil
}

// CompleteOAuth simulates the OAuth callback: it creates or finds the user,
// issues a session and notifies SIGNED_IN. OAuth identities arrive
// pre-verified by the provider.
func (s *MemoryStore) CompleteOAuth(ctx context.Context, email string) (*AuthResult, error) {
	email = sanitizer.NormalizeEmail(email)
	now := time.Now()

	s.mu.Lock()
	id, ok := s.emails[email]
	var user *User
	if ok {
		user = s.users[id]
	} else {
		user = &User{
			ID:               uuid.New(),
			Email:            email,
			EmailConfirmedAt: &now,
			Provider:         ProviderGoogle,
			CreatedAt:        now,
		}
		s.users[user.ID] = user
		s.emails[email] = user.ID
	}
	s.mu.Unlock()

	sess, err := s.issueSession(user.ID)
	if err != nil {
		return nil, err
	}

	s.notify(EventSignedIn, sess)

	cp := *user
	return &AuthResult{User: &cp, Session: sess}, nil
}

// RefreshToken rotates the current session's access token and notifies
// TOKEN_REFRESHED. Returns ErrSessionNotFound when anonymous.
func (s *MemoryStore) RefreshToken(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	sess := s.sessions[s.current]
	if sess == nil || sess.IsExpired() {
		s.mu.Unlock()
		return nil, ErrSessionNotFound
	}

	token, err := randomToken()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	delete(s.sessions, s.current)
	refreshed := &Session{
		AccessToken: token,
		ExpiresAt:   time.Now().Add(s.sessionTTL),
		UserID:      sess.UserID,
	}
	s.sessions[token] = refreshed
	s.current = token
	cp := *refreshed
	s.mu.Unlock()

	s.notify(EventTokenRefreshed, &cp)
	return &cp, nil
}

func (s *MemoryStore) issueSession(userID uuid.UUID) (*Session, error) {
	token, err := randomToken()
	if err != nil {
		return nil, err
	}

	sess := &Session{
		AccessToken: token,
		ExpiresAt:   time.Now().Add(s.sessionTTL),
		UserID:      userID,
	}

	s.mu.Lock()
	s.sessions[token] = sess
	s.current = token
	cp := *sess
	s.mu.Unlock()

	return &cp, nil
}

// notify delivers an event to all subscribers on the caller's goroutine.
// Each subscriber gets its own copy of the session.
func (s *MemoryStore) notify(event Event, sess *Session) {
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

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Compile-time interface assertion
var _ Store = (*MemoryStore)(nil)
