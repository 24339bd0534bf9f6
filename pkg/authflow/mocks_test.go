package authflow

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/figuroforge/authkit/pkg/ratelimiter"
	"github.com/figuroforge/authkit/pkg/session"
)

// MockStore is a mock implementation of session.Store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CurrentSession(ctx context.Context) (*session.Session, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockStore) OnSessionChange(fn session.ChangeCallback) session.Unsubscribe {
	args := m.Called(fn)
	return args.Get(0).(session.Unsubscribe)
}

func (m *MockStore) SignInWithPassword(ctx context.Context, email, password string) (*session.AuthResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.AuthResult), args.Error(1)
}

func (m *MockStore) SignUp(ctx context.Context, email, password string, opts session.SignUpOptions) (*session.AuthResult, error) {
	args := m.Called(ctx, email, password, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.AuthResult), args.Error(1)
}

func (m *MockStore) SignOut(ctx context.Context, scope session.SignOutScope) error {
	args := m.Called(ctx, scope)
	return args.Error(0)
}

func (m *MockStore) SignInWithOAuth(ctx context.Context, provider string, opts session.OAuthOptions) (string, error) {
	args := m.Called(ctx, provider, opts)
	return args.String(0), args.Error(1)
}

func (m *MockStore) ResendVerificationEmail(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockStore) ResetPasswordForEmail(ctx context.Context, email string, opts session.ResetPasswordOptions) error {
	args := m.Called(ctx, email, opts)
	return args.Error(0)
}

func (m *MockStore) UserByID(ctx context.Context, id uuid.UUID) (*session.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.User), args.Error(1)
}

func (m *MockStore) UserByEmail(ctx context.Context, email string) (*session.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.User), args.Error(1)
}

func (m *MockStore) Profile(ctx context.Context, userID uuid.UUID) (*session.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Profile), args.Error(1)
}

func (m *MockStore) CreateProfile(ctx context.Context, userID uuid.UUID, defaults session.Profile) (*session.Profile, error) {
	args := m.Called(ctx, userID, defaults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Profile), args.Error(1)
}

// MockRateLimiter is a mock implementation of ratelimiter.Limiter.
type MockRateLimiter struct {
	mock.Mock
}

func (m *MockRateLimiter) Allow(ctx context.Context, key string) (ratelimiter.Decision, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(ratelimiter.Decision), args.Error(1)
}

var (
	_ session.Store       = (*MockStore)(nil)
	_ ratelimiter.Limiter = (*MockRateLimiter)(nil)
)
