package authflow

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/figuroforge/authkit/pkg/secevent"
	"github.com/figuroforge/authkit/pkg/session"
)

func TestEnforcer_Enforce(t *testing.T) {
	t.Parallel()

	confirmed := time.Now().Add(-time.Hour)
	liveSession := &session.Session{
		AccessToken: "token",
		ExpiresAt:   time.Now().Add(time.Hour),
		UserID:      uuid.New(),
	}

	enforcer := NewEnforcer(session.NewMemoryStore())

	t.Run("allows verified password user", func(t *testing.T) {
		t.Parallel()

		res := enforcer.Enforce(&session.User{
			EmailConfirmedAt: &confirmed,
			Provider:         session.ProviderPassword,
		}, liveSession)
		assert.True(t, res.AllowAccess)
		assert.Empty(t, res.Err)
	})

	t.Run("allows oauth user without confirmation", func(t *testing.T) {
		t.Parallel()

		res := enforcer.Enforce(&session.User{
			Provider: session.ProviderGoogle,
		}, liveSession)
		assert.True(t, res.AllowAccess, "oauth accounts are pre-verified by the identity provider")
	})

	t.Run("denies unverified password user", func(t *testing.T) {
		t.Parallel()

		res := enforcer.Enforce(&session.User{
			Provider: session.ProviderPassword,
		}, liveSession)
		assert.False(t, res.AllowAccess)
		assert.NotEmpty(t, res.Err)
	})

	t.Run("denies nil user", func(t *testing.T) {
		t.Parallel()

		res := enforcer.Enforce(nil, liveSession)
		assert.False(t, res.AllowAccess)
	})

	t.Run("denies nil session", func(t *testing.T) {
		t.Parallel()

		res := enforcer.Enforce(&session.User{
			EmailConfirmedAt: &confirmed,
			Provider:         session.ProviderPassword,
		}, nil)
		assert.False(t, res.AllowAccess)
	})
}

func TestEnforcer_ForceSignOutUnverified(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore()
	_, err := store.SignUp(context.Background(), "user@example.com", "str0ng-Passw0rd", session.SignUpOptions{})
	require.NoError(t, err)

	events := secevent.NewMemoryStore()
	rec, stop := secevent.NewRecorder(events)

	enforcer := NewEnforcer(store, WithEnforcerRecorder(rec))
	enforcer.ForceSignOutUnverified(context.Background(), "email verification required")
	stop()

	sess, err := store.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sess, "forced sign-out must invalidate the session")

	recorded := events.ByType(secevent.TypeForcedSignOut)
	require.Len(t, recorded, 1)
	assert.Equal(t, "email verification required", recorded[0].Details["reason"])
}
