package authflow

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/figuroforge/authkit/pkg/session"
)

func TestSecurityScore(t *testing.T) {
	t.Parallel()

	now := time.Now()
	liveSession := &session.Session{
		AccessToken: "token",
		ExpiresAt:   now.Add(24 * time.Hour),
		UserID:      uuid.New(),
	}
	expiredSession := &session.Session{
		AccessToken: "token",
		ExpiresAt:   now.Add(-time.Hour),
		UserID:      uuid.New(),
	}

	confirmed := now.Add(-time.Hour)
	tests := []struct {
		name string
		user *session.User
		sess *session.Session
		want int
	}{
		{
			name: "confirmed password user with live session",
			user: &session.User{EmailConfirmedAt: &confirmed, Provider: session.ProviderPassword},
			sess: liveSession,
			want: 80,
		},
		{
			name: "confirmed oauth user with live session",
			user: &session.User{EmailConfirmedAt: &confirmed, Provider: session.ProviderGoogle},
			sess: liveSession,
			want: 100,
		},
		{
			name: "unconfirmed oauth user with live session",
			user: &session.User{Provider: session.ProviderGoogle},
			sess: liveSession,
			want: 60,
		},
		{
			name: "unconfirmed password user with live session",
			user: &session.User{Provider: session.ProviderPassword},
			sess: liveSession,
			want: 40,
		},
		{
			name: "confirmed password user with expired session",
			user: &session.User{EmailConfirmedAt: &confirmed, Provider: session.ProviderPassword},
			sess: expiredSession,
			want: 40,
		},
		{
			name: "confirmed oauth user without a session",
			user: &session.User{EmailConfirmedAt: &confirmed, Provider: session.ProviderGoogle},
			sess: nil,
			want: 60,
		},
		{
			name: "live session without a user",
			user: nil,
			sess: liveSession,
			want: 40,
		},
		{
			name: "nil pair",
			user: nil,
			sess: nil,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, SecurityScore(tt.user, tt.sess))
		})
	}
}
