package authflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/figuroforge/authkit/pkg/ratelimiter"
)

func TestProbe_Check(t *testing.T) {
	t.Parallel()

	t.Run("nil probe proceeds", func(t *testing.T) {
		t.Parallel()

		var p *Probe
		assert.NoError(t, p.Check(context.Background(), "signin:user@example.com"))
	})

	t.Run("limiter failure proceeds", func(t *testing.T) {
		t.Parallel()

		limiter := new(MockRateLimiter)
		limiter.On("Allow", mock.Anything, "signin:user@example.com").
			Return(ratelimiter.Decision{}, errors.New("redis: connection refused"))

		p := NewProbe(limiter, nil)
		assert.NoError(t, p.Check(context.Background(), "signin:user@example.com"),
			"probe unavailability must never block the user")
		limiter.AssertExpectations(t)
	})

	t.Run("allowed proceeds", func(t *testing.T) {
		t.Parallel()

		limiter := new(MockRateLimiter)
		limiter.On("Allow", mock.Anything, "signup:user@example.com").
			Return(ratelimiter.Decision{Allowed: true, Remaining: 4}, nil)

		p := NewProbe(limiter, nil)
		assert.NoError(t, p.Check(context.Background(), "signup:user@example.com"))
	})

	t.Run("explicit denial blocks", func(t *testing.T) {
		t.Parallel()

		limiter := new(MockRateLimiter)
		limiter.On("Allow", mock.Anything, "signup:user@example.com").
			Return(ratelimiter.Decision{RetryAfter: time.Minute}, nil)

		p := NewProbe(limiter, nil)
		assert.ErrorIs(t, p.Check(context.Background(), "signup:user@example.com"), ErrRateLimited)
	})
}
