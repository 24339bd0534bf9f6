package ratelimiter_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/figuroforge/authkit/pkg/ratelimiter"
)

func newTestBucket(t *testing.T, cfg ratelimiter.Config) *ratelimiter.Bucket {
	t.Helper()

	store := ratelimiter.NewMemoryStore(ratelimiter.WithSweepInterval(0))
	t.Cleanup(store.Close)

	bucket, err := ratelimiter.NewBucket(store, cfg)
	require.NoError(t, err)
	return bucket
}

func TestNewBucket(t *testing.T) {
	t.Parallel()

	t.Run("rejects non-positive capacity", func(t *testing.T) {
		t.Parallel()

		store := ratelimiter.NewMemoryStore(ratelimiter.WithSweepInterval(0))
		t.Cleanup(store.Close)

		_, err := ratelimiter.NewBucket(store, ratelimiter.Config{Capacity: 0, RefillEvery: time.Second})
		assert.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
	})

	t.Run("rejects non-positive refill interval", func(t *testing.T) {
		t.Parallel()

		store := ratelimiter.NewMemoryStore(ratelimiter.WithSweepInterval(0))
		t.Cleanup(store.Close)

		_, err := ratelimiter.NewBucket(store, ratelimiter.Config{Capacity: 3, RefillEvery: 0})
		assert.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
	})
}

func TestBucket_Allow(t *testing.T) {
	t.Parallel()

	t.Run("permits a burst then denies", func(t *testing.T) {
		t.Parallel()

		bucket := newTestBucket(t, ratelimiter.Config{Capacity: 3, RefillEvery: time.Hour})
		ctx := context.Background()

		for i := 3; i > 0; i-- {
			d, err := bucket.Allow(ctx, "signin:a@example.com")
			require.NoError(t, err)
			assert.True(t, d.Allowed)
			assert.Equal(t, i-1, d.Remaining)
			assert.Zero(t, d.RetryAfter)
		}

		d, err := bucket.Allow(ctx, "signin:a@example.com")
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Zero(t, d.Remaining)
		assert.Positive(t, d.RetryAfter)
	})

	t.Run("keys are independent", func(t *testing.T) {
		t.Parallel()

		bucket := newTestBucket(t, ratelimiter.Config{Capacity: 1, RefillEvery: time.Hour})
		ctx := context.Background()

		d, err := bucket.Allow(ctx, "signin:a@example.com")
		require.NoError(t, err)
		assert.True(t, d.Allowed)

		d, err = bucket.Allow(ctx, "signin:a@example.com")
		require.NoError(t, err)
		assert.False(t, d.Allowed)

		d, err = bucket.Allow(ctx, "signin:b@example.com")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	})
}

func TestBucket_Refill(t *testing.T) {
	t.Parallel()

	bucket := newTestBucket(t, ratelimiter.Config{Capacity: 2, RefillEvery: 20 * time.Millisecond})
	ctx := context.Background()

	for range 2 {
		d, err := bucket.Allow(ctx, "k")
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}

	d, err := bucket.Allow(ctx, "k")
	require.NoError(t, err)
	require.False(t, d.Allowed)

	time.Sleep(25 * time.Millisecond)

	d, err = bucket.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestMemoryStore_Forget(t *testing.T) {
	t.Parallel()

	store := ratelimiter.NewMemoryStore(ratelimiter.WithSweepInterval(0))
	t.Cleanup(store.Close)

	bucket, err := ratelimiter.NewBucket(store, ratelimiter.Config{Capacity: 1, RefillEvery: time.Hour})
	require.NoError(t, err)
	ctx := context.Background()

	d, err := bucket.Allow(ctx, "k")
	require.NoError(t, err)
	require.True(t, d.Allowed)

	d, err = bucket.Allow(ctx, "k")
	require.NoError(t, err)
	require.False(t, d.Allowed)

	store.Forget("k")

	d, err = bucket.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}
