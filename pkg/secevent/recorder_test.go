package secevent_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/figuroforge/authkit/pkg/secevent"
)

type failingStore struct{}

func (failingStore) Store(ctx context.Context, event secevent.Event) error {
	return errors.New("backend unavailable")
}

func TestRecorder_Record(t *testing.T) {
	t.Parallel()

	t.Run("persists events with details", func(t *testing.T) {
		t.Parallel()

		store := secevent.NewMemoryStore()
		rec, closeFn := secevent.NewRecorder(store)

		rec.Record(context.Background(), secevent.TypeSignInFailure, false,
			secevent.WithDetail("email", "u***@example.com"),
			secevent.WithUser("user-1"),
		)
		closeFn() // drains the queue

		events := store.ByType(secevent.TypeSignInFailure)
		require.Len(t, events, 1)
		assert.False(t, events[0].Success)
		assert.Equal(t, "user-1", events[0].UserID)
		assert.Equal(t, "u***@example.com", events[0].Details["email"])
		assert.NotEmpty(t, events[0].ID)
		assert.False(t, events[0].CreatedAt.IsZero())
	})

	t.Run("storage failures are swallowed", func(t *testing.T) {
		t.Parallel()

		rec, closeFn := secevent.NewRecorder(failingStore{})
		defer closeFn()

		assert.NotPanics(t, func() {
			rec.Record(context.Background(), secevent.TypeSignInAttempt, true)
		})
	})

	t.Run("full queue drops instead of blocking", func(t *testing.T) {
		t.Parallel()

		block := make(chan struct{})
		store := blockingStore{unblock: block}
		rec, closeFn := secevent.NewRecorder(store, secevent.WithBufferSize(1))

		done := make(chan struct{})
		go func() {
			defer close(done)
			for range 50 {
				rec.Record(context.Background(), secevent.TypeSignInAttempt, true)
			}
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("Record blocked on a full queue")
		}

		close(block)
		closeFn()
	})
}

type blockingStore struct {
	unblock chan struct{}
}

func (s blockingStore) Store(ctx context.Context, event secevent.Event) error {
	select {
	case <-s.unblock:
	case <-ctx.Done():
	}
	return nil
}

func TestNewRecorder_NilStore(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		secevent.NewRecorder(nil)
	})
}
