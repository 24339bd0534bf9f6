package broadcast_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/figuroforge/authkit/pkg/broadcast"
)

func TestMemoryBroadcaster(t *testing.T) {
	t.Parallel()

	t.Run("delivers to all subscribers", func(t *testing.T) {
		t.Parallel()

		b := broadcast.NewMemoryBroadcaster[string](4)
		defer b.Close()

		ctx := context.Background()
		sub1 := b.Subscribe(ctx)
		sub2 := b.Subscribe(ctx)

		require.NoError(t, b.Broadcast(ctx, broadcast.Message[string]{Data: "refresh"}))

		for _, sub := range []broadcast.Subscriber[string]{sub1, sub2} {
			select {
			case msg := <-sub.Receive(ctx):
				assert.Equal(t, "refresh", msg.Data)
			case <-time.After(time.Second):
				t.Fatal("timed out waiting for message")
			}
		}
	})

	t.Run("drops messages for full buffers", func(t *testing.T) {
		t.Parallel()

		b := broadcast.NewMemoryBroadcaster[int](1)
		defer b.Close()

		ctx := context.Background()
		sub := b.Subscribe(ctx)

		require.NoError(t, b.Broadcast(ctx, broadcast.Message[int]{Data: 1}))
		require.NoError(t, b.Broadcast(ctx, broadcast.Message[int]{Data: 2}))

		msg := <-sub.Receive(ctx)
		assert.Equal(t, 1, msg.Data)
	})

	t.Run("context cancellation unsubscribes", func(t *testing.T) {
		t.Parallel()

		b := broadcast.NewMemoryBroadcaster[int](1)
		defer b.Close()

		ctx, cancel := context.WithCancel(context.Background())
		sub := b.Subscribe(ctx)
		cancel()

		// Receive channel closes once cleanup runs.
		select {
		case _, open := <-sub.Receive(context.Background()):
			assert.False(t, open)
		case <-time.After(time.Second):
			t.Fatal("subscriber was not closed")
		}
	})

	t.Run("close is idempotent and closes subscribers", func(t *testing.T) {
		t.Parallel()

		b := broadcast.NewMemoryBroadcaster[int](1)
		sub := b.Subscribe(context.Background())

		require.NoError(t, b.Close())
		require.NoError(t, b.Close())

		_, open := <-sub.Receive(context.Background())
		assert.False(t, open)

		// Subscribing after close yields an already-closed subscriber.
		late := b.Subscribe(context.Background())
		_, open = <-late.Receive(context.Background())
		assert.False(t, open)
	})
}
