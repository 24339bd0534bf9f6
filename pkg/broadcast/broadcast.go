package broadcast

import "context"

// Message wraps data of type T for type-safe broadcasting.
type Message[T any] struct {
	Data T
}

// Subscriber receives messages from a Broadcaster.
// Implementations must be safe for concurrent use.
type Subscriber[T any] interface {
	// Receive returns the channel delivering broadcast messages. The context
	// parameter lets networked implementations respect cancellation during
	// blocking reads; the in-memory implementation ignores it.
	Receive(ctx context.Context) <-chan Message[T]

	// Close closes the subscriber and its receive channel. Idempotent.
	Close() error
}

// Broadcaster sends messages to multiple subscribers. Implementations must
// handle slow consumers without blocking the publisher, typically by
// dropping messages.
type Broadcaster[T any] interface {
	// Subscribe registers a new subscriber. The subscription is cleaned up
	// when the given context is cancelled.
	Subscribe(ctx context.Context) Subscriber[T]

	// Broadcast delivers a message to all active subscribers. Messages may
	// be dropped for subscribers whose buffers are full.
	Broadcast(ctx context.Context, msg Message[T]) error

	// Close shuts down the broadcaster and closes all subscribers.
	Close() error
}
