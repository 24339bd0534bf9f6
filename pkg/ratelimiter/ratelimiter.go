package ratelimiter

import (
	"context"
	"fmt"
	"time"
)

// Limiter answers a single question: may the caller perform the action
// identified by key right now. Implementations must be safe for concurrent
// use.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Decision is the outcome of one Allow call.
type Decision struct {
	// Allowed reports whether the action may proceed.
	Allowed bool
	// Remaining is how many further actions are permitted before the
	// bucket runs dry. Zero when denied.
	Remaining int
	// RetryAfter is how long until a denied action would be permitted
	// again. Zero when Allowed.
	RetryAfter time.Duration
}

// Config shapes a token bucket: a burst of Capacity actions, then one more
// every RefillEvery.
type Config struct {
	Capacity    int
	RefillEvery time.Duration
}

func (c Config) validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, c.Capacity)
	}
	if c.RefillEvery <= 0 {
		return fmt.Errorf("%w: refill interval must be positive, got %v", ErrInvalidConfig, c.RefillEvery)
	}
	return nil
}

// Bucket is a token bucket Limiter over a pluggable Store. Every Allow
// takes one token for its key.
type Bucket struct {
	store Store
	cfg   Config
}

var _ Limiter = (*Bucket)(nil)

// NewBucket returns a Bucket backed by store, or ErrInvalidConfig if the
// configuration is unusable.
func NewBucket(store Store, cfg Config) (*Bucket, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Bucket{store: store, cfg: cfg}, nil
}

func (b *Bucket) Allow(ctx context.Context, key string) (Decision, error) {
	remaining, retryAt, err := b.store.Take(ctx, key, b.cfg)
	if err != nil {
		return Decision{}, err
	}
	if remaining < 0 {
		return Decision{RetryAfter: time.Until(retryAt)}, nil
	}
	return Decision{Allowed: true, Remaining: remaining}, nil
}
