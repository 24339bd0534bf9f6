package ratelimiter

import (
	"context"
	"time"
)

// Store holds per-key bucket state. Take removes one token for key after
// applying any refill cfg entitles the bucket to. A negative remaining
// means the take overdrew the bucket and the action must be denied;
// retryAt is when the next token arrives.
type Store interface {
	Take(ctx context.Context, key string, cfg Config) (remaining int, retryAt time.Time, err error)
}
