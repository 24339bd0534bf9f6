package ratelimiter

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Token bucket maintained atomically server-side. KEYS[1] is the bucket
// hash; ARGV: capacity, refill interval (ms), now (ms), key TTL (ms).
// Takes exactly one token and returns {remaining, refilled_at_ms}.
var takeScript = redis.NewScript(`
local capacity = tonumber(ARGV[1])
local interval = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local state = redis.call('HMGET', KEYS[1], 'tokens', 'refilled_at')
local tokens = tonumber(state[1])
local refilled_at = tonumber(state[2])

if tokens == nil then
    tokens = capacity
    refilled_at = now
end

local refills = math.floor((now - refilled_at) / interval)
if refills > 0 then
    tokens = math.min(tokens + refills, capacity)
    refilled_at = now
end

local remaining = -1
if tokens > 0 then
    tokens = tokens - 1
    remaining = tokens
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'refilled_at', refilled_at)
redis.call('PEXPIRE', KEYS[1], ttl)

return {remaining, refilled_at}
`)

// RedisStore implements Store on a Redis backend, letting multiple
// processes share one limit. Bucket state is kept in a hash and mutated by
// a Lua script so refill and take are a single atomic step.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

var _ Store = (*RedisStore)(nil)

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix sets the prefix for all rate limit keys.
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(rs *RedisStore) {
		if prefix != "" {
			rs.keyPrefix = prefix
		}
	}
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	rs := &RedisStore{
		client:    client,
		keyPrefix: "ratelimit:",
	}

	for _, opt := range opts {
		opt(rs)
	}

	return rs
}

func (rs *RedisStore) Take(ctx context.Context, key string, cfg Config) (int, time.Time, error) {
	now := time.Now()

	// Keep state around long enough for a full refill plus slack.
	ttl := cfg.RefillEvery * time.Duration(cfg.Capacity+2)
	if ttl < time.Minute {
		ttl = time.Minute
	}

	res, err := takeScript.Run(ctx, rs.client, []string{rs.keyPrefix + key},
		cfg.Capacity,
		cfg.RefillEvery.Milliseconds(),
		now.UnixMilli(),
		ttl.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return 0, time.Time{}, errors.Join(ErrStoreUnavailable, err)
	}
	if len(res) != 2 {
		return 0, time.Time{}, ErrStoreUnavailable
	}

	refilledAt := time.UnixMilli(res[1])
	return int(res[0]), refilledAt.Add(cfg.RefillEvery), nil
}
