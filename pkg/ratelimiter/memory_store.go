package ratelimiter

import (
	"context"
	"sync"
	"time"
)

// staleAfter is how long an untouched bucket survives before the sweeper
// drops it.
const staleAfter = time.Hour

type slot struct {
	tokens     int
	refilledAt time.Time
	touchedAt  time.Time
}

// MemoryStore keeps bucket state in process memory. A background sweeper
// drops buckets that have been idle for a while so abandoned keys do not
// accumulate.
type MemoryStore struct {
	mu    sync.Mutex
	slots map[string]*slot

	sweepEvery time.Duration
	done       chan struct{}
}

var _ Store = (*MemoryStore)(nil)

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithSweepInterval sets how often stale buckets are swept. Zero disables
// the sweeper entirely.
func WithSweepInterval(interval time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.sweepEvery = interval
	}
}

// NewMemoryStore returns an in-memory Store. Call Close when done to stop
// the sweeper.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		slots:      make(map[string]*slot),
		sweepEvery: 5 * time.Minute,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.sweepEvery > 0 {
		go s.sweep()
	}

	return s
}

func (s *MemoryStore) Take(ctx context.Context, key string, cfg Config) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	b, ok := s.slots[key]
	if !ok {
		b = &slot{tokens: cfg.Capacity, refilledAt: now}
		s.slots[key] = b
	}

	// One token per elapsed RefillEvery, never exceeding capacity.
	if elapsed := now.Sub(b.refilledAt); elapsed >= cfg.RefillEvery {
		if refills := int64(elapsed / cfg.RefillEvery); refills >= int64(cfg.Capacity) {
			b.tokens = cfg.Capacity
		} else {
			b.tokens = min(b.tokens+int(refills), cfg.Capacity)
		}
		b.refilledAt = now
	}

	// A denied take does not dig the bucket below empty, so hammering a
	// drained key cannot push recovery further away.
	remaining := -1
	if b.tokens > 0 {
		b.tokens--
		remaining = b.tokens
	}
	b.touchedAt = now

	return remaining, b.refilledAt.Add(cfg.RefillEvery), nil
}

// Forget clears the bucket for key, restoring its full burst.
func (s *MemoryStore) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.slots, key)
}

func (s *MemoryStore) sweep() {
	ticker := time.NewTicker(s.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.dropStale()
		case <-s.done:
			return
		}
	}
}

func (s *MemoryStore) dropStale() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, b := range s.slots {
		if now.Sub(b.touchedAt) > staleAfter {
			delete(s.slots, key)
		}
	}
}

// Close stops the sweeper. Safe to call multiple times.
func (s *MemoryStore) Close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}
