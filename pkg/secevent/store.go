package secevent

import (
	"context"
	"log/slog"
	"sync"
)

// Store persists security events. Implementations must be safe for
// concurrent use.
type Store interface {
	Store(ctx context.Context, event Event) error
}

// SlogStore writes events to a structured logger. It never fails, which
// makes it a safe default for the fire-and-forget recorder.
type SlogStore struct {
	logger *slog.Logger
}

// NewSlogStore creates a store writing events through the given logger.
func NewSlogStore(logger *slog.Logger) *SlogStore {
	return &SlogStore{logger: logger}
}

func (s *SlogStore) Store(ctx context.Context, event Event) error {
	s.logger.InfoContext(ctx, "security event",
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("user_id", event.UserID),
		slog.Any("event_details", event.Details),
	)
	return nil
}

// MemoryStore keeps events in memory. Used in tests and local development.
type MemoryStore struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Store(ctx context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of all stored events.
func (s *MemoryStore) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// ByType returns stored events matching the given type.
func (s *MemoryStore) ByType(eventType string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}
