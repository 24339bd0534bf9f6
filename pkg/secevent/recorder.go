package secevent

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/figuroforge/authkit/pkg/logger"
)

// Recorder records security events without ever failing the caller.
type Recorder interface {
	// Record enqueues an event. It returns immediately; storage failures
	// are swallowed and never surface to the caller.
	Record(ctx context.Context, eventType string, success bool, opts ...EventOption)
}

type recorder struct {
	store      Store
	logger     *slog.Logger
	queue      chan Event
	done       chan struct{}
	wg         sync.WaitGroup
	closeOnce  sync.Once
	writeLimit time.Duration
}

// Option configures a recorder.
type Option func(*recorder)

// WithLogger sets the logger used for swallowed storage failures.
func WithLogger(l *slog.Logger) Option {
	return func(r *recorder) {
		r.logger = l
	}
}

// WithBufferSize sets the queue capacity. Events are dropped when the
// queue is full rather than blocking the auth flow.
func WithBufferSize(n int) Option {
	return func(r *recorder) {
		if n > 0 {
			r.queue = make(chan Event, n)
		}
	}
}

// WithStoreTimeout bounds each storage write.
func WithStoreTimeout(d time.Duration) Option {
	return func(r *recorder) {
		if d > 0 {
			r.writeLimit = d
		}
	}
}

// NewRecorder creates a fire-and-forget recorder backed by the given store.
// Call the returned close function during shutdown to drain the queue.
func NewRecorder(store Store, opts ...Option) (Recorder, func()) {
	if store == nil {
		panic("secevent: store cannot be nil")
	}

	r := &recorder{
		store:      store,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		queue:      make(chan Event, 256),
		done:       make(chan struct{}),
		writeLimit: 5 * time.Second,
	}

	for _, opt := range opts {
		opt(r)
	}

	r.wg.Add(1)
	go r.worker()

	return r, r.close
}

func (r *recorder) Record(ctx context.Context, eventType string, success bool, opts ...EventOption) {
	event := Event{
		ID:        uuid.New().String(),
		EventType: eventType,
		Success:   success,
		CreatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(&event)
	}

	select {
	case r.queue <- event:
	case <-r.done:
	default:
		// Queue full: drop rather than stall a sign-in path.
		r.logger.Debug("security event dropped",
			logger.Component("secevent"),
			logger.Event(eventType),
		)
	}
}

func (r *recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case event := <-r.queue:
			r.write(event)
		case <-r.done:
			// Drain what is already queued before exiting.
			for {
				select {
				case event := <-r.queue:
					r.write(event)
				default:
					return
				}
			}
		}
	}
}

func (r *recorder) write(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), r.writeLimit)
	defer cancel()

	if err := r.store.Store(ctx, event); err != nil {
		r.logger.Debug("security event store failed",
			logger.Component("secevent"),
			logger.Event(event.EventType),
			logger.Error(err),
		)
	}
}

func (r *recorder) close() {
	r.closeOnce.Do(func() {
		close(r.done)
	})
	r.wg.Wait()
}

// Compile-time interface assertion
var _ Recorder = (*recorder)(nil)
