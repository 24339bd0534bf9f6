package authflow

import (
	"context"
	"io"
	"log/slog"

	"github.com/figuroforge/authkit/pkg/logger"
	"github.com/figuroforge/authkit/pkg/ratelimiter"
)

// Probe is a best-effort rate-limit check. A nil probe, a nil limiter or
// any limiter failure means "proceed": only an explicit denial from the
// limiter blocks the caller.
type Probe struct {
	limiter ratelimiter.Limiter
	logger  *slog.Logger
}

// NewProbe wraps a rate limiter for soft probing.
func NewProbe(limiter ratelimiter.Limiter, log *slog.Logger) *Probe {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Probe{limiter: limiter, logger: log}
}

// Check consumes one token for key. Returns ErrRateLimited only when the
// limiter explicitly denies; unavailability is logged and ignored.
func (p *Probe) Check(ctx context.Context, key string) error {
	if p == nil || p.limiter == nil {
		return nil
	}

	d, err := p.limiter.Allow(ctx, key)
	if err != nil {
		p.logger.DebugContext(ctx, "rate-limit probe unavailable",
			logger.Error(err),
			logger.Component("authflow"),
		)
		return nil
	}
	if !d.Allowed {
		return ErrRateLimited
	}
	return nil
}
