// Package ratelimit provides request pacing for the Polymarket APIs.
//
// The public endpoints publish no rate-limit headers, so pacing is a fixed
// delay applied after each network fetch rather than a token bucket. Callers
// needing different throughput tune the delay in their configuration.
package ratelimit

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Limiter applies a fixed inter-request delay.
type Limiter struct {
	delay  time.Duration
	logger zerolog.Logger
}

// NewLimiter creates a limiter with the given fixed delay.
// A zero or negative delay disables waiting.
func NewLimiter(delay time.Duration, logger zerolog.Logger) *Limiter {
	return &Limiter{
		delay:  delay,
		logger: logger.With().Str("component", "ratelimit").Logger(),
	}
}

// Delay returns the configured fixed delay.
func (l *Limiter) Delay() time.Duration {
	return l.delay
}

// Wait blocks for the fixed delay or until the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.sleep(ctx, l.delay)
}

// WaitAttempt blocks for delay scaled linearly by the attempt number
// (attempt 1 waits one delay, attempt 2 two delays, ...). Used for
// short-page refetch backoff.
func (l *Limiter) WaitAttempt(ctx context.Context, attempt int) error {
	if attempt < 1 {
		attempt = 1
	}
	d := time.Duration(attempt) * l.delay
	l.logger.Debug().
		Int("attempt", attempt).
		Dur("backoff", d).
		Msg("Backing off before refetch")
	return l.sleep(ctx, d)
}

func (l *Limiter) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
