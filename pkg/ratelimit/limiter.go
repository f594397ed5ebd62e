// Package ratelimit provides token-bucket pacing for outbound operations.
// The socket facade uses it to keep send bursts within whatever limit the
// remote endpoint enforces; the underlying mechanism is Uber's rate limiter.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/ratelimit"
)

// Rate describes how many operations are permitted within an interval. A
// limit of 100 with an interval of one minute allows 100 operations per
// minute, smoothed by the token bucket.
type Rate struct {
	Limit    int
	Interval time.Duration
}

// RateLimiter controls the pace of operations by forcing callers to wait
// when necessary to comply with the configured rate.
type RateLimiter interface {
	// Wait blocks until an operation is permitted or the context is
	// cancelled.
	Wait(ctx context.Context) error

	// SetLimit replaces the rate configuration at runtime. It returns an
	// error for non-positive limits or intervals.
	SetLimit(limit Rate) error
}

// uberLimiter implements RateLimiter on top of Uber's token bucket.
type uberLimiter struct {
	limiter ratelimit.Limiter
	rate    Rate
}

// NewTokenBucketLimiter creates a rate limiter for the given rate. The rate
// is converted to operations per second for the underlying bucket, so 120
// operations per minute becomes 2 per second.
func NewTokenBucketLimiter(rate Rate) RateLimiter {
	rps := float64(rate.Limit) / rate.Interval.Seconds()
	return &uberLimiter{
		limiter: ratelimit.New(int(rps)),
		rate:    rate,
	}
}

// Wait implements the RateLimiter interface.
func (l *uberLimiter) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limit wait cancelled: %w", ctx.Err())
	default:
		l.limiter.Take()
		return nil
	}
}

// SetLimit implements the RateLimiter interface.
func (l *uberLimiter) SetLimit(rate Rate) error {
	if rate.Limit <= 0 || rate.Interval <= 0 {
		return fmt.Errorf("invalid rate limit: %+v", rate)
	}
	rps := float64(rate.Limit) / rate.Interval.Seconds()
	l.limiter = ratelimit.New(int(rps))
	l.rate = rate
	return nil
}
