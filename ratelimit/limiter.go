// Package ratelimit provides a token-bucket rate limiter backed by
// golang.org/x/time/rate for use as a global gRPC request gate.
package ratelimit

import (
	"time"

	"golang.org/x/time/rate"
)

// Limiter wraps a token-bucket limiter that decides whether an incoming
// request should be allowed.
type Limiter struct {
	lim *rate.Limiter
}

// NewLimiter creates a Limiter that permits rps requests per second with the
// given burst size.
func NewLimiter(rps float64, burst int) *Limiter {
	return &Limiter{lim: rate.NewLimiter(rate.Limit(rps), burst)}
}

// NewWindowLimiter creates a Limiter that permits count requests per window,
// with the burst set to count. A window of zero is treated as one second.
func NewWindowLimiter(count int, window time.Duration) *Limiter {
	if window <= 0 {
		window = time.Second
	}
	rps := float64(count) / window.Seconds()
	return &Limiter{lim: rate.NewLimiter(rate.Limit(rps), count)}
}

// Allow reports whether a single request may proceed.
func (l *Limiter) Allow() bool {
	return l.lim.Allow()
}

// AllowN reports whether n requests may proceed at once.
func (l *Limiter) AllowN(n int) bool {
	return l.lim.AllowN(time.Now(), n)
}
