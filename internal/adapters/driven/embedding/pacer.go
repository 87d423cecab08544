// Package embedding provides plumbing shared by the embedding
// service adapters, such as request pacing.
package embedding

import (
	"context"

	"golang.org/x/time/rate"
)

// Pacer throttles outbound embedding requests with a token bucket.
// A nil Pacer never waits, so adapters can hold one unconditionally.
type Pacer struct {
	bucket *rate.Limiter
}

// NewPacer creates a pacer allowing requestsPerSecond sustained
// request rate. Returns nil when requestsPerSecond is zero or
// negative, meaning no throttling.
func NewPacer(requestsPerSecond float64) *Pacer {
	if requestsPerSecond <= 0 {
		return nil
	}

	// Burst of 1 keeps requests evenly spaced instead of allowing an
	// initial volley that local inference servers handle poorly.
	return &Pacer{
		bucket: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// Wait blocks until the next request may be sent.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return p.bucket.Wait(ctx)
}
