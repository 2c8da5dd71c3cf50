package discourse

import (
	"context"

	"golang.org/x/time/rate"
)

// Discourse enforces per-key limits on user API keys (20 requests/minute by
// default, admin-tunable), so all outbound calls share one token bucket
// rather than racing into 429s.
const (
	defaultRequestsPerMinute = 20
	defaultBurst             = 5
)

type RateLimiter struct {
	limiter *rate.Limiter
}

func NewRateLimiter(requestsPerMinute float64, burst int) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = defaultRequestsPerMinute
	}
	if burst <= 0 {
		burst = defaultBurst
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerMinute/60), burst),
	}
}

// Wait blocks until a request slot is available or the context is cancelled.
func (l *RateLimiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}
