package crawler

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter enforces a per-host request rate so no single source gets
// hammered regardless of how many schedules point at it.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
}

// NewRateLimiter creates a limiter allowing ratePerMinute requests per host
func NewRateLimiter(ratePerMinute int) *RateLimiter {
	if ratePerMinute <= 0 {
		ratePerMinute = 30
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(ratePerMinute) / 60.0),
		burst:    ratePerMinute,
	}
}

// Wait blocks until a request to the URL's host is allowed
func (rl *RateLimiter) Wait(ctx context.Context, rawURL string) error {
	host := extractHost(rawURL)
	if host == "" {
		return nil
	}
	return rl.limiterFor(host).Wait(ctx)
}

func (rl *RateLimiter) limiterFor(host string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, ok := rl.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[host] = limiter
	}
	return limiter
}

func extractHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
