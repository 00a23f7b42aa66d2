package tracker

import (
	"sync"
	"time"
)

// rateLimiter implements a sliding window rate limiter for the tracking
// service, which enforces a per-minute request ceiling.
type rateLimiter struct {
	mu          sync.Mutex
	requests    []time.Time
	maxRequests int
	window      time.Duration
}

func newRateLimiter(maxRequests int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		maxRequests: maxRequests,
		window:      window,
		requests:    make([]time.Time, 0, maxRequests),
	}
}

// wait blocks until a request can be made within rate limits. It never
// returns an error; the return value exists so call sites read naturally.
func (r *rateLimiter) wait() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	r.pruneLocked(now)

	if len(r.requests) < r.maxRequests {
		r.requests = append(r.requests, now)
		return nil
	}

	oldest := r.requests[0]
	waitTime := r.window - now.Sub(oldest) + 10*time.Millisecond

	r.mu.Unlock()
	time.Sleep(waitTime)
	r.mu.Lock()

	now = time.Now()
	r.pruneLocked(now)
	r.requests = append(r.requests, now)
	return nil
}

func (r *rateLimiter) pruneLocked(now time.Time) {
	cutoff := now.Add(-r.window)
	valid := make([]time.Time, 0, r.maxRequests)
	for _, req := range r.requests {
		if req.After(cutoff) {
			valid = append(valid, req)
		}
	}
	r.requests = valid
}
