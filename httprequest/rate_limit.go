package httprequest

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimitConfig limits outgoing requests with a token bucket.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate. Zero disables limiting.
	RequestsPerSecond float64

	// Burst is the bucket size. Default: 1
	Burst int

	// WaitOnLimit blocks until a token is available. When false, requests
	// over the limit fail immediately with ErrRateLimited.
	WaitOnLimit bool

	// PerHost gives every backend host its own bucket, so a busy backend
	// does not slow down requests to the others.
	PerHost bool
}

// DefaultRateLimitConfig returns 50 requests per second with a burst of 10,
// waiting when the limit is hit.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 50,
		Burst:             10,
		WaitOnLimit:       true,
	}
}

type rateLimitTransport struct {
	next http.RoundTripper
	cfg  RateLimitConfig

	shared *rate.Limiter

	mu     sync.Mutex
	byHost map[string]*rate.Limiter
}

func newRateLimitTransport(next http.RoundTripper, cfg RateLimitConfig) http.RoundTripper {
	if cfg.RequestsPerSecond <= 0 {
		return next
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	t := &rateLimitTransport{next: next, cfg: cfg}
	if cfg.PerHost {
		t.byHost = make(map[string]*rate.Limiter)
	} else {
		t.shared = t.newLimiter()
	}
	return t
}

func (t *rateLimitTransport) newLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Limit(t.cfg.RequestsPerSecond), t.cfg.Burst)
}

func (t *rateLimitTransport) limiter(host string) *rate.Limiter {
	if t.shared != nil {
		return t.shared
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.byHost[host]
	if !ok {
		l = t.newLimiter()
		t.byHost[host] = l
	}
	return l
}

func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	l := t.limiter(req.URL.Host)

	if !t.cfg.WaitOnLimit {
		if !l.Allow() {
			return nil, ErrRateLimited
		}
		return t.next.RoundTrip(req)
	}

	if err := l.Wait(req.Context()); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		// The wait would outlast the deadline.
		return nil, ErrRateLimited
	}
	return t.next.RoundTrip(req)
}
