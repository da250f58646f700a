package geocode

import (
	"golang.org/x/time/rate"
)

// newTestLimiter creates a rate limiter that effectively does not limit for tests.
func newTestLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 1)
}

// newTestClient returns a client aimed at a test server with no rate limit.
func newTestClient(baseURL string, opts ...Option) *nominatim {
	c := NewClient(append([]Option{WithBaseURL(baseURL)}, opts...)...).(*nominatim)
	c.limiter = newTestLimiter()
	return c
}
