// Package geocode looks up postal-code centroids with the Nominatim search API.
package geocode

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public OpenStreetMap Nominatim endpoint.
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// DefaultUserAgent identifies the tool to Nominatim, which rejects anonymous clients.
const DefaultUserAgent = "postal_code_locator"

// Client geocodes postal codes.
type Client interface {
	// Geocode returns the centroid of a postal code. An unknown code is not
	// an error: the result has Matched=false.
	Geocode(ctx context.Context, postalCode string) (*Result, error)
}

// Result holds the geocoding output for a postal code.
type Result struct {
	Latitude    float64
	Longitude   float64
	DisplayName string
	Source      string
	Matched     bool
}

// Option configures the client.
type Option func(*nominatim)

// WithBaseURL points the client at another Nominatim instance.
func WithBaseURL(u string) Option {
	return func(n *nominatim) {
		n.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(n *nominatim) {
		n.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(n *nominatim) {
		if d > 0 {
			n.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithRateLimit sets the requests-per-second limit. Nominatim's usage policy
// allows at most one.
func WithRateLimit(rps float64) Option {
	return func(n *nominatim) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		n.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithCountry restricts matches to a country name or ISO code.
func WithCountry(country string) Option {
	return func(n *nominatim) {
		n.country = country
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(n *nominatim) {
		if ua != "" {
			n.userAgent = ua
		}
	}
}

// NewClient creates a Nominatim client.
func NewClient(opts ...Option) Client {
	n := &nominatim{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(1, 1),
		country:    "India",
		userAgent:  DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}
