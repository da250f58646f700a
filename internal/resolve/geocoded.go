package resolve

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/hubmatch/internal/geo"
	"github.com/sells-group/hubmatch/internal/resilience"
	"github.com/sells-group/hubmatch/pkg/geocode"
)

// Geocoded resolves codes with a remote geocoder, retrying transient
// failures and backing off entirely while the circuit breaker is open.
type Geocoded struct {
	client  geocode.Client
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
}

// GeocodedOption configures a Geocoded resolver.
type GeocodedOption func(*Geocoded)

// WithRetry replaces the retry policy.
func WithRetry(cfg resilience.RetryConfig) GeocodedOption {
	return func(g *Geocoded) {
		g.retry = cfg
	}
}

// WithBreaker replaces the circuit breaker.
func WithBreaker(cb *resilience.CircuitBreaker) GeocodedOption {
	return func(g *Geocoded) {
		g.breaker = cb
	}
}

// NewGeocoded wraps client with the default retry policy and breaker.
func NewGeocoded(client geocode.Client, opts ...GeocodedOption) *Geocoded {
	g := &Geocoded{
		client:  client,
		retry:   resilience.DefaultRetryConfig(),
		breaker: resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig()),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Lookup geocodes code. A clean "no match" is (zero, false, nil).
func (g *Geocoded) Lookup(ctx context.Context, code string) (geo.Point, bool, error) {
	retry := g.retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("geocode", code)
	}

	res, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (*geocode.Result, error) {
		return resilience.ExecuteVal(ctx, g.breaker, func(ctx context.Context) (*geocode.Result, error) {
			return g.client.Geocode(ctx, code)
		})
	})
	if err != nil {
		return geo.Point{}, false, err
	}
	if res == nil || !res.Matched {
		return geo.Point{}, false, nil
	}

	p, ok := checked("geocode", code, geo.Point{Lat: res.Latitude, Lon: res.Longitude})
	return p, ok, nil
}

// Resolve geocodes code, logging and absorbing failures.
func (g *Geocoded) Resolve(ctx context.Context, code string) (geo.Point, bool) {
	p, ok, err := g.Lookup(ctx, code)
	if err != nil {
		zap.L().Warn("geocoding failed", zap.String("pincode", code), zap.Error(err))
		return geo.Point{}, false
	}
	return p, ok
}
