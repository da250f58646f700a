package resolve

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/hubmatch/internal/geo"
	"github.com/sells-group/hubmatch/internal/store"
)

// DefaultCacheTTL is how long a cached lookup stays valid.
const DefaultCacheTTL = 90 * 24 * time.Hour

// Cached puts a persistent cache in front of another resolver. Misses are
// cached too. When the inner resolver is a Source, failed lookups are not
// cached, so they are retried on the next run.
type Cached struct {
	inner  Resolver
	cache  store.GeocodeCache
	ttl    time.Duration
	source string
}

// NewCached wraps inner. A non-positive ttl means DefaultCacheTTL; source
// labels the stored entries.
func NewCached(inner Resolver, cache store.GeocodeCache, ttl time.Duration, source string) *Cached {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cached{inner: inner, cache: cache, ttl: ttl, source: source}
}

// Resolve serves from the cache when it can and records what the inner
// resolver finds.
func (c *Cached) Resolve(ctx context.Context, code string) (geo.Point, bool) {
	p, ok, err := c.Lookup(ctx, code)
	if err != nil {
		logFailure(ctx, code, err)
		return geo.Point{}, false
	}
	return p, ok
}

// Lookup is Resolve with inner failures returned instead of absorbed.
// Failures are never written to the cache.
func (c *Cached) Lookup(ctx context.Context, code string) (geo.Point, bool, error) {
	hit, err := c.cache.GetGeocode(ctx, code)
	if err != nil {
		zap.L().Warn("geocode cache read failed", zap.String("pincode", code), zap.Error(err))
	}
	if hit != nil {
		zap.L().Debug("geocode cache hit", zap.String("pincode", code), zap.Bool("matched", hit.Matched))
		if !hit.Matched {
			return geo.Point{}, false, nil
		}
		p, ok := checked("cache", code, geo.Point{Lat: hit.Lat, Lon: hit.Lon})
		return p, ok, nil
	}

	p, ok, err := lookup(ctx, c.inner, code)
	if err != nil {
		return geo.Point{}, false, err
	}
	if ctx.Err() != nil {
		return p, ok, nil
	}

	entry := store.CachedGeocode{Pincode: code, Matched: ok, Source: c.source}
	if ok {
		entry.Lat, entry.Lon = p.Lat, p.Lon
	}
	if err := c.cache.SetGeocode(ctx, entry, c.ttl); err != nil {
		zap.L().Warn("geocode cache write failed", zap.String("pincode", code), zap.Error(err))
	}
	return p, ok, nil
}
