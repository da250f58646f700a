// Package store persists geocoding results between runs.
package store

import (
	"context"
	"time"
)

// CachedGeocode is a stored lookup result. Matched=false records a postal
// code the geocoder could not place, so it is not looked up again until the
// entry expires.
type CachedGeocode struct {
	Pincode  string
	Lat      float64
	Lon      float64
	Matched  bool
	Source   string
	CachedAt time.Time
}

// GeocodeCache stores geocoding results with a time-to-live.
type GeocodeCache interface {
	// GetGeocode returns the live entry for a postal code, or nil on a miss.
	GetGeocode(ctx context.Context, pincode string) (*CachedGeocode, error)
	// SetGeocode inserts or replaces the entry for entry.Pincode.
	SetGeocode(ctx context.Context, entry CachedGeocode, ttl time.Duration) error
	// DeleteExpired removes expired entries and returns how many were removed.
	DeleteExpired(ctx context.Context) (int, error)
	Close() error
}
