package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_GeocodeSetAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	err := st.SetGeocode(ctx, CachedGeocode{Pincode: "560064", Lat: 13.1007, Lon: 77.5963, Matched: true, Source: "nominatim"}, time.Hour)
	require.NoError(t, err)

	got, err := st.GetGeocode(ctx, "560064")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "560064", got.Pincode)
	assert.Equal(t, 13.1007, got.Lat)
	assert.Equal(t, 77.5963, got.Lon)
	assert.True(t, got.Matched)
	assert.Equal(t, "nominatim", got.Source)
	assert.False(t, got.CachedAt.IsZero())
}

func TestSQLite_GeocodeMiss(t *testing.T) {
	st := newTestSQLiteStore(t)

	got, err := st.GetGeocode(context.Background(), "999999")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_GeocodeNegativeEntry(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetGeocode(ctx, CachedGeocode{Pincode: "000000", Source: "nominatim"}, time.Hour))

	got, err := st.GetGeocode(ctx, "000000")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Matched)
}

func TestSQLite_GeocodeOverwrite(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetGeocode(ctx, CachedGeocode{Pincode: "560001"}, time.Hour))
	require.NoError(t, st.SetGeocode(ctx, CachedGeocode{Pincode: "560001", Lat: 12.97, Lon: 77.59, Matched: true}, time.Hour))

	got, err := st.GetGeocode(ctx, "560001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Matched)
	assert.Equal(t, 12.97, got.Lat)
}

func TestSQLite_GeocodeExpiry(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return now }

	require.NoError(t, st.SetGeocode(ctx, CachedGeocode{Pincode: "560001", Matched: true}, time.Hour))
	require.NoError(t, st.SetGeocode(ctx, CachedGeocode{Pincode: "560002", Matched: true}, 3*time.Hour))

	now = now.Add(2 * time.Hour)

	got, err := st.GetGeocode(ctx, "560001")
	require.NoError(t, err)
	assert.Nil(t, got, "expired entries are misses")

	got, err = st.GetGeocode(ctx, "560002")
	require.NoError(t, err)
	assert.NotNil(t, got)

	n, err := st.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLite_ImplementsGeocodeCache(t *testing.T) {
	var _ GeocodeCache = newTestSQLiteStore(t)
}
