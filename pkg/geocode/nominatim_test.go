package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/hubmatch/internal/resilience"
)

func TestGeocode_Match(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "560064", q.Get("postalcode"))
		assert.Equal(t, "India", q.Get("country"))
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "1", q.Get("limit"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"13.1007","lon":"77.5963","display_name":"Yelahanka, Bengaluru"}]`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Geocode(context.Background(), " 560064 ")
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, 13.1007, res.Latitude)
	assert.Equal(t, 77.5963, res.Longitude)
	assert.Equal(t, "Yelahanka, Bengaluru", res.DisplayName)
	assert.Equal(t, "nominatim", res.Source)
}

func TestGeocode_NoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Geocode(context.Background(), "000000")
	require.NoError(t, err)
	assert.False(t, res.Matched)
}

func TestGeocode_BlankCodeSkipsRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Geocode(context.Background(), "  ")
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Zero(t, calls.Load())
}

func TestGeocode_CustomOptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "in", r.URL.Query().Get("country"))
		assert.Equal(t, "hubmatch-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL+"/", WithCountry("in"), WithUserAgent("hubmatch-test"), WithTimeout(time.Second)).
		Geocode(context.Background(), "560001")
	require.NoError(t, err)
}

func TestGeocode_StatusErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		transient bool
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, transient: true},
		{name: "unavailable", status: http.StatusServiceUnavailable, transient: true},
		{name: "forbidden", status: http.StatusForbidden, transient: false},
		{name: "bad request", status: http.StatusBadRequest, transient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).Geocode(context.Background(), "560001")
			require.Error(t, err)
			assert.Equal(t, tt.transient, resilience.IsTransient(err))
		})
	}
}

func TestGeocode_BadPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `<html>`},
		{name: "bad latitude", body: `[{"lat":"north","lon":"77.6"}]`},
		{name: "bad longitude", body: `[{"lat":"12.9","lon":""}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).Geocode(context.Background(), "560001")
			assert.Error(t, err)
		})
	}
}

func TestGeocode_ContextCancelled(t *testing.T) {
	c := NewClient(WithBaseURL("http://127.0.0.1:1"), WithRateLimit(0.001)).(*nominatim)
	// Drain the single token so Wait has to block.
	require.True(t, c.limiter.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Geocode(ctx, "560001")
	assert.Error(t, err)
}
