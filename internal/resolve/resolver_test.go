package resolve

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/hubmatch/internal/geo"
)

func TestStatic(t *testing.T) {
	s := NewStatic(map[string]geo.Point{
		"560064":   {Lat: 13.1007, Lon: 77.5963},
		" 560 001": {Lat: 12.9716, Lon: 77.5946},
		"":         {Lat: 1, Lon: 1},
		"560999":   {Lat: math.NaN(), Lon: 77},
		"561000":   {Lat: 12, Lon: 190},
	})
	ctx := context.Background()

	assert.Equal(t, 2, s.Len())

	p, ok := s.Resolve(ctx, "560001")
	assert.True(t, ok)
	assert.Equal(t, 12.9716, p.Lat)

	_, ok = s.Resolve(ctx, "５６００６４")
	assert.True(t, ok, "full-width input normalises")

	for _, code := range []string{"560999", "561000", "000000"} {
		_, ok = s.Resolve(ctx, code)
		assert.False(t, ok, code)
	}
}

func TestFunc(t *testing.T) {
	f := Func(func(_ context.Context, code string) (geo.Point, bool) {
		return geo.Point{Lat: 1, Lon: 2}, code == "yes"
	})
	_, ok := f.Resolve(context.Background(), "yes")
	assert.True(t, ok)
	_, ok = f.Resolve(context.Background(), "no")
	assert.False(t, ok)
}

func TestChain(t *testing.T) {
	first := NewStatic(map[string]geo.Point{"560001": {Lat: 1, Lon: 1}})
	second := NewStatic(map[string]geo.Point{"560001": {Lat: 2, Lon: 2}, "560002": {Lat: 3, Lon: 3}})
	var calls int
	counting := Func(func(context.Context, string) (geo.Point, bool) {
		calls++
		return geo.Point{}, false
	})
	c := Chain{first, second, counting}
	ctx := context.Background()

	p, ok := c.Resolve(ctx, "560001")
	assert.True(t, ok)
	assert.Equal(t, 1.0, p.Lat, "first hit wins")

	p, ok = c.Resolve(ctx, "560002")
	assert.True(t, ok)
	assert.Equal(t, 3.0, p.Lat)
	assert.Zero(t, calls)

	_, ok = c.Resolve(ctx, "560003")
	assert.False(t, ok)
	assert.Equal(t, 1, calls)
}

func TestChain_StopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := Chain{NewStatic(map[string]geo.Point{"560001": {Lat: 1, Lon: 1}})}
	_, ok := c.Resolve(ctx, "560001")
	assert.False(t, ok)
}

func TestChain_LookupReportsFailure(t *testing.T) {
	down := &fakeSource{fn: func(string) (geo.Point, bool, error) {
		return geo.Point{}, false, errors.New("connection refused")
	}}
	fallback := NewStatic(map[string]geo.Point{"560001": {Lat: 1, Lon: 1}})
	c := Chain{down, fallback}
	ctx := context.Background()

	p, ok, err := c.Lookup(ctx, "560001")
	require.NoError(t, err, "a later hit outweighs an earlier failure")
	assert.True(t, ok)
	assert.Equal(t, 1.0, p.Lat)

	_, ok, err = c.Lookup(ctx, "560002")
	assert.False(t, ok)
	assert.EqualError(t, err, "connection refused")

	_, ok = c.Resolve(ctx, "560002")
	assert.False(t, ok)
}
