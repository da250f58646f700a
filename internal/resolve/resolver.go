// Package resolve turns postal codes into coordinates. Every backend sits
// behind Resolver; a failed lookup is reported as unresolved, never as an
// error, so one bad code cannot abort an analysis.
package resolve

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/hubmatch/internal/geo"
	"github.com/sells-group/hubmatch/internal/pincode"
)

// Resolver maps a postal code to its location. ok=false means unresolved.
// Implementations must be safe for concurrent use.
type Resolver interface {
	Resolve(ctx context.Context, code string) (geo.Point, bool)
}

// Source is a backend that can tell "not found" apart from "failed".
// Cached and Memo use it to avoid remembering failures as negative results.
type Source interface {
	Lookup(ctx context.Context, code string) (geo.Point, bool, error)
}

// Func adapts a plain function to Resolver.
type Func func(ctx context.Context, code string) (geo.Point, bool)

// Resolve calls f.
func (f Func) Resolve(ctx context.Context, code string) (geo.Point, bool) {
	return f(ctx, code)
}

// Static resolves from an in-memory table.
type Static struct {
	table map[string]geo.Point
}

// NewStatic copies table, normalising its keys. Entries with invalid
// coordinates are dropped.
func NewStatic(table map[string]geo.Point) *Static {
	s := &Static{table: make(map[string]geo.Point, len(table))}
	for code, p := range table {
		n := pincode.Normalize(code)
		if n == "" {
			continue
		}
		if !p.Valid() {
			zap.L().Warn("dropping invalid static coordinate",
				zap.String("pincode", n),
				zap.Float64("lat", p.Lat),
				zap.Float64("lon", p.Lon),
			)
			continue
		}
		s.table[n] = p
	}
	return s
}

// Len returns the number of entries.
func (s *Static) Len() int { return len(s.table) }

// Resolve looks the normalised code up in the table.
func (s *Static) Resolve(_ context.Context, code string) (geo.Point, bool) {
	p, ok := s.table[pincode.Normalize(code)]
	return p, ok
}

// Chain tries each resolver in order and returns the first hit.
type Chain []Resolver

// Resolve returns the first resolver's hit, or unresolved if none has one.
func (c Chain) Resolve(ctx context.Context, code string) (geo.Point, bool) {
	p, ok, err := c.Lookup(ctx, code)
	if err != nil {
		logFailure(ctx, code, err)
		return geo.Point{}, false
	}
	return p, ok
}

// Lookup returns the first hit. A code no backend finds is reported with
// the first backend failure seen, so callers can tell a transient miss from
// a real one.
func (c Chain) Lookup(ctx context.Context, code string) (geo.Point, bool, error) {
	var firstErr error
	for _, r := range c {
		if err := ctx.Err(); err != nil {
			return geo.Point{}, false, err
		}
		p, ok, err := lookup(ctx, r, code)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if ok {
			return p, true, nil
		}
	}
	return geo.Point{}, false, firstErr
}

// lookup asks r, using Lookup when r is a Source.
func lookup(ctx context.Context, r Resolver, code string) (geo.Point, bool, error) {
	if src, ok := r.(Source); ok {
		return src.Lookup(ctx, code)
	}
	p, ok := r.Resolve(ctx, code)
	return p, ok, nil
}

// logFailure records a lookup failure that is being reported as unresolved.
func logFailure(ctx context.Context, code string, err error) {
	if ctx.Err() != nil {
		return
	}
	zap.L().Warn("pincode lookup failed", zap.String("pincode", code), zap.Error(err))
}

// checked drops out-of-range coordinates coming back from a backend.
func checked(backend, code string, p geo.Point) (geo.Point, bool) {
	if !p.Valid() {
		zap.L().Warn("backend returned invalid coordinate",
			zap.String("backend", backend),
			zap.String("pincode", code),
			zap.Float64("lat", p.Lat),
			zap.Float64("lon", p.Lon),
		)
		return geo.Point{}, false
	}
	return p, true
}
