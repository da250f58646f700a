package resolve

import (
	"context"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/hubmatch/internal/geo"
	"github.com/sells-group/hubmatch/internal/pincode"
)

// DefaultConcurrency bounds ResolveAll when the caller passes zero.
const DefaultConcurrency = 4

// Resolution is the merged result of resolving a batch of postal codes,
// keyed by normalised code.
type Resolution struct {
	Locations  map[string]geo.Point
	Unresolved []string
}

// Lookup returns the location of a code in the resolution.
func (r Resolution) Lookup(code string) (geo.Point, bool) {
	p, ok := r.Locations[pincode.Normalize(code)]
	return p, ok
}

// FromTable builds a resolution directly from known coordinates; codes not
// in the table are listed as unresolved.
func FromTable(codes []string, table map[string]geo.Point) Resolution {
	s := NewStatic(table)
	res := Resolution{Locations: make(map[string]geo.Point)}
	for _, code := range pincode.Unique(codes) {
		if p, ok := s.Resolve(context.Background(), code); ok {
			res.Locations[code] = p
		} else {
			res.Unresolved = append(res.Unresolved, code)
		}
	}
	pincode.Sort(res.Unresolved)
	return res
}

// ResolveAll resolves the distinct codes concurrently, at most concurrency
// lookups at a time, and returns once every lookup has finished. Blank and
// repeated codes are collapsed. The returned error is non-nil only when ctx
// was cancelled; the partial resolution is still returned.
func ResolveAll(ctx context.Context, r Resolver, codes []string, concurrency int) (Resolution, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	distinct := pincode.Unique(codes)
	points := make([]geo.Point, len(distinct))
	found := make([]bool, len(distinct))

	var resolved atomic.Int64
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, code := range distinct {
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gCtx.Err() != nil {
				return nil
			}
			p, ok := r.Resolve(gCtx, code)
			if ok {
				points[i], found[i] = p, true
				resolved.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	res := Resolution{Locations: make(map[string]geo.Point, resolved.Load())}
	for i, code := range distinct {
		if found[i] {
			res.Locations[code] = points[i]
		} else {
			res.Unresolved = append(res.Unresolved, code)
		}
	}
	pincode.Sort(res.Unresolved)

	zap.L().Info("resolved postal codes",
		zap.Int("requested", len(distinct)),
		zap.Int64("resolved", resolved.Load()),
		zap.Int("unresolved", len(res.Unresolved)),
	)

	if err := ctx.Err(); err != nil {
		return res, eris.Wrap(err, "resolve: batch cancelled")
	}
	return res, nil
}
