package hub

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/rotisserie/eris"

	"github.com/sells-group/hubmatch/internal/geo"
	"github.com/sells-group/hubmatch/internal/model"
)

// Searcher finds the hub nearest to a location. When several hubs are
// equally near, the one listed first in the registry wins.
type Searcher interface {
	Nearest(p geo.Point) (model.Hub, float64)
}

// Searcher kinds accepted by NewSearcher.
const (
	SearchLinear = "linear"
	SearchRTree  = "rtree"
)

// NewSearcher builds the searcher named by kind. An empty kind means linear.
func NewSearcher(reg *Registry, kind string) (Searcher, error) {
	switch kind {
	case "", SearchLinear:
		return NewLinear(reg), nil
	case SearchRTree:
		return NewIndexed(reg), nil
	}
	return nil, eris.Errorf("hub: unknown searcher %q (want %q or %q)", kind, SearchLinear, SearchRTree)
}

// Linear compares the location against every hub in enumeration order.
type Linear struct {
	hubs []model.Hub
}

// NewLinear returns a linear searcher over the registry's hubs.
func NewLinear(reg *Registry) *Linear {
	return &Linear{hubs: reg.hubs}
}

// Nearest returns the first hub at minimum distance. A NaN location yields
// the first hub and a NaN distance.
func (l *Linear) Nearest(p geo.Point) (model.Hub, float64) {
	best := 0
	bestDist := geo.Haversine(p, l.hubs[0].Location)
	for i := 1; i < len(l.hubs); i++ {
		if d := geo.Haversine(p, l.hubs[i].Location); d < bestDist {
			best, bestDist = i, d
		}
	}
	return l.hubs[best], bestDist
}

// boxSlackDeg widens candidate boxes so hubs exactly on the boundary stay in.
const boxSlackDeg = 1e-9

type hubEntry struct {
	idx  int
	rect rtreego.Rect
}

func (e *hubEntry) Bounds() rtreego.Rect { return e.rect }

// Indexed uses an R-tree over hub coordinates to shortlist candidates and
// then ranks them by exact great-circle distance. Results match Linear.
//
// The tree works in planar degrees, so its nearest neighbour only gives an
// upper bound d0. Every hub within d0 lies inside the lat/lon box of the
// spherical cap of radius d0; those hubs are re-ranked by Haversine. Caps
// touching a pole or crossing the antimeridian fall back to Linear.
type Indexed struct {
	hubs   []model.Hub
	tree   *rtreego.Rtree
	linear *Linear
}

// NewIndexed bulk-loads an R-tree with the registry's hubs.
func NewIndexed(reg *Registry) *Indexed {
	objs := make([]rtreego.Spatial, len(reg.hubs))
	for i, h := range reg.hubs {
		objs[i] = &hubEntry{
			idx:  i,
			rect: rtreego.Point{h.Location.Lat, h.Location.Lon}.ToRect(boxSlackDeg),
		}
	}
	return &Indexed{
		hubs:   reg.hubs,
		tree:   rtreego.NewTree(2, 25, 50, objs...),
		linear: NewLinear(reg),
	}
}

// Nearest returns the same hub and distance Linear would.
func (x *Indexed) Nearest(p geo.Point) (model.Hub, float64) {
	if !p.Valid() {
		return x.linear.Nearest(p)
	}

	q := rtreego.Point{p.Lat, p.Lon}
	seed, ok := x.tree.NearestNeighbor(q).(*hubEntry)
	if !ok {
		return x.linear.Nearest(p)
	}

	box, ok := capBox(p, geo.Haversine(p, x.hubs[seed.idx].Location))
	if !ok {
		return x.linear.Nearest(p)
	}

	best, bestDist := -1, math.Inf(1)
	for _, s := range x.tree.SearchIntersect(box) {
		e := s.(*hubEntry)
		d := geo.Haversine(p, x.hubs[e.idx].Location)
		if d < bestDist || (d == bestDist && e.idx < best) {
			best, bestDist = e.idx, d
		}
	}
	if best < 0 {
		return x.linear.Nearest(p)
	}
	return x.hubs[best], bestDist
}

// capBox returns the lat/lon rectangle enclosing every point within radiusKM
// of p. ok is false when the cap reaches a pole or wraps the antimeridian.
func capBox(p geo.Point, radiusKM float64) (rtreego.Rect, bool) {
	delta := geo.AngularKM(radiusKM)
	slack := boxSlackDeg + delta*1e-9

	latMin := p.Lat - delta - slack
	latMax := p.Lat + delta + slack
	if latMin <= -90 || latMax >= 90 {
		return rtreego.Rect{}, false
	}

	// Widest longitude offset of a cap of angular radius delta centred at
	// latitude phi: asin(sin(delta) / cos(phi)).
	rad := math.Pi / 180
	ratio := math.Sin(delta*rad) / math.Cos(p.Lat*rad)
	if ratio >= 1 {
		return rtreego.Rect{}, false
	}
	dLon := math.Asin(ratio)/rad + slack

	lonMin := p.Lon - dLon
	lonMax := p.Lon + dLon
	if lonMin < -180 || lonMax > 180 {
		return rtreego.Rect{}, false
	}

	rect, err := rtreego.NewRect(rtreego.Point{latMin, lonMin}, []float64{latMax - latMin, lonMax - lonMin})
	if err != nil {
		return rtreego.Rect{}, false
	}
	return rect, true
}
