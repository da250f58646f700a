// Package analyze builds per-hub distance tables and the mismatch report
// from a hub registry and a batch of resolved postal codes.
package analyze

import (
	"cmp"
	"slices"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hubmatch/internal/geo"
	"github.com/sells-group/hubmatch/internal/hub"
	"github.com/sells-group/hubmatch/internal/model"
	"github.com/sells-group/hubmatch/internal/pincode"
	"github.com/sells-group/hubmatch/internal/resolve"
)

// ErrUnknownHub is returned for a hub name the registry does not contain.
var ErrUnknownHub = eris.New("analyze: unknown hub")

// Analyzer is pure: the same registry and resolution always give the same
// report. It is safe for concurrent use.
type Analyzer struct {
	reg      *hub.Registry
	searcher hub.Searcher
	radiusKM float64
	log      *zap.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithSearcher sets the nearest-hub searcher. Default: hub.Linear.
func WithSearcher(s hub.Searcher) Option {
	return func(a *Analyzer) {
		a.searcher = s
	}
}

// WithCoverageRadius sets the radius counted by CoverageStats.WithinRadius.
func WithCoverageRadius(km float64) Option {
	return func(a *Analyzer) {
		if km > 0 {
			a.radiusKM = km
		}
	}
}

// WithLogger sets the logger. Default: zap.L().
func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) {
		a.log = l
	}
}

// New creates an analyzer over reg.
func New(reg *hub.Registry, opts ...Option) *Analyzer {
	a := &Analyzer{
		reg:      reg,
		radiusKM: geo.DefaultCoverageRadiusKM,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.searcher == nil {
		a.searcher = hub.NewLinear(reg)
	}
	if a.log == nil {
		a.log = zap.L()
	}
	return a
}

// Registry returns the analyzer's hub registry.
func (a *Analyzer) Registry() *hub.Registry { return a.reg }

// Nearest returns the hub nearest to p and its distance in kilometers.
func (a *Analyzer) Nearest(p geo.Point) (model.Hub, float64) {
	return a.searcher.Nearest(p)
}

// DistanceTable lists every resolved postal code assigned to the named hub
// with its distance from the hub, nearest first. Unresolved codes are
// reported in Skipped. A hub with no assignments yields an empty table.
func (a *Analyzer) DistanceTable(hubName string, res resolve.Resolution) (model.HubTable, error) {
	h, ok := a.reg.Get(hubName)
	if !ok {
		return model.HubTable{}, eris.Wrapf(ErrUnknownHub, "hub %q", hubName)
	}
	return a.distanceTable(h, res), nil
}

func (a *Analyzer) distanceTable(h model.Hub, res resolve.Resolution) model.HubTable {
	table := model.HubTable{
		Hub:     h,
		Rows:    make([]model.DistanceRow, 0, len(h.Pincodes)),
		Skipped: []string{},
	}

	for _, code := range h.Pincodes {
		p, ok := res.Lookup(code)
		if !ok {
			table.Skipped = append(table.Skipped, code)
			continue
		}
		d := geo.Haversine(h.Location, p)
		table.Rows = append(table.Rows, model.DistanceRow{
			Hub:        h.Name,
			Pincode:    code,
			Lat:        p.Lat,
			Lon:        p.Lon,
			DistanceKM: d,
			Band:       geo.Classify(d),
		})
	}

	slices.SortStableFunc(table.Rows, func(x, y model.DistanceRow) int {
		if c := cmp.Compare(x.DistanceKM, y.DistanceKM); c != 0 {
			return c
		}
		return pincode.Compare(x.Pincode, y.Pincode)
	})

	table.Coverage = coverage(table, a.radiusKM)
	if len(table.Skipped) > 0 {
		a.log.Warn("skipped unresolved postal codes",
			zap.String("hub", h.Name),
			zap.Strings("pincodes", table.Skipped),
		)
	}
	return table
}

func coverage(t model.HubTable, radiusKM float64) model.CoverageStats {
	stats := model.CoverageStats{
		Resolved: len(t.Rows),
		Skipped:  len(t.Skipped),
		RadiusKM: radiusKM,
	}
	if len(t.Rows) == 0 {
		return stats
	}

	var sum float64
	for _, r := range t.Rows {
		sum += r.DistanceKM
		stats.MaxKM = max(stats.MaxKM, r.DistanceKM)
		if r.DistanceKM <= radiusKM {
			stats.WithinRadius++
		}
	}
	stats.MeanKM = sum / float64(len(t.Rows))
	return stats
}

// Mismatches evaluates every (hub, postal code) assignment and reports the
// ones whose nearest hub is a different hub. Records are ordered by
// descending difference, then postal code, then current hub order.
func (a *Analyzer) Mismatches(res resolve.Resolution) []model.MismatchRecord {
	type ranked struct {
		rec     model.MismatchRecord
		hubRank int
	}

	var found []ranked
	for i, h := range a.reg.Hubs() {
		for _, code := range h.Pincodes {
			p, ok := res.Lookup(code)
			if !ok {
				continue
			}
			nearest, nearestDist := a.searcher.Nearest(p)
			if nearest.Name == h.Name {
				continue
			}
			current := geo.Haversine(h.Location, p)
			found = append(found, ranked{
				hubRank: i,
				rec: model.MismatchRecord{
					Pincode:           code,
					CurrentHub:        h.Name,
					CurrentDistanceKM: current,
					NearestHub:        nearest.Name,
					NearestDistanceKM: nearestDist,
					DifferenceKM:      current - nearestDist,
				},
			})
		}
	}

	slices.SortStableFunc(found, func(x, y ranked) int {
		if c := cmp.Compare(y.rec.DifferenceKM, x.rec.DifferenceKM); c != 0 {
			return c
		}
		if c := pincode.Compare(x.rec.Pincode, y.rec.Pincode); c != 0 {
			return c
		}
		return cmp.Compare(x.hubRank, y.hubRank)
	})

	out := make([]model.MismatchRecord, len(found))
	for i, f := range found {
		out[i] = f.rec
	}
	return out
}

// Run builds the full report: every hub's table in registry order, the
// mismatch report, the skip summary and the multi-assigned codes.
func (a *Analyzer) Run(res resolve.Resolution) *model.Report {
	hubs := a.reg.Hubs()
	report := &model.Report{
		Tables:        make([]model.HubTable, 0, len(hubs)),
		MultiAssigned: a.multiAssigned(),
	}

	skipped := make(map[string]struct{})
	for _, h := range hubs {
		t := a.distanceTable(h, res)
		report.Tables = append(report.Tables, t)
		report.Skipped.PerHub = append(report.Skipped.PerHub, model.HubSkips{Hub: h.Name, Pincodes: t.Skipped})
		for _, code := range t.Skipped {
			skipped[code] = struct{}{}
		}
	}

	report.Skipped.Pincodes = make([]string, 0, len(skipped))
	for code := range skipped {
		report.Skipped.Pincodes = append(report.Skipped.Pincodes, code)
	}
	pincode.Sort(report.Skipped.Pincodes)
	report.Skipped.Total = len(report.Skipped.Pincodes)

	report.Mismatches = a.Mismatches(res)

	a.log.Info("report built",
		zap.Int("hubs", len(hubs)),
		zap.Int("mismatches", len(report.Mismatches)),
		zap.Int("skipped", report.Skipped.Total),
		zap.Int("multi_assigned", len(report.MultiAssigned)),
	)
	return report
}

func (a *Analyzer) multiAssigned() []model.MultiAssignment {
	out := []model.MultiAssignment{}
	for _, code := range a.reg.Pincodes() {
		if hubs := a.reg.HubsFor(code); len(hubs) > 1 {
			out = append(out, model.MultiAssignment{Pincode: code, Hubs: hubs})
		}
	}
	return out
}
