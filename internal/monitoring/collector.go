package monitoring

import (
	"time"

	"github.com/sells-group/hubmatch/internal/model"
)

// Snapshot summarises one analysis report.
type Snapshot struct {
	Hubs            int     `json:"hubs"`
	Assignments     int     `json:"assignments"`
	Resolved        int     `json:"resolved"`
	Unresolved      int     `json:"unresolved"`
	Mismatches      int     `json:"mismatches"`
	MultiAssigned   int     `json:"multi_assigned"`
	MismatchRate    float64 `json:"mismatch_rate"`
	UnresolvedRate  float64 `json:"unresolved_rate"`
	MaxDifferenceKM float64 `json:"max_difference_km"`

	CollectedAt time.Time `json:"collected_at"`
}

// Collect builds a snapshot of r. Rates are relative to the number of
// (hub, postal code) pairs and are zero when there are none.
func Collect(r *model.Report) *Snapshot {
	snap := &Snapshot{
		Hubs:          len(r.Tables),
		Unresolved:    r.Skipped.Total,
		Mismatches:    len(r.Mismatches),
		MultiAssigned: len(r.MultiAssigned),
		CollectedAt:   time.Now().UTC(),
	}

	skippedPairs := 0
	for _, t := range r.Tables {
		snap.Resolved += len(t.Rows)
		skippedPairs += len(t.Skipped)
	}
	snap.Assignments = snap.Resolved + skippedPairs

	for _, m := range r.Mismatches {
		if m.DifferenceKM > snap.MaxDifferenceKM {
			snap.MaxDifferenceKM = m.DifferenceKM
		}
	}

	if snap.Assignments > 0 {
		snap.MismatchRate = float64(snap.Mismatches) / float64(snap.Assignments)
		snap.UnresolvedRate = float64(skippedPairs) / float64(snap.Assignments)
	}
	return snap
}
