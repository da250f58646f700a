package model

// DistanceRow is one resolved postal code in a hub's distance table.
// DistanceKM keeps full precision; renderers round it.
type DistanceRow struct {
	Hub        string  `json:"hub"`
	Pincode    string  `json:"postal_code"`
	Lat        float64 `json:"latitude"`
	Lon        float64 `json:"longitude"`
	DistanceKM float64 `json:"distance_km"`
	Band       string  `json:"band"`
}

// CoverageStats summarises a hub's distance table.
type CoverageStats struct {
	Resolved     int     `json:"resolved"`
	Skipped      int     `json:"skipped"`
	MeanKM       float64 `json:"mean_km"`
	MaxKM        float64 `json:"max_km"`
	RadiusKM     float64 `json:"radius_km"`
	WithinRadius int     `json:"within_radius"`
}

// HubTable is the distance table of a single hub. Rows are ordered by
// ascending distance, then postal code. Skipped lists assigned codes that
// could not be resolved, in assignment order.
type HubTable struct {
	Hub      Hub           `json:"hub"`
	Rows     []DistanceRow `json:"rows"`
	Skipped  []string      `json:"skipped"`
	Coverage CoverageStats `json:"coverage"`
}

// MismatchRecord flags a postal code whose geographically nearest hub is not
// the hub it is assigned to. DifferenceKM is never negative.
type MismatchRecord struct {
	Pincode           string  `json:"postal_code"`
	CurrentHub        string  `json:"current_hub"`
	CurrentDistanceKM float64 `json:"current_distance_km"`
	NearestHub        string  `json:"nearest_hub"`
	NearestDistanceKM float64 `json:"nearest_distance_km"`
	DifferenceKM      float64 `json:"difference_km"`
}

// HubSkips lists the unresolved codes assigned to one hub.
type HubSkips struct {
	Hub      string   `json:"hub"`
	Pincodes []string `json:"pincodes"`
}

// SkipSummary reports unresolved postal codes per hub and in aggregate.
// Total counts each distinct code once no matter how many hubs list it.
type SkipSummary struct {
	PerHub   []HubSkips `json:"per_hub"`
	Pincodes []string   `json:"pincodes"`
	Total    int        `json:"total"`
}

// MultiAssignment is a postal code listed under more than one hub.
type MultiAssignment struct {
	Pincode string   `json:"postal_code"`
	Hubs    []string `json:"hubs"`
}

// Report is the full result of one analysis run.
type Report struct {
	Tables        []HubTable        `json:"tables"`
	Mismatches    []MismatchRecord  `json:"mismatches"`
	Skipped       SkipSummary       `json:"skipped"`
	MultiAssigned []MultiAssignment `json:"multi_assigned"`
}

// Table returns the distance table for the named hub.
func (r *Report) Table(hub string) (HubTable, bool) {
	for _, t := range r.Tables {
		if t.Hub.Name == hub {
			return t, true
		}
	}
	return HubTable{}, false
}

// MismatchesFor returns the mismatch records whose current hub is hub.
func (r *Report) MismatchesFor(hub string) []MismatchRecord {
	var out []MismatchRecord
	for _, m := range r.Mismatches {
		if m.CurrentHub == hub {
			out = append(out, m)
		}
	}
	return out
}
