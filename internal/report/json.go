package report

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hubmatch/internal/geo"
	"github.com/sells-group/hubmatch/internal/model"
)

// View is the JSON shape of a report. Distances are rounded to two decimals.
type View struct {
	Tables        []TableView             `json:"tables"`
	Mismatches    []MismatchView          `json:"mismatches"`
	Skipped       SkipView                `json:"skipped"`
	MultiAssigned []model.MultiAssignment `json:"multi_assigned"`
}

// TableView is one hub's rounded distance table.
type TableView struct {
	Hub      string       `json:"hub"`
	Lat      float64      `json:"latitude"`
	Lon      float64      `json:"longitude"`
	Rows     []RowView    `json:"rows"`
	Skipped  []string     `json:"skipped"`
	Coverage CoverageView `json:"coverage"`
}

// RowView is one distance row.
type RowView struct {
	Pincode    string  `json:"postal_code"`
	Lat        float64 `json:"latitude"`
	Lon        float64 `json:"longitude"`
	DistanceKM float64 `json:"distance_km"`
	Band       string  `json:"band"`
}

// CoverageView summarizes a hub table.
type CoverageView struct {
	Resolved     int     `json:"resolved"`
	Skipped      int     `json:"skipped"`
	MeanKM       float64 `json:"mean_km"`
	MaxKM        float64 `json:"max_km"`
	RadiusKM     float64 `json:"radius_km"`
	WithinRadius int     `json:"within_radius"`
}

// MismatchView is one mismatch record.
type MismatchView struct {
	Pincode           string  `json:"postal_code"`
	CurrentHub        string  `json:"current_hub"`
	CurrentDistanceKM float64 `json:"current_distance_km"`
	NearestHub        string  `json:"nearest_hub"`
	NearestDistanceKM float64 `json:"nearest_distance_km"`
	DifferenceKM      float64 `json:"difference_km"`
}

// SkipView lists unresolved codes per hub and overall.
type SkipView struct {
	PerHub   []model.HubSkips `json:"per_hub"`
	Pincodes []string         `json:"postal_codes"`
	Total    int              `json:"total"`
}

// NewView converts a report to its rounded JSON shape. Nil slices become
// empty arrays.
func NewView(r *model.Report) View {
	v := View{
		Tables:        make([]TableView, 0, len(r.Tables)),
		Mismatches:    NewMismatchViews(r.Mismatches),
		MultiAssigned: r.MultiAssigned,
		Skipped: SkipView{
			PerHub:   r.Skipped.PerHub,
			Pincodes: r.Skipped.Pincodes,
			Total:    r.Skipped.Total,
		},
	}
	for _, t := range r.Tables {
		v.Tables = append(v.Tables, NewTableView(t))
	}
	if v.MultiAssigned == nil {
		v.MultiAssigned = []model.MultiAssignment{}
	}
	if v.Skipped.PerHub == nil {
		v.Skipped.PerHub = []model.HubSkips{}
	}
	if v.Skipped.Pincodes == nil {
		v.Skipped.Pincodes = []string{}
	}
	return v
}

// NewTableView rounds one hub table.
func NewTableView(t model.HubTable) TableView {
	tv := TableView{
		Hub:     t.Hub.Name,
		Lat:     t.Hub.Location.Lat,
		Lon:     t.Hub.Location.Lon,
		Rows:    make([]RowView, 0, len(t.Rows)),
		Skipped: t.Skipped,
		Coverage: CoverageView{
			Resolved:     t.Coverage.Resolved,
			Skipped:      t.Coverage.Skipped,
			MeanKM:       geo.Round2(t.Coverage.MeanKM),
			MaxKM:        geo.Round2(t.Coverage.MaxKM),
			RadiusKM:     t.Coverage.RadiusKM,
			WithinRadius: t.Coverage.WithinRadius,
		},
	}
	if tv.Skipped == nil {
		tv.Skipped = []string{}
	}
	for _, row := range t.Rows {
		tv.Rows = append(tv.Rows, RowView{
			Pincode:    row.Pincode,
			Lat:        row.Lat,
			Lon:        row.Lon,
			DistanceKM: geo.Round2(row.DistanceKM),
			Band:       row.Band,
		})
	}
	return tv
}

// NewMismatchViews rounds mismatch records.
func NewMismatchViews(records []model.MismatchRecord) []MismatchView {
	out := make([]MismatchView, 0, len(records))
	for _, m := range records {
		out = append(out, MismatchView{
			Pincode:           m.Pincode,
			CurrentHub:        m.CurrentHub,
			CurrentDistanceKM: geo.Round2(m.CurrentDistanceKM),
			NearestHub:        m.NearestHub,
			NearestDistanceKM: geo.Round2(m.NearestDistanceKM),
			DifferenceKM:      geo.Round2(m.DifferenceKM),
		})
	}
	return out
}

// WriteJSON writes the indented JSON view of r.
func WriteJSON(w io.Writer, r *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(NewView(r)), "report: encode json")
}
