package report

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/hubmatch/internal/geo"
	"github.com/sells-group/hubmatch/internal/model"
)

// GeoJSON feature kinds, stored in the "kind" property.
const (
	KindHub        = "hub"
	KindPostalCode = "postal_code"
	KindLink       = "link"
)

// BuildFeatureCollection returns hub points, resolved postal code points and
// a hub-to-code line for every distance row. Coordinates are lon/lat.
func BuildFeatureCollection(r *model.Report) *geojson.FeatureCollection {
	mismatched := make(map[string]model.MismatchRecord, len(r.Mismatches))
	for _, m := range r.Mismatches {
		mismatched[m.CurrentHub+"\x00"+m.Pincode] = m
	}

	fc := &geojson.FeatureCollection{}
	for _, t := range r.Tables {
		hubPt := lonLat(t.Hub.Location)
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       "hub:" + t.Hub.Name,
			Geometry: geom.NewPointFlat(geom.XY, hubPt),
			Properties: map[string]interface{}{
				"kind":          KindHub,
				"hub":           t.Hub.Name,
				"resolved":      t.Coverage.Resolved,
				"skipped":       t.Coverage.Skipped,
				"mean_km":       geo.Round2(t.Coverage.MeanKM),
				"max_km":        geo.Round2(t.Coverage.MaxKM),
				"within_radius": t.Coverage.WithinRadius,
			},
		})

		for _, row := range t.Rows {
			codePt := []float64{row.Lon, row.Lat}
			props := map[string]interface{}{
				"kind":        KindPostalCode,
				"hub":         t.Hub.Name,
				"postal_code": row.Pincode,
				"distance_km": geo.Round2(row.DistanceKM),
				"band":        row.Band,
			}
			if m, ok := mismatched[t.Hub.Name+"\x00"+row.Pincode]; ok {
				props["nearest_hub"] = m.NearestHub
				props["difference_km"] = geo.Round2(m.DifferenceKM)
			}
			fc.Features = append(fc.Features,
				&geojson.Feature{
					ID:         t.Hub.Name + ":" + row.Pincode,
					Geometry:   geom.NewPointFlat(geom.XY, codePt),
					Properties: props,
				},
				&geojson.Feature{
					ID:       "link:" + t.Hub.Name + ":" + row.Pincode,
					Geometry: geom.NewLineStringFlat(geom.XY, append(append([]float64{}, hubPt...), codePt...)),
					Properties: map[string]interface{}{
						"kind":        KindLink,
						"hub":         t.Hub.Name,
						"postal_code": row.Pincode,
						"distance_km": geo.Round2(row.DistanceKM),
					},
				},
			)
		}
	}
	if fc.Features == nil {
		fc.Features = []*geojson.Feature{}
	}
	return fc
}

// WriteGeoJSON writes the feature collection for r.
func WriteGeoJSON(w io.Writer, r *model.Report) error {
	data, err := json.Marshal(BuildFeatureCollection(r))
	if err != nil {
		return eris.Wrap(err, "report: encode geojson")
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return eris.Wrap(err, "report: write geojson")
	}
	return nil
}

func lonLat(p geo.Point) []float64 {
	return []float64{p.Lon, p.Lat}
}
