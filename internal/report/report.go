// Package report renders an analysis report as text, CSV, JSON, XLSX or
// GeoJSON. Distances are rounded to two decimals here and nowhere else.
package report

import (
	"io"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hubmatch/internal/geo"
	"github.com/sells-group/hubmatch/internal/model"
)

// Output formats.
const (
	FormatText    = "text"
	FormatCSV     = "csv"
	FormatJSON    = "json"
	FormatXLSX    = "xlsx"
	FormatGeoJSON = "geojson"
)

// Formats lists every format Write accepts.
var Formats = []string{FormatText, FormatCSV, FormatJSON, FormatXLSX, FormatGeoJSON}

// Write renders r to w in the given format. The CSV form concatenates the
// distance, mismatch and skip tables separated by blank lines; use
// WriteCSVDir for one file per table.
func Write(w io.Writer, r *model.Report, format string) error {
	switch format {
	case "", FormatText:
		return WriteText(w, r)
	case FormatCSV:
		return WriteCSV(w, r)
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatXLSX:
		return WriteXLSX(w, r)
	case FormatGeoJSON:
		return WriteGeoJSON(w, r)
	}
	return eris.Errorf("report: unknown format %q", format)
}

func km(v float64) string {
	return strconv.FormatFloat(geo.Round2(v), 'f', 2, 64)
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
