package report

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hubmatch/internal/model"
)

// CSV file names written by WriteCSVDir.
const (
	DistancesFile  = "distances.csv"
	MismatchesFile = "mismatches.csv"
	SkippedFile    = "skipped.csv"
)

var (
	distanceHeader = []string{"hub", "postal_code", "latitude", "longitude", "distance_km", "band"}
	mismatchHeader = []string{"postal_code", "current_hub", "current_distance_km", "nearest_hub", "nearest_distance_km", "difference_km"}
	skippedHeader  = []string{"hub", "postal_code"}
)

// WriteCSV writes the three tables to one stream, separated by blank lines.
func WriteCSV(w io.Writer, r *model.Report) error {
	if err := WriteDistancesCSV(w, r.Tables); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return eris.Wrap(err, "report: write csv")
	}
	if err := WriteMismatchesCSV(w, r.Mismatches); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return eris.Wrap(err, "report: write csv")
	}
	return WriteSkippedCSV(w, r.Skipped)
}

// WriteCSVDir writes distances.csv, mismatches.csv and skipped.csv into dir,
// creating it if needed.
func WriteCSVDir(dir string, r *model.Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrap(err, "report: create csv dir")
	}

	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{DistancesFile, func(w io.Writer) error { return WriteDistancesCSV(w, r.Tables) }},
		{MismatchesFile, func(w io.Writer) error { return WriteMismatchesCSV(w, r.Mismatches) }},
		{SkippedFile, func(w io.Writer) error { return WriteSkippedCSV(w, r.Skipped) }},
	}
	for _, f := range files {
		if err := writeFile(filepath.Join(dir, f.name), f.write); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "report: create %s", path)
	}
	if err := write(f); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	return eris.Wrapf(f.Close(), "report: close %s", path)
}

// WriteDistancesCSV writes the rows of every table, hub by hub.
func WriteDistancesCSV(w io.Writer, tables []model.HubTable) error {
	cw := csv.NewWriter(w)
	_ = cw.Write(distanceHeader)
	for _, t := range tables {
		for _, row := range t.Rows {
			_ = cw.Write([]string{row.Hub, row.Pincode, coord(row.Lat), coord(row.Lon), km(row.DistanceKM), row.Band})
		}
	}
	return flush(cw, "distances")
}

// WriteMismatchesCSV writes the mismatch report.
func WriteMismatchesCSV(w io.Writer, records []model.MismatchRecord) error {
	cw := csv.NewWriter(w)
	_ = cw.Write(mismatchHeader)
	for _, m := range records {
		_ = cw.Write([]string{
			m.Pincode, m.CurrentHub, km(m.CurrentDistanceKM),
			m.NearestHub, km(m.NearestDistanceKM), km(m.DifferenceKM),
		})
	}
	return flush(cw, "mismatches")
}

// WriteSkippedCSV writes one row per unresolved (hub, postal code) pair.
func WriteSkippedCSV(w io.Writer, s model.SkipSummary) error {
	cw := csv.NewWriter(w)
	_ = cw.Write(skippedHeader)
	for _, h := range s.PerHub {
		for _, code := range h.Pincodes {
			_ = cw.Write([]string{h.Hub, code})
		}
	}
	return flush(cw, "skipped")
}

func flush(cw *csv.Writer, table string) error {
	cw.Flush()
	return eris.Wrapf(cw.Error(), "report: write %s csv", table)
}
