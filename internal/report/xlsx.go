package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/hubmatch/internal/model"
)

// Fixed sheet names of the workbook.
const (
	MismatchSheet = "Mismatches"
	SkippedSheet  = "Skipped"
)

const maxSheetName = 31

// WriteXLSX writes a workbook with one sheet per hub, then the mismatch and
// skip sheets.
func WriteXLSX(w io.Writer, r *model.Report) error {
	f, err := BuildWorkbook(r)
	if err != nil {
		return err
	}
	return eris.Wrap(f.Write(w), "report: write xlsx")
}

// BuildWorkbook assembles the workbook without serializing it.
func BuildWorkbook(r *model.Report) (*xlsx.File, error) {
	f := xlsx.NewFile()
	used := map[string]bool{
		strings.ToLower(MismatchSheet): true,
		strings.ToLower(SkippedSheet):  true,
	}

	for _, t := range r.Tables {
		sheet, err := f.AddSheet(uniqueSheetName(t.Hub.Name, used))
		if err != nil {
			return nil, eris.Wrapf(err, "report: add sheet for hub %q", t.Hub.Name)
		}
		addRow(sheet, distanceHeader[1:]...)
		for _, row := range t.Rows {
			addRow(sheet, row.Pincode, coord(row.Lat), coord(row.Lon), km(row.DistanceKM), row.Band)
		}
	}

	sheet, err := f.AddSheet(MismatchSheet)
	if err != nil {
		return nil, eris.Wrap(err, "report: add mismatch sheet")
	}
	addRow(sheet, mismatchHeader...)
	for _, m := range r.Mismatches {
		addRow(sheet, m.Pincode, m.CurrentHub, km(m.CurrentDistanceKM), m.NearestHub, km(m.NearestDistanceKM), km(m.DifferenceKM))
	}

	sheet, err = f.AddSheet(SkippedSheet)
	if err != nil {
		return nil, eris.Wrap(err, "report: add skipped sheet")
	}
	addRow(sheet, skippedHeader...)
	for _, h := range r.Skipped.PerHub {
		for _, code := range h.Pincodes {
			addRow(sheet, h.Hub, code)
		}
	}

	return f, nil
}

func addRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

// uniqueSheetName strips characters Excel rejects, truncates to 31 runes
// and appends a counter when two hubs collapse to the same name.
func uniqueSheetName(name string, used map[string]bool) string {
	base := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	base = strings.Trim(base, "'")
	if base == "" {
		base = "Hub"
	}
	base = truncateRunes(base, maxSheetName)

	candidate := base
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := " (" + strconv.Itoa(n) + ")"
		candidate = truncateRunes(base, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
