package hub

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/hubmatch/internal/geo"
	"github.com/sells-group/hubmatch/internal/model"
	"github.com/sells-group/hubmatch/internal/pincode"
)

// File is the on-disk hub definition:
//
//	hubs:
//	  - name: Hebbal
//	    lat: 13.066819
//	    lon: 77.604538
//	    pincodes: ["560024", "560092"]
//	pincodes:
//	  "560024": {lat: 13.04, lon: 77.59}
//
// The optional pincodes section is a static coordinate table.
type File struct {
	Hubs     []model.Hub          `yaml:"hubs"`
	Pincodes map[string]geo.Point `yaml:"pincodes"`
}

// LoadFile reads and parses a hub definition file. Keys of the pincodes
// table are normalised.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "hub: read file")
	}
	return Parse(data)
}

// Parse decodes a hub definition document.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, eris.Wrap(err, "hub: parse yaml")
	}

	if len(f.Pincodes) > 0 {
		table := make(map[string]geo.Point, len(f.Pincodes))
		for code, p := range f.Pincodes {
			if n := pincode.Normalize(code); n != "" {
				table[n] = p
			}
		}
		f.Pincodes = table
	}
	return &f, nil
}

// Registry builds a registry from the file's hubs.
func (f *File) Registry() (*Registry, error) {
	return NewRegistry(f.Hubs)
}

var (
	hubColumns     = []string{"Delivery Hub", "hub_name", "hub"}
	pincodeColumns = []string{"Shipping Postal Code", "postal_code", "pincode"}
)

// ReadAssignments reads an assignment table from a .csv or .xlsx file. The
// first row is a header; hub and postal-code columns are found by name.
func ReadAssignments(path string) ([]model.Assignment, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx":
		rows, err = readXLSX(path)
	default:
		return nil, eris.Errorf("hub: unsupported assignment file %q (want .csv or .xlsx)", path)
	}
	if err != nil {
		return nil, err
	}
	return parseAssignments(rows)
}

func parseAssignments(rows [][]string) ([]model.Assignment, error) {
	if len(rows) == 0 {
		return nil, eris.New("hub: assignment file is empty")
	}

	colIdx := make(map[string]int, len(rows[0]))
	for i, col := range rows[0] {
		colIdx[strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))] = i
	}

	hubCol, ok := findColumn(colIdx, hubColumns)
	if !ok {
		return nil, eris.Errorf("hub: missing hub column (one of %q)", hubColumns)
	}
	codeCol, ok := findColumn(colIdx, pincodeColumns)
	if !ok {
		return nil, eris.Errorf("hub: missing postal code column (one of %q)", pincodeColumns)
	}

	out := make([]model.Assignment, 0, len(rows)-1)
	for _, row := range rows[1:] {
		a := model.Assignment{
			Hub:     strings.TrimSpace(cell(row, hubCol)),
			Pincode: pincode.Normalize(cell(row, codeCol)),
		}
		if a.Hub == "" || a.Pincode == "" {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func findColumn(colIdx map[string]int, names []string) (int, bool) {
	for _, n := range names {
		if i, ok := colIdx[n]; ok {
			return i, true
		}
	}
	return 0, false
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "hub: open csv")
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "hub: read csv")
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "hub: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("hub: xlsx has no sheets")
	}

	sheet := f.Sheets[0]
	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, c := range row.Cells {
			cells[j] = c.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
