package db

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hubmatch/internal/geo"
	"github.com/sells-group/hubmatch/internal/pincode"
)

// PincodeTable is the table read by the Postgres resolver.
const PincodeTable = "pincodes"

const pincodeSchema = `
CREATE TABLE IF NOT EXISTS pincodes (
	code       TEXT PRIMARY KEY,
	lat        DOUBLE PRECISION NOT NULL,
	lon        DOUBLE PRECISION NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PincodeRow is one postal code with its centroid.
type PincodeRow struct {
	Code     string
	Location geo.Point
}

// EnsurePincodeSchema creates the pincodes table if it does not exist.
func EnsurePincodeSchema(ctx context.Context, pool Pool) error {
	_, err := pool.Exec(ctx, pincodeSchema)
	return eris.Wrap(err, "db: create pincodes table")
}

// UpsertPincodes bulk-loads rows into the pincodes table, replacing the
// coordinates of codes already present.
func UpsertPincodes(ctx context.Context, pool Pool, rows []PincodeRow) (int64, error) {
	data := make([][]any, len(rows))
	for i, r := range rows {
		data[i] = []any{r.Code, r.Location.Lat, r.Location.Lon}
	}
	n, err := BulkUpsert(ctx, pool, UpsertConfig{
		Table:        PincodeTable,
		Columns:      []string{"code", "lat", "lon"},
		ConflictKeys: []string{"code"},
	}, data)
	if err != nil {
		return 0, eris.Wrap(err, "db: upsert pincodes")
	}
	return n, nil
}

// ParsePincodeCSV reads code,lat,lon rows. A header row is detected by a
// non-numeric latitude and skipped. Codes are normalised, later rows win
// over earlier ones, and rows with invalid coordinates are rejected.
func ParsePincodeCSV(r io.Reader) ([]PincodeRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "db: read pincode csv")
	}

	index := make(map[string]int)
	var out []PincodeRow
	for i, rec := range records {
		if len(rec) < 3 {
			return nil, eris.Errorf("db: pincode csv line %d: want code,lat,lon", i+1)
		}
		lat, latErr := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if i == 0 && latErr != nil {
			continue
		}
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
		if latErr != nil || lonErr != nil {
			return nil, eris.Errorf("db: pincode csv line %d: bad coordinates %q,%q", i+1, rec[1], rec[2])
		}

		row := PincodeRow{Code: pincode.Normalize(rec[0]), Location: geo.Point{Lat: lat, Lon: lon}}
		if row.Code == "" {
			continue
		}
		if !row.Location.Valid() {
			return nil, eris.Errorf("db: pincode csv line %d: coordinates out of range", i+1)
		}

		if j, ok := index[row.Code]; ok {
			out[j] = row
			continue
		}
		index[row.Code] = len(out)
		out = append(out, row)
	}
	return out, nil
}
