package db

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/hubmatch/internal/geo"
)

func TestParsePincodeCSV(t *testing.T) {
	in := "code,lat,lon\n" +
		"560064, 13.1007, 77.5963\n" +
		"560 001,12.9716,77.5946\n" +
		",1,1\n" +
		"560064,13.1,77.6\n"

	rows, err := ParsePincodeCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []PincodeRow{
		{Code: "560064", Location: geo.Point{Lat: 13.1, Lon: 77.6}},
		{Code: "560001", Location: geo.Point{Lat: 12.9716, Lon: 77.5946}},
	}, rows)
}

func TestParsePincodeCSV_NoHeader(t *testing.T) {
	rows, err := ParsePincodeCSV(strings.NewReader("560001,12.97,77.59\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "560001", rows[0].Code)
}

func TestParsePincodeCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "short row", in: "560001,12.9\n"},
		{name: "bad latitude after header", in: "code,lat,lon\n560001,x,77.5\n"},
		{name: "out of range", in: "560001,95,77.5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePincodeCSV(strings.NewReader(tt.in))
			assert.Error(t, err)
		})
	}
}

func TestEnsurePincodeSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS pincodes`).WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, EnsurePincodeSchema(context.Background(), mock))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertPincodes(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_pincodes"}, []string{"code", "lat", "lon"}).WillReturnResult(1)
	mock.ExpectExec(`INSERT INTO "pincodes"`).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	n, err := UpsertPincodes(context.Background(), mock, []PincodeRow{
		{Code: "560001", Location: geo.Point{Lat: 12.97, Lon: 77.59}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
