package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkUpsert_EmptyRows(t *testing.T) {
	n, err := BulkUpsert(context.Background(), nil, UpsertConfig{
		Table:        "pincodes",
		Columns:      []string{"code", "lat"},
		ConflictKeys: []string{"code"},
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestBulkUpsert_NoColumns(t *testing.T) {
	_, err := BulkUpsert(context.Background(), nil, UpsertConfig{
		Table:        "pincodes",
		ConflictKeys: []string{"code"},
	}, [][]any{{"560001", 12.9}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns specified")
}

func TestBulkUpsert_NoConflictKeys(t *testing.T) {
	_, err := BulkUpsert(context.Background(), nil, UpsertConfig{
		Table:   "pincodes",
		Columns: []string{"code", "lat"},
	}, [][]any{{"560001", 12.9}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no conflict keys specified")
}

func TestBulkUpsert_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_upsert_geo_pincodes"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_geo_pincodes"}, []string{"code", "lat", "lon"}).
		WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "geo"."pincodes"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	n, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "geo.pincodes",
		Columns:      []string{"code", "lat", "lon"},
		ConflictKeys: []string{"code"},
	}, [][]any{{"560001", 12.97, 77.59}, {"560002", 12.96, 77.58}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsert_CopyFails(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_pincodes"}, []string{"code"}).
		WillReturnError(errors.New("copy failed"))
	mock.ExpectRollback()

	_, err = BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "pincodes",
		Columns:      []string{"code"},
		ConflictKeys: []string{"code"},
	}, [][]any{{"560001"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY into temp table")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMergeSQL(t *testing.T) {
	cfg := UpsertConfig{Table: "pincodes", Columns: []string{"code", "lat", "lon"}, ConflictKeys: []string{"code"}}

	got := mergeSQL("_tmp", cfg, nonConflictColumns(cfg.Columns, cfg.ConflictKeys))
	assert.Equal(t,
		`INSERT INTO "pincodes" ("code", "lat", "lon") SELECT "code", "lat", "lon" FROM "_tmp" ON CONFLICT ("code") DO UPDATE SET "lat" = EXCLUDED."lat", "lon" = EXCLUDED."lon"`,
		got)

	onlyKeys := UpsertConfig{Table: "pincodes", Columns: []string{"code"}, ConflictKeys: []string{"code"}}
	assert.Contains(t, mergeSQL("_tmp", onlyKeys, nil), "ON CONFLICT (\"code\") DO NOTHING")
}

func TestSanitizeTable(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"pincodes", `"pincodes"`},
		{"geo.pincodes", `"geo"."pincodes"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeTable(tt.input))
		})
	}
}

func TestQuoteAndJoin(t *testing.T) {
	assert.Equal(t, `"code", "lat", "lon"`, quoteAndJoin([]string{"code", "lat", "lon"}))
}
