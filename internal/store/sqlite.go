package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements GeocodeCache using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	pincode    TEXT PRIMARY KEY,
	lat        REAL NOT NULL DEFAULT 0,
	lon        REAL NOT NULL DEFAULT 0,
	matched    INTEGER NOT NULL,
	source     TEXT NOT NULL DEFAULT '',
	cached_at  DATETIME NOT NULL,
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_geocode_cache_expires_at ON geocode_cache(expires_at);
`

// Migrate creates the cache schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetGeocode(ctx context.Context, pincode string) (*CachedGeocode, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT pincode, lat, lon, matched, source, cached_at FROM geocode_cache WHERE pincode = ? AND expires_at > ?`,
		pincode, s.now().UTC(),
	)

	var c CachedGeocode
	if err := row.Scan(&c.Pincode, &c.Lat, &c.Lon, &c.Matched, &c.Source, &c.CachedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get geocode %s", pincode)
	}
	return &c, nil
}

func (s *SQLiteStore) SetGeocode(ctx context.Context, entry CachedGeocode, ttl time.Duration) error {
	now := s.now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO geocode_cache (pincode, lat, lon, matched, source, cached_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (pincode) DO UPDATE SET
			lat = excluded.lat,
			lon = excluded.lon,
			matched = excluded.matched,
			source = excluded.source,
			cached_at = excluded.cached_at,
			expires_at = excluded.expires_at`,
		entry.Pincode, entry.Lat, entry.Lon, entry.Matched, entry.Source, now, now.Add(ttl),
	)
	return eris.Wrapf(err, "sqlite: set geocode %s", entry.Pincode)
}

func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM geocode_cache WHERE expires_at <= ?`, s.now().UTC())
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired geocodes")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	return int(n), nil
}
