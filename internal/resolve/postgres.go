package resolve

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hubmatch/internal/db"
	"github.com/sells-group/hubmatch/internal/geo"
	"github.com/sells-group/hubmatch/internal/pincode"
)

// Postgres resolves codes from the pincodes table.
type Postgres struct {
	pool db.Pool
}

// NewPostgres returns a resolver backed by pool.
func NewPostgres(pool db.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Lookup reads one code. A missing row is (zero, false, nil).
func (p *Postgres) Lookup(ctx context.Context, code string) (geo.Point, bool, error) {
	var pt geo.Point
	err := p.pool.QueryRow(ctx, `SELECT lat, lon FROM pincodes WHERE code = $1`, code).Scan(&pt.Lat, &pt.Lon)
	if errors.Is(err, pgx.ErrNoRows) {
		return geo.Point{}, false, nil
	}
	if err != nil {
		return geo.Point{}, false, eris.Wrapf(err, "resolve: query pincode %s", code)
	}
	pt, ok := checked("postgres", code, pt)
	return pt, ok, nil
}

// Resolve reads one code, logging and absorbing query failures.
func (p *Postgres) Resolve(ctx context.Context, code string) (geo.Point, bool) {
	pt, ok, err := p.Lookup(ctx, code)
	if err != nil {
		zap.L().Warn("pincode lookup failed", zap.String("pincode", code), zap.Error(err))
		return geo.Point{}, false
	}
	return pt, ok
}

// Preload fetches every listed code in one query and returns them as a
// static table. Codes absent from the table are simply missing.
func (p *Postgres) Preload(ctx context.Context, codes []string) (*Static, error) {
	codes = pincode.Unique(codes)
	if len(codes) == 0 {
		return NewStatic(nil), nil
	}

	rows, err := p.pool.Query(ctx, `SELECT code, lat, lon FROM pincodes WHERE code = ANY($1)`, codes)
	if err != nil {
		return nil, eris.Wrap(err, "resolve: preload pincodes")
	}
	defer rows.Close()

	table := make(map[string]geo.Point, len(codes))
	for rows.Next() {
		var code string
		var pt geo.Point
		if err := rows.Scan(&code, &pt.Lat, &pt.Lon); err != nil {
			return nil, eris.Wrap(err, "resolve: scan pincode")
		}
		table[code] = pt
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "resolve: iterate pincodes")
	}
	return NewStatic(table), nil
}
