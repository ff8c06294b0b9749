package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"

	"scwm-service/internal/domain"
	"scwm-service/internal/platform/db"
	"scwm-service/internal/platform/obs"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS scans (
	id BIGSERIAL PRIMARY KEY,
	waste_type TEXT NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	timestamp TIMESTAMPTZ NOT NULL DEFAULT now(),
	gemini_advice TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS recycling_centers (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	address TEXT NOT NULL,
	latitude DOUBLE PRECISION NOT NULL,
	longitude DOUBLE PRECISION NOT NULL,
	contact_info TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS route_cache (
	origin TEXT NOT NULL,
	destination TEXT NOT NULL,
	distance_meters INTEGER NOT NULL,
	duration_seconds INTEGER NOT NULL,
	path JSONB NOT NULL,
	PRIMARY KEY (origin, destination)
);

CREATE TABLE IF NOT EXISTS geocode_cache (
	address TEXT PRIMARY KEY,
	lon DOUBLE PRECISION NOT NULL,
	lat DOUBLE PRECISION NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_route_cache_destination_origin
	ON route_cache(destination, origin);
`

// PostgresRepository implements the center and scan ports over a pgx pool.
type PostgresRepository struct {
	pool db.Pool
}

func NewPostgresRepository(pool db.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// InitSchema creates the tables if they do not exist.
func (p *PostgresRepository) InitSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresSchema); err != nil {
		return eris.Wrap(err, "postgres: init schema")
	}
	return nil
}

// SeedCenters mirrors the SQLite seeding rules.
func (p *PostgresRepository) SeedCenters(ctx context.Context, centers []domain.Center, replace bool) (int, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: seed centers: begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if replace {
		if _, err := tx.Exec(ctx, `DELETE FROM recycling_centers`); err != nil {
			return 0, eris.Wrap(err, "postgres: seed centers: clear table")
		}
	} else {
		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM recycling_centers`).Scan(&count); err != nil {
			return 0, eris.Wrap(err, "postgres: seed centers: count rows")
		}
		if count > 0 {
			return 0, nil
		}
	}

	for i, c := range centers {
		if err := c.Validate(); err != nil {
			return 0, eris.Wrapf(err, "postgres: seed centers: item %d", i+1)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO recycling_centers (name, address, latitude, longitude, contact_info) VALUES ($1, $2, $3, $4, $5)`,
			c.Name, c.Address, c.Location.Lat, c.Location.Lon, c.ContactInfo,
		); err != nil {
			return 0, eris.Wrapf(err, "postgres: seed centers: insert %q", c.Name)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: seed centers: commit tx")
	}

	return len(centers), nil
}

func (p *PostgresRepository) ListCenters(ctx context.Context) (_ []domain.Center, err error) {
	defer obs.Time(ctx, "postgres.ListCenters")(&err)

	rows, err := p.pool.Query(ctx,
		`SELECT name, address, latitude, longitude, contact_info FROM recycling_centers ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list centers")
	}
	defer rows.Close()

	centers := make([]domain.Center, 0, 64)
	for rows.Next() {
		var c domain.Center
		if err := rows.Scan(&c.Name, &c.Address, &c.Location.Lat, &c.Location.Lon, &c.ContactInfo); err != nil {
			return nil, eris.Wrap(err, "postgres: list centers: scan row")
		}
		centers = append(centers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: list centers: row iteration")
	}

	return centers, nil
}

func (p *PostgresRepository) SaveScan(ctx context.Context, scan domain.Scan) (_ int64, err error) {
	defer obs.Time(ctx, "postgres.SaveScan")(&err)

	ts := scan.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	var id int64
	err = p.pool.QueryRow(ctx,
		`INSERT INTO scans (waste_type, confidence, timestamp, gemini_advice) VALUES ($1, $2, $3, $4) RETURNING id`,
		scan.WasteType, scan.Confidence, ts.UTC(), scan.Advice,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: save scan")
	}

	return id, nil
}

func (p *PostgresRepository) ListRecentScans(ctx context.Context, limit int) (_ []domain.Scan, err error) {
	defer obs.Time(ctx, "postgres.ListRecentScans")(&err)

	if limit <= 0 {
		limit = 10
	}

	rows, err := p.pool.Query(ctx,
		`SELECT id, waste_type, confidence, timestamp, gemini_advice FROM scans ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list scans")
	}
	defer rows.Close()

	scans := make([]domain.Scan, 0, limit)
	for rows.Next() {
		var sc domain.Scan
		if err := rows.Scan(&sc.ID, &sc.WasteType, &sc.Confidence, &sc.Timestamp, &sc.Advice); err != nil {
			return nil, eris.Wrap(err, "postgres: list scans: scan row")
		}
		scans = append(scans, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: list scans: row iteration")
	}

	return scans, nil
}

func (p *PostgresRepository) Ping(ctx context.Context) (int, error) {
	if p.pool == nil {
		return 0, errors.New("postgres repository: pool is nil")
	}

	var one int
	if err := p.pool.QueryRow(ctx, `SELECT 1`).Scan(&one); err != nil {
		return 0, eris.Wrap(err, "postgres: ping")
	}
	return one, nil
}
