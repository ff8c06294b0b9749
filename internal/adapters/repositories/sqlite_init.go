package repositories

import (
	"context"
	"database/sql"
	"errors"
	"os"

	"github.com/rotisserie/eris"

	"scwm-service/internal/domain"
)

// Initialize the SQLite database schema.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "init schema: begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	createScansQuery := `
	CREATE TABLE IF NOT EXISTS scans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		waste_type TEXT NOT NULL,
		confidence REAL NOT NULL,
		timestamp TEXT NOT NULL,
		gemini_advice TEXT NOT NULL DEFAULT ''
	);
	`

	createCentersQuery := `
	CREATE TABLE IF NOT EXISTS recycling_centers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		address TEXT NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		contact_info TEXT NOT NULL DEFAULT ''
	);
	`

	createRouteCacheQuery := `
	CREATE TABLE IF NOT EXISTS route_cache (
        origin TEXT NOT NULL,
        destination TEXT NOT NULL,
        distance_meters INTEGER NOT NULL,
        duration_seconds INTEGER NOT NULL,
        path TEXT NOT NULL,
        PRIMARY KEY (origin, destination)
    );
	`

	createGeocodeCacheQuery := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
        address TEXT PRIMARY KEY,
        lon REAL NOT NULL,
        lat REAL NOT NULL
    );
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_route_cache_destination_origin
    ON route_cache(destination, origin);
	`

	statements := []string{
		createScansQuery,
		createCentersQuery,
		createRouteCacheQuery,
		createGeocodeCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return eris.Wrapf(err, "init schema: exec statement #%d", i+1)
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "init schema: commit tx")
	}

	return nil
}

// LoadSeedFile reads a JSON array of center records. Unlike the lenient
// runtime decoding, a seed file with any malformed element is rejected.
func LoadSeedFile(jsonPath string) ([]domain.Center, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, eris.Wrapf(err, "seed centers: read %q", jsonPath)
	}

	centers, invalid, err := domain.DecodeCenters(bytes)
	if err != nil {
		return nil, eris.Wrap(err, "seed centers: parse json")
	}
	if len(invalid) > 0 {
		return nil, eris.Wrap(errors.Join(invalid...), "seed centers")
	}

	return centers, nil
}

// Populate recycling_centers. Without replace the table is only seeded when
// it is empty; with replace existing rows are deleted first. Returns the
// number of rows inserted.
func SeedCenters(ctx context.Context, db *sql.DB, centers []domain.Center, replace bool) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "seed centers: begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	if replace {
		if _, err := tx.ExecContext(ctx, `DELETE FROM recycling_centers;`); err != nil {
			return 0, eris.Wrap(err, "seed centers: clear table")
		}
	} else {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM recycling_centers;`).Scan(&count); err != nil {
			return 0, eris.Wrap(err, "seed centers: count rows")
		}
		if count > 0 {
			return 0, nil
		}
	}

	query := `
	INSERT INTO recycling_centers (
		name,
		address,
		latitude,
		longitude,
		contact_info
	)
	VALUES (?, ?, ?, ?, ?);
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, eris.Wrap(err, "seed centers: prepare insert")
	}
	defer stmt.Close()

	for i, c := range centers {
		if err := c.Validate(); err != nil {
			return 0, eris.Wrapf(err, "seed centers: item %d", i+1)
		}
		if _, err := stmt.ExecContext(ctx, c.Name, c.Address, c.Location.Lat, c.Location.Lon, c.ContactInfo); err != nil {
			return 0, eris.Wrapf(err, "seed centers: insert %q", c.Name)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "seed centers: commit tx")
	}

	return len(centers), nil
}
