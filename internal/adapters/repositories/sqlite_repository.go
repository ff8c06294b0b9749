package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"

	"scwm-service/internal/domain"
	"scwm-service/internal/platform/obs"
)

// SQLite-backed implementation of the center and scan repository ports.
type SqliteRepository struct{ DB *sql.DB }

func NewSqliteRepository(db *sql.DB) *SqliteRepository {
	return &SqliteRepository{DB: db}
}

// Return all centers stored in the database.
func (s *SqliteRepository) ListCenters(ctx context.Context) (_ []domain.Center, err error) {
	defer obs.Time(ctx, "sqlite.ListCenters")(&err)

	if s.DB == nil {
		return nil, errors.New("sqlite repository: DB is nil")
	}

	query := `
	SELECT
		name,
		address,
		latitude,
		longitude,
		contact_info
	FROM recycling_centers
	ORDER BY id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "list centers: query recycling_centers table")
	}
	defer rows.Close()

	centers := make([]domain.Center, 0, 64)
	for rows.Next() {
		var c domain.Center
		if err := rows.Scan(&c.Name, &c.Address, &c.Location.Lat, &c.Location.Lon, &c.ContactInfo); err != nil {
			return nil, eris.Wrap(err, "list centers: scan row")
		}
		centers = append(centers, c)
	}

	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "list centers: row iteration")
	}

	return centers, nil
}

// Persist a scan; a zero Timestamp is replaced with the current time.
func (s *SqliteRepository) SaveScan(ctx context.Context, scan domain.Scan) (_ int64, err error) {
	defer obs.Time(ctx, "sqlite.SaveScan")(&err)

	if s.DB == nil {
		return 0, errors.New("sqlite repository: DB is nil")
	}

	ts := scan.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	query := `
	INSERT INTO scans (
		waste_type,
		confidence,
		timestamp,
		gemini_advice
	)
	VALUES (?, ?, ?, ?);
	`
	res, err := s.DB.ExecContext(ctx, query, scan.WasteType, scan.Confidence, ts.UTC().Format(time.RFC3339Nano), scan.Advice)
	if err != nil {
		return 0, eris.Wrap(err, "save scan: insert")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, eris.Wrap(err, "save scan: last insert id")
	}

	return id, nil
}

// Return the newest scans first.
func (s *SqliteRepository) ListRecentScans(ctx context.Context, limit int) (_ []domain.Scan, err error) {
	defer obs.Time(ctx, "sqlite.ListRecentScans")(&err)

	if s.DB == nil {
		return nil, errors.New("sqlite repository: DB is nil")
	}
	if limit <= 0 {
		limit = 10
	}

	query := `
	SELECT
		id,
		waste_type,
		confidence,
		timestamp,
		gemini_advice
	FROM scans
	ORDER BY id DESC
	LIMIT ?;
	`
	rows, err := s.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, eris.Wrap(err, "list scans: query scans table")
	}
	defer rows.Close()

	scans := make([]domain.Scan, 0, limit)
	for rows.Next() {
		var sc domain.Scan
		var ts string
		if err := rows.Scan(&sc.ID, &sc.WasteType, &sc.Confidence, &ts, &sc.Advice); err != nil {
			return nil, eris.Wrap(err, "list scans: scan row")
		}
		sc.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, eris.Wrapf(err, "list scans: parse timestamp of scan %d", sc.ID)
		}
		scans = append(scans, sc)
	}

	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "list scans: row iteration")
	}

	return scans, nil
}

// Ping runs SELECT 1.
func (s *SqliteRepository) Ping(ctx context.Context) (int, error) {
	if s.DB == nil {
		return 0, errors.New("sqlite repository: DB is nil")
	}

	var one int
	if err := s.DB.QueryRowContext(ctx, `SELECT 1;`).Scan(&one); err != nil {
		return 0, eris.Wrap(err, "ping sqlite")
	}
	return one, nil
}
