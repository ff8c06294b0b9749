package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/rotisserie/eris"

	"scwm-service/internal/domain"
	"scwm-service/internal/platform/obs"
)

// SQLite backed cache for origin->destination routes.
// Keys are the 5-decimal rounded coordinates, so nearby repeats hit.
type SqliteRouteCache struct {
	DB *sql.DB
}

func NewSqliteRouteCache(db *sql.DB) *SqliteRouteCache {
	return &SqliteRouteCache{DB: db}
}

// Fetch a cached route. The bool is false on a miss.
func (s *SqliteRouteCache) Get(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
) (_ domain.Route, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.Get")(&err)

	if s.DB == nil {
		return domain.Route{}, false, errors.New("route cache: db is nil")
	}

	q := `
	SELECT
        distance_meters,
        duration_seconds,
        path
    FROM route_cache
    WHERE origin = ?
        AND destination = ?;
	`

	var meters, seconds int
	var raw string
	err = s.DB.QueryRowContext(ctx, q, origin.Key(), destination.Key()).Scan(&meters, &seconds, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Route{}, false, nil
	}
	if err != nil {
		return domain.Route{}, false, eris.Wrap(err, "get route cache: query route_cache table")
	}

	path, err := decodePath([]byte(raw))
	if err != nil {
		return domain.Route{}, false, eris.Wrap(err, "get route cache")
	}

	return domain.Route{
		Origin:          origin,
		Destination:     destination,
		DistanceMeters:  meters,
		DurationSeconds: seconds,
		Path:            path,
	}, true, nil
}

// Store a route under its origin/destination.
func (s *SqliteRouteCache) Put(ctx context.Context, r domain.Route) error {
	if s.DB == nil {
		return errors.New("route cache: db is nil")
	}

	raw, err := encodePath(r.Path)
	if err != nil {
		return eris.Wrap(err, "insert route cache")
	}

	_, err = s.DB.ExecContext(ctx, `
	INSERT OR REPLACE INTO route_cache (
        origin,
        destination,
        distance_meters,
        duration_seconds,
        path
    )
    VALUES (?, ?, ?, ?, ?)
	`, r.Origin.Key(), r.Destination.Key(), r.DistanceMeters, r.DurationSeconds, string(raw))
	if err != nil {
		return eris.Wrapf(err, "insert route cache %s -> %s", r.Origin.Key(), r.Destination.Key())
	}

	return nil
}

// Paths are stored as GeoJSON-style [[lon, lat], ...].
func encodePath(path []domain.Coordinates) ([]byte, error) {
	pairs := make([][]float64, 0, len(path))
	for _, c := range path {
		pairs = append(pairs, c.CoordsToList())
	}
	return json.Marshal(pairs)
}

func decodePath(raw []byte) ([]domain.Coordinates, error) {
	var pairs [][]float64
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, eris.Wrap(err, "decode cached path")
	}

	path := make([]domain.Coordinates, 0, len(pairs))
	for i, p := range pairs {
		if len(p) != 2 {
			return nil, eris.Errorf("decode cached path: point %d has %d values", i, len(p))
		}
		path = append(path, domain.Coordinates{Lon: p[0], Lat: p[1]})
	}
	return path, nil
}
