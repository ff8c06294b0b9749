package cache

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"scwm-service/internal/domain"
	"scwm-service/internal/platform/db"
	"scwm-service/internal/platform/obs"
)

// PostgresRouteCache is the Postgres twin of SqliteRouteCache.
type PostgresRouteCache struct {
	pool db.Pool
}

func NewPostgresRouteCache(pool db.Pool) *PostgresRouteCache {
	return &PostgresRouteCache{pool: pool}
}

func (p *PostgresRouteCache) Get(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
) (_ domain.Route, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.Get")(&err)

	var meters, seconds int
	var raw []byte
	err = p.pool.QueryRow(ctx,
		`SELECT distance_meters, duration_seconds, path FROM route_cache WHERE origin = $1 AND destination = $2`,
		origin.Key(), destination.Key(),
	).Scan(&meters, &seconds, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Route{}, false, nil
	}
	if err != nil {
		return domain.Route{}, false, eris.Wrap(err, "get route cache")
	}

	path, err := decodePath(raw)
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

func (p *PostgresRouteCache) Put(ctx context.Context, r domain.Route) error {
	raw, err := encodePath(r.Path)
	if err != nil {
		return eris.Wrap(err, "insert route cache")
	}

	_, err = p.pool.Exec(ctx, `
	INSERT INTO route_cache (origin, destination, distance_meters, duration_seconds, path)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (origin, destination) DO UPDATE
	SET distance_meters = EXCLUDED.distance_meters,
		duration_seconds = EXCLUDED.duration_seconds,
		path = EXCLUDED.path`,
		r.Origin.Key(), r.Destination.Key(), r.DistanceMeters, r.DurationSeconds, raw,
	)
	if err != nil {
		return eris.Wrapf(err, "insert route cache %s -> %s", r.Origin.Key(), r.Destination.Key())
	}

	return nil
}

// PostgresGeocodeCache maps normalized addresses to coordinates.
type PostgresGeocodeCache struct {
	pool db.Pool
}

func NewPostgresGeocodeCache(pool db.Pool) *PostgresGeocodeCache {
	return &PostgresGeocodeCache{pool: pool}
}

func (p *PostgresGeocodeCache) GetMany(ctx context.Context, addresses []string) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "geocode.cache.GetMany")(&err)

	uniq := uniqueTrimmed(addresses)
	if len(uniq) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	rows, err := p.pool.Query(ctx, `SELECT address, lon, lat FROM geocode_cache WHERE address = ANY($1::text[])`, uniq)
	if err != nil {
		return nil, eris.Wrap(err, "get geocode cache: query geocode_cache table")
	}
	defer rows.Close()

	out := make(map[string]domain.Coordinates, len(uniq))
	for rows.Next() {
		var addr string
		var c domain.Coordinates
		if err := rows.Scan(&addr, &c.Lon, &c.Lat); err != nil {
			return nil, eris.Wrap(err, "get geocode cache: scan rows")
		}
		out[addr] = c
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "get geocode cache: row iteration")
	}

	return out, nil
}

func (p *PostgresGeocodeCache) PutMany(ctx context.Context, results map[string]domain.Coordinates) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "insert geocode cache: begin")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for addr, c := range results {
		if addr == "" {
			return errors.New("insert geocode cache: empty address key")
		}
		_, err := tx.Exec(ctx, `
		INSERT INTO geocode_cache (address, lon, lat)
		VALUES ($1, $2, $3)
		ON CONFLICT (address) DO UPDATE
		SET lon = EXCLUDED.lon,
			lat = EXCLUDED.lat`, addr, c.Lon, c.Lat)
		if err != nil {
			return eris.Wrapf(err, "insert geocode cache address=%q", addr)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "insert geocode cache: commit")
	}

	return nil
}
