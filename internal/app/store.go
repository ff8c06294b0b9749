// Package app assembles adapters into the store and services shared by
// the server and the maintenance CLI.
package app

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"

	"scwm-service/internal/adapters/cache"
	"scwm-service/internal/adapters/repositories"
	"scwm-service/internal/adapters/routing"
	"scwm-service/internal/config"
	"scwm-service/internal/domain"
	"scwm-service/internal/platform/db"
	"scwm-service/internal/ports"
)

// Store bundles the repositories and caches of one backend.
type Store struct {
	Driver       string
	Centers      ports.CenterRepository
	Scans        ports.ScanRepository
	Pinger       ports.Pinger
	RouteCache   routing.RouteCache
	GeocodeCache routing.GeocodeCache

	migrate func(ctx context.Context) error
	seed    func(ctx context.Context, centers []domain.Center, replace bool) (int, error)
	close   func()
}

// OpenStore connects to the configured backend. Call Migrate before use on
// a fresh database.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (*Store, error) {
	switch cfg.Driver {
	case "sqlite":
		sqlDB, err := db.OpenSqlite(ctx, cfg.SqlitePath)
		if err != nil {
			return nil, err
		}
		return sqliteStore(sqlDB), nil

	case "postgres":
		pool, err := db.OpenPostgres(ctx, cfg.DatabaseURL, cfg.MaxConns)
		if err != nil {
			return nil, err
		}
		s := postgresStore(pool)
		s.close = pool.Close
		return s, nil

	default:
		return nil, eris.Errorf("open store: unknown driver %q", cfg.Driver)
	}
}

func sqliteStore(sqlDB *sql.DB) *Store {
	repo := repositories.NewSqliteRepository(sqlDB)
	return &Store{
		Driver:       "sqlite",
		Centers:      repo,
		Scans:        repo,
		Pinger:       repo,
		RouteCache:   cache.NewSqliteRouteCache(sqlDB),
		GeocodeCache: cache.NewSqliteGeocodeCache(sqlDB),
		migrate: func(ctx context.Context) error {
			return repositories.InitSchema(ctx, sqlDB)
		},
		seed: func(ctx context.Context, centers []domain.Center, replace bool) (int, error) {
			return repositories.SeedCenters(ctx, sqlDB, centers, replace)
		},
		close: func() { _ = sqlDB.Close() },
	}
}

func postgresStore(pool db.Pool) *Store {
	repo := repositories.NewPostgresRepository(pool)
	return &Store{
		Driver:       "postgres",
		Centers:      repo,
		Scans:        repo,
		Pinger:       repo,
		RouteCache:   cache.NewPostgresRouteCache(pool),
		GeocodeCache: cache.NewPostgresGeocodeCache(pool),
		migrate:      repo.InitSchema,
		seed:         repo.SeedCenters,
		close:        func() {},
	}
}

func (s *Store) Migrate(ctx context.Context) error {
	if err := s.migrate(ctx); err != nil {
		return eris.Wrapf(err, "migrate %s store", s.Driver)
	}
	return nil
}

// Seed inserts centers. Without replace a non-empty table is left alone.
func (s *Store) Seed(ctx context.Context, centers []domain.Center, replace bool) (int, error) {
	n, err := s.seed(ctx, centers, replace)
	if err != nil {
		return 0, eris.Wrapf(err, "seed %s store", s.Driver)
	}
	return n, nil
}

// SeedFromFile loads a JSON array of center records and seeds them.
func (s *Store) SeedFromFile(ctx context.Context, path string, replace bool) (int, error) {
	centers, err := repositories.LoadSeedFile(path)
	if err != nil {
		return 0, err
	}
	return s.Seed(ctx, centers, replace)
}

func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}
