package routing

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"scwm-service/internal/domain"
	"scwm-service/internal/platform/obs"
)

// RouteCache is satisfied by the SQLite and Postgres route caches.
type RouteCache interface {
	Get(ctx context.Context, origin, destination domain.Coordinates) (domain.Route, bool, error)
	Put(ctx context.Context, r domain.Route) error
}

// ORSRouteProvider implements ports.RouteProvider using OpenRouteService.
//
// It coordinates:
//   - Persistent route caching keyed by rounded coordinates
//   - External API calls with retry/backoff
//
// The provider is safe for concurrent use.
type ORSRouteProvider struct {
	client  *orsClient
	profile string
	cache   RouteCache
}

// NewORSRouteProvider builds a provider; cache may be nil.
func NewORSRouteProvider(cfg ORSConfig, cache RouteCache) (*ORSRouteProvider, error) {
	client, err := newORSClient(cfg)
	if err != nil {
		return nil, err
	}

	profile := cfg.Profile
	if profile == "" {
		profile = DefaultORSProfile
	}

	return &ORSRouteProvider{
		client:  client,
		profile: profile,
		cache:   cache,
	}, nil
}

func (p *ORSRouteProvider) GetRoute(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
) (_ domain.Route, err error) {
	defer obs.Time(ctx, "ors.GetRoute")(&err)

	if err := origin.Validate(); err != nil {
		return domain.Route{}, eris.Wrap(err, "route origin")
	}
	if err := destination.Validate(); err != nil {
		return domain.Route{}, eris.Wrap(err, "route destination")
	}

	if origin.Key() == destination.Key() {
		return domain.Route{Origin: origin, Destination: destination, Path: []domain.Coordinates{origin}}, nil
	}

	// Check the persistent cache before issuing external API calls.
	if p.cache != nil {
		r, ok, err := p.cache.Get(ctx, origin, destination)
		if err != nil {
			return domain.Route{}, eris.Wrap(err, "ORS get route cache")
		}
		if ok {
			return r, nil
		}
	}

	r, err := p.fetchDirections(ctx, origin, destination)
	if err != nil {
		return domain.Route{}, eris.Wrapf(err, "fetch route %s -> %s", origin.Key(), destination.Key())
	}

	if p.cache != nil {
		if err := p.cache.Put(ctx, r); err != nil {
			zap.L().Warn("route cache write failed", zap.Error(err))
		}
	}

	return r, nil
}
