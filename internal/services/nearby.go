package services

import (
	"context"

	"github.com/rotisserie/eris"

	"scwm-service/internal/domain"
	"scwm-service/internal/geo"
	"scwm-service/internal/ports"
)

// NearbyQuery narrows the ranked center list. A nil Position yields every
// center in storage order with unknown distances.
type NearbyQuery struct {
	Position *domain.Coordinates
	RadiusKm float64
	Limit    int
}

// ListNearby ranks the stored centers by distance without keeping any
// per-user state.
func ListNearby(ctx context.Context, repo ports.CenterRepository, q NearbyQuery) ([]domain.RankedCenter, error) {
	if q.Position != nil {
		if err := q.Position.Validate(); err != nil {
			return nil, eris.Wrap(err, "list nearby")
		}
	}

	centers, err := repo.ListCenters(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "list nearby: list centers")
	}

	valid, _ := domain.FilterValidCenters(centers)
	ranked := geo.RankCenters(valid, q.Position)
	if q.Position != nil {
		ranked = geo.WithinRadius(ranked, q.RadiusKm)
	}
	return geo.Limit(ranked, q.Limit), nil
}
