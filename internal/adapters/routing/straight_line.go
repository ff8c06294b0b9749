package routing

import (
	"context"
	"math"

	"scwm-service/internal/domain"
	"scwm-service/internal/geo"
)

const DefaultSpeedKmh = 30.0

// StraightLineProvider draws a two-point great-circle route. Used when no
// routing service is configured.
type StraightLineProvider struct {
	SpeedKmh float64
}

func (s StraightLineProvider) GetRoute(
	_ context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
) (domain.Route, error) {
	if err := origin.Validate(); err != nil {
		return domain.Route{}, err
	}
	if err := destination.Validate(); err != nil {
		return domain.Route{}, err
	}

	speed := s.SpeedKmh
	if speed <= 0 {
		speed = DefaultSpeedKmh
	}

	km := geo.HaversineKm(origin, destination)
	return domain.Route{
		Origin:          origin,
		Destination:     destination,
		DistanceMeters:  int(math.Round(km * 1000)),
		DurationSeconds: int(math.Round(km / speed * 3600)),
		Path:            []domain.Coordinates{origin, destination},
	}, nil
}
