package ports

import (
	"context"

	"scwm-service/internal/domain"
)

// Contract for computing a travel route between two coordinates.
type RouteProvider interface {
	// Return the route geometry, travel distance and estimated duration.
	GetRoute(ctx context.Context, origin, destination domain.Coordinates) (domain.Route, error)
}

// Contract for resolving a free-form address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.Coordinates, error)
}
