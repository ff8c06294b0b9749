package ports

import (
	"context"

	"scwm-service/internal/domain"
)

// Geolocator supplies the user's position once.
// Implementations return an error wrapping domain.ErrLocationUnavailable
// when the position cannot be determined.
type Geolocator interface {
	Locate(ctx context.Context) (domain.Coordinates, error)
}
