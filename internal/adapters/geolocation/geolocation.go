// Package geolocation provides the position sources a map session can be
// driven with.
package geolocation

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"scwm-service/internal/domain"
	"scwm-service/internal/ports"
)

// Static reports a position the client already knows, typically one the
// browser handed over.
type Static struct {
	Position domain.Coordinates
}

func (s Static) Locate(ctx context.Context) (domain.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return domain.Coordinates{}, errors.Join(domain.ErrLocationUnavailable, err)
	}
	if err := s.Position.Validate(); err != nil {
		return domain.Coordinates{}, errors.Join(domain.ErrLocationUnavailable, err)
	}
	return s.Position, nil
}

// Geocoded resolves a typed address into a position.
type Geocoded struct {
	Geocoder ports.Geocoder
	Address  string
}

func (g Geocoded) Locate(ctx context.Context) (domain.Coordinates, error) {
	if g.Geocoder == nil {
		return domain.Coordinates{}, eris.Wrap(domain.ErrLocationUnavailable, "no geocoder configured")
	}

	c, err := g.Geocoder.Geocode(ctx, g.Address)
	if err != nil {
		return domain.Coordinates{}, errors.Join(domain.ErrLocationUnavailable, err)
	}
	return c, nil
}

// Unavailable always fails, e.g. when the user denied location access.
type Unavailable struct {
	Reason string
}

func (u Unavailable) Locate(context.Context) (domain.Coordinates, error) {
	reason := u.Reason
	if reason == "" {
		reason = "position unavailable"
	}
	return domain.Coordinates{}, eris.Wrap(domain.ErrLocationUnavailable, reason)
}
