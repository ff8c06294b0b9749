package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Represents a recycling / disposal facility.
// Name is the display key and doubles as identity when comparing selections.
type Center struct {
	Name        string
	Address     string
	Location    Coordinates
	ContactInfo string
}

// Validate reports ErrInvalidCenterRecord for centers that cannot be ranked.
func (c Center) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidCenterRecord)
	}
	if err := c.Location.Validate(); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidCenterRecord, c.Name, err)
	}
	return nil
}

// RankedCenter is a Center annotated with its distance from the user.
// DistanceKm is nil while the user position is unknown.
type RankedCenter struct {
	Center
	DistanceKm *float64
}

// CenterRecord is the wire shape of a recycling center as served by
// GET /centers. Coordinates are pointers so that missing values can be
// told apart from the equator / prime meridian.
type CenterRecord struct {
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	ContactInfo string   `json:"contact_info"`
}

// ToCenter converts a record into a validated Center.
func (r CenterRecord) ToCenter() (Center, error) {
	if r.Latitude == nil || r.Longitude == nil {
		return Center{}, fmt.Errorf("%w: %q: missing coordinates", ErrInvalidCenterRecord, r.Name)
	}

	c := Center{
		Name:        strings.TrimSpace(r.Name),
		Address:     r.Address,
		Location:    Coordinates{Lat: *r.Latitude, Lon: *r.Longitude},
		ContactInfo: r.ContactInfo,
	}
	if err := c.Validate(); err != nil {
		return Center{}, err
	}
	return c, nil
}

// RecordFromCenter is the inverse of ToCenter.
func RecordFromCenter(c Center) CenterRecord {
	lat, lon := c.Location.Lat, c.Location.Lon
	return CenterRecord{
		Name:        c.Name,
		Address:     c.Address,
		Latitude:    &lat,
		Longitude:   &lon,
		ContactInfo: c.ContactInfo,
	}
}

// DecodeCenters decodes a JSON array of center records element by element.
// Malformed elements are excluded and reported individually so one bad row
// never hides the rest of the list. A body that is not a JSON array is a
// hard error.
func DecodeCenters(data []byte) ([]Center, []error, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("decode centers: %w", err)
	}

	centers := make([]Center, 0, len(raw))
	var invalid []error
	for i, elem := range raw {
		var rec CenterRecord
		if err := json.Unmarshal(elem, &rec); err != nil {
			invalid = append(invalid, fmt.Errorf("%w: element %d: %w", ErrInvalidCenterRecord, i, err))
			continue
		}
		c, err := rec.ToCenter()
		if err != nil {
			invalid = append(invalid, fmt.Errorf("element %d: %w", i, err))
			continue
		}
		centers = append(centers, c)
	}

	return centers, invalid, nil
}

// FilterValidCenters keeps the centers that pass Validate, preserving order.
// The returned error joins one ErrInvalidCenterRecord per excluded entry.
func FilterValidCenters(in []Center) ([]Center, error) {
	out := make([]Center, 0, len(in))
	var errs []error
	for _, c := range in {
		if err := c.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, c)
	}
	return out, errors.Join(errs...)
}
