package geo

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"scwm-service/internal/domain"
)

// FeatureCollection encodes a ranked view as GeoJSON points, keeping the
// ranking order and exposing the distance as a property.
func FeatureCollection(ranked []domain.RankedCenter) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(ranked))}
	for i, rc := range ranked {
		props := map[string]any{
			"rank":         i + 1,
			"name":         rc.Name,
			"address":      rc.Address,
			"contact_info": rc.ContactInfo,
			"distance_km":  nil,
		}
		if rc.DistanceKm != nil {
			props["distance_km"] = *rc.DistanceKm
		}

		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   geom.NewPointFlat(geom.XY, rc.Location.CoordsToList()),
			Properties: props,
		})
	}
	return fc
}

// RouteFeature encodes a route as a GeoJSON LineString feature.
func RouteFeature(r domain.Route) *geojson.Feature {
	path := r.Path
	if len(path) < 2 {
		path = []domain.Coordinates{r.Origin, r.Destination}
	}

	flat := make([]float64, 0, 2*len(path))
	for _, c := range path {
		flat = append(flat, c.Lon, c.Lat)
	}

	return &geojson.Feature{
		Geometry: geom.NewLineStringFlat(geom.XY, flat),
		Properties: map[string]any{
			"distance_meters":  r.DistanceMeters,
			"duration_seconds": r.DurationSeconds,
		},
	}
}
