package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"github.com/rotisserie/eris"

	"scwm-service/internal/domain"
)

type directionsRequest struct {
	Coordinates [][]float64 `json:"coordinates"`
}

type directionsResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Summary struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
			} `json:"summary"`
		} `json:"properties"`
	} `json:"features"`
}

// fetchDirections retrieves the route geometry and summary between two
// points from the ORS directions endpoint (GeoJSON flavour).
func (p *ORSRouteProvider) fetchDirections(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
) (domain.Route, error) {
	endpoint := fmt.Sprintf("%s/v2/directions/%s/geojson", p.client.baseURL, p.profile)

	payload, err := json.Marshal(directionsRequest{
		Coordinates: [][]float64{origin.CoordsToList(), destination.CoordsToList()},
	})
	if err != nil {
		return domain.Route{}, eris.Wrap(err, "marshal directions request")
	}

	resp, err := p.client.doWithRetry(ctx, "ors.directions", func() (*http.Request, error) {
		return p.client.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return domain.Route{}, eris.Wrap(err, "directions request failed")
	}
	defer resp.Body.Close()

	var dr directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return domain.Route{}, eris.Wrap(err, "decode directions response")
	}

	if len(dr.Features) == 0 {
		return domain.Route{}, eris.Errorf("no route between %s and %s", origin.Key(), destination.Key())
	}

	f := dr.Features[0]
	path := make([]domain.Coordinates, 0, len(f.Geometry.Coordinates))
	for i, pt := range f.Geometry.Coordinates {
		// ORS may append elevation as a third value.
		if len(pt) < 2 {
			return domain.Route{}, eris.Errorf("directions returned malformed point %d", i)
		}
		path = append(path, domain.Coordinates{Lon: pt[0], Lat: pt[1]})
	}

	return domain.Route{
		Origin:          origin,
		Destination:     destination,
		DistanceMeters:  int(math.Round(f.Properties.Summary.Distance)),
		DurationSeconds: int(math.Round(f.Properties.Summary.Duration)),
		Path:            path,
	}, nil
}
