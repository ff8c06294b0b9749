package routing

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"scwm-service/internal/domain"
	"scwm-service/internal/platform/obs"
)

// GeocodeCache is satisfied by the SQLite and Postgres geocode caches.
type GeocodeCache interface {
	GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error)
	PutMany(ctx context.Context, results map[string]domain.Coordinates) error
}

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// ORSGeocoder resolves addresses through /geocode/search with a
// persistent cache in front.
type ORSGeocoder struct {
	client  *orsClient
	country string
	cache   GeocodeCache
}

func NewORSGeocoder(cfg ORSConfig, cache GeocodeCache) (*ORSGeocoder, error) {
	client, err := newORSClient(cfg)
	if err != nil {
		return nil, err
	}
	return &ORSGeocoder{client: client, country: cfg.Country, cache: cache}, nil
}

// normalize ensures consistent cache keys by collapsing whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (g *ORSGeocoder) Geocode(ctx context.Context, address string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "ors.Geocode")(&err)

	norm := normalize(address)
	if norm == "" {
		return domain.Coordinates{}, eris.New("geocode: address must be non-empty")
	}

	if g.cache != nil {
		hits, err := g.cache.GetMany(ctx, []string{norm})
		if err != nil {
			return domain.Coordinates{}, eris.Wrap(err, "ORS get geocode cache")
		}
		if c, ok := hits[norm]; ok {
			return c, nil
		}
	}

	c, err := g.search(ctx, norm)
	if err != nil {
		return domain.Coordinates{}, err
	}

	if g.cache != nil {
		if err := g.cache.PutMany(ctx, map[string]domain.Coordinates{norm: c}); err != nil {
			zap.L().Warn("geocode cache write failed", zap.Error(err))
		}
	}

	return c, nil
}

func (g *ORSGeocoder) search(ctx context.Context, norm string) (domain.Coordinates, error) {
	endpoint := g.client.baseURL + "/geocode/search"

	resp, err := g.client.doWithRetry(ctx, "ors.geocode", func() (*http.Request, error) {
		req, err := g.client.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", norm)
		if g.country != "" {
			q.Set("boundary.country", g.country)
		}
		q.Set("size", "1")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Coordinates{}, eris.Wrapf(err, "geocode %q", norm)
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, eris.Wrap(err, "decode geocode response")
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, eris.Wrapf(domain.ErrNotFound, "no geocode results for %q", norm)
	}

	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return domain.Coordinates{}, eris.Errorf("invalid coordinate format for %q", norm)
	}

	return domain.Coordinates{Lon: coords[0], Lat: coords[1]}, nil
}
