package routing

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scwm-service/internal/domain"
)

var (
	origin      = domain.Coordinates{Lat: 12.9716, Lon: 77.5946}
	destination = domain.Coordinates{Lat: 12.9352, Lon: 77.6245}
)

const directionsBody = `{
  "type": "FeatureCollection",
  "features": [{
    "type": "Feature",
    "geometry": {"type": "LineString", "coordinates": [[77.5946,12.9716],[77.61,12.95,910.2],[77.6245,12.9352]]},
    "properties": {"summary": {"distance": 5230.4, "duration": 811.6}}
  }]
}`

type memRouteCache struct {
	routes map[string]domain.Route
	puts   int
}

func (m *memRouteCache) Get(_ context.Context, o, d domain.Coordinates) (domain.Route, bool, error) {
	r, ok := m.routes[o.Key()+"|"+d.Key()]
	return r, ok, nil
}

func (m *memRouteCache) Put(_ context.Context, r domain.Route) error {
	if m.routes == nil {
		m.routes = map[string]domain.Route{}
	}
	m.routes[r.Origin.Key()+"|"+r.Destination.Key()] = r
	m.puts++
	return nil
}

func newProvider(t *testing.T, url string, cache RouteCache) *ORSRouteProvider {
	t.Helper()

	p, err := NewORSRouteProvider(ORSConfig{APIKey: "test-key", BaseURL: url}, cache)
	require.NoError(t, err)
	p.client.backoff = time.Millisecond
	return p
}

func TestORSRouteProviderFetchesAndCaches(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/directions/driving-car/geojson", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))

		var body directionsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, [][]float64{{77.5946, 12.9716}, {77.6245, 12.9352}}, body.Coordinates)

		_, _ = io.WriteString(w, directionsBody)
	}))
	defer srv.Close()

	cache := &memRouteCache{}
	p := newProvider(t, srv.URL, cache)

	r, err := p.GetRoute(context.Background(), origin, destination)
	require.NoError(t, err)
	assert.Equal(t, 5230, r.DistanceMeters)
	assert.Equal(t, 812, r.DurationSeconds)
	assert.Equal(t, []domain.Coordinates{origin, {Lat: 12.95, Lon: 77.61}, destination}, r.Path)

	again, err := p.GetRoute(context.Background(), origin, destination)
	require.NoError(t, err)
	assert.Equal(t, r, again)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, 1, cache.puts)
}

func TestORSRouteProviderRetriesTransientErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, directionsBody)
	}))
	defer srv.Close()

	p := newProvider(t, srv.URL, nil)

	_, err := p.GetRoute(context.Background(), origin, destination)
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load())
}

func TestORSRouteProviderDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "bad coordinates", http.StatusBadRequest)
	}))
	defer srv.Close()

	p := newProvider(t, srv.URL, nil)

	_, err := p.GetRoute(context.Background(), origin, destination)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad coordinates")
	assert.Equal(t, int32(1), hits.Load())
}

func TestORSRouteProviderGivesUpAfterMaxAttempts(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := newProvider(t, srv.URL, nil)

	_, err := p.GetRoute(context.Background(), origin, destination)
	require.Error(t, err)
	assert.Equal(t, int32(4), hits.Load())
}

func TestORSRouteProviderEmptyFeatures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"features": []}`)
	}))
	defer srv.Close()

	_, err := newProvider(t, srv.URL, nil).GetRoute(context.Background(), origin, destination)
	assert.Error(t, err)
}

func TestORSRouteProviderValidation(t *testing.T) {
	_, err := NewORSRouteProvider(ORSConfig{}, nil)
	assert.Error(t, err)

	p := newProvider(t, "http://127.0.0.1:0", nil)
	_, err = p.GetRoute(context.Background(), domain.Coordinates{Lat: 91}, destination)
	assert.ErrorIs(t, err, domain.ErrInvalidCoordinate)

	r, err := p.GetRoute(context.Background(), origin, origin)
	require.NoError(t, err)
	assert.Zero(t, r.DistanceMeters)
}

type memGeocodeCache map[string]domain.Coordinates

func (m memGeocodeCache) GetMany(_ context.Context, addrs []string) (map[string]domain.Coordinates, error) {
	out := map[string]domain.Coordinates{}
	for _, a := range addrs {
		if c, ok := m[a]; ok {
			out[a] = c
		}
	}
	return out, nil
}

func (m memGeocodeCache) PutMany(_ context.Context, in map[string]domain.Coordinates) error {
	for k, v := range in {
		m[k] = v
	}
	return nil
}

func TestORSGeocoder(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/geocode/search", r.URL.Path)
		assert.Equal(t, "Hebbal Industrial Area", r.URL.Query().Get("text"))
		assert.Equal(t, "IN", r.URL.Query().Get("boundary.country"))
		_, _ = io.WriteString(w, `{"features":[{"geometry":{"coordinates":[77.5971,13.0359]}}]}`)
	}))
	defer srv.Close()

	cache := memGeocodeCache{}
	g, err := NewORSGeocoder(ORSConfig{APIKey: "k", BaseURL: srv.URL, Country: "IN"}, cache)
	require.NoError(t, err)

	c, err := g.Geocode(context.Background(), "  Hebbal   Industrial Area ")
	require.NoError(t, err)
	assert.Equal(t, domain.Coordinates{Lat: 13.0359, Lon: 77.5971}, c)

	_, err = g.Geocode(context.Background(), "Hebbal Industrial Area")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
	assert.Contains(t, cache, "Hebbal Industrial Area")

	_, err = g.Geocode(context.Background(), "   ")
	assert.Error(t, err)
}

func TestORSGeocoderNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"features":[]}`)
	}))
	defer srv.Close()

	g, err := NewORSGeocoder(ORSConfig{APIKey: "k", BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	_, err = g.Geocode(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStraightLineProvider(t *testing.T) {
	a := domain.Coordinates{Lat: 0, Lon: 0}
	b := domain.Coordinates{Lat: 0, Lon: 1}

	r, err := StraightLineProvider{SpeedKmh: 60}.GetRoute(context.Background(), a, b)
	require.NoError(t, err)
	assert.InDelta(t, 111195, r.DistanceMeters, 1)
	assert.InDelta(t, 6672, r.DurationSeconds, 1)
	assert.Equal(t, []domain.Coordinates{a, b}, r.Path)

	_, err = StraightLineProvider{}.GetRoute(context.Background(), a, domain.Coordinates{Lon: 200})
	assert.ErrorIs(t, err, domain.ErrInvalidCoordinate)
}

func TestMockRouteProvider(t *testing.T) {
	want := domain.Route{Origin: origin, Destination: destination, DistanceMeters: 10}
	p := NewMockRouteProvider(want)

	got, err := p.GetRoute(context.Background(), origin, destination)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = p.GetRoute(context.Background(), destination, origin)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 2, p.Calls())
}
