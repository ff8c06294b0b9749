package routing

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"scwm-service/internal/domain"
)

// MockRouteProvider serves canned routes keyed by origin/destination.
type MockRouteProvider struct {
	mu     sync.Mutex
	routes map[string]domain.Route
	calls  int
}

func NewMockRouteProvider(routes ...domain.Route) *MockRouteProvider {
	m := make(map[string]domain.Route, len(routes))
	for _, r := range routes {
		m[r.Origin.Key()+"|"+r.Destination.Key()] = r
	}
	return &MockRouteProvider{routes: m}
}

func (p *MockRouteProvider) GetRoute(ctx context.Context, origin, destination domain.Coordinates) (domain.Route, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++

	if err := ctx.Err(); err != nil {
		return domain.Route{}, err
	}

	r, ok := p.routes[origin.Key()+"|"+destination.Key()]
	if !ok {
		return domain.Route{}, eris.Wrapf(domain.ErrNotFound, "missing route %s -> %s", origin.Key(), destination.Key())
	}
	return r, nil
}

// Calls reports how many times GetRoute ran.
func (p *MockRouteProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
