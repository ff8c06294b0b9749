package services

import (
	"context"
	"iter"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"scwm-service/internal/domain"
	"scwm-service/internal/platform/obs"
	"scwm-service/internal/ports"
	"scwm-service/internal/proximity"
)

type RouteStatus string

const (
	RoutePending RouteStatus = "pending"
	RouteReady   RouteStatus = "ready"
	RouteFailed  RouteStatus = "failed"
)

// RouteView is what a client draws for the active route overlay.
type RouteView struct {
	Status      RouteStatus
	Origin      domain.Coordinates
	Destination domain.Coordinates
	Route       *domain.Route
	Error       string
}

// sessionRenderer records what a map client should display and turns
// route overlay requests into background fetches.
type sessionRenderer struct {
	routes  ports.RouteProvider
	timeout time.Duration
	log     *zap.Logger

	mu       sync.Mutex
	ranked   []domain.RankedCenter
	rankings int
	camera   *proximity.CameraFocus
	overlay  *routeOverlay

	wg sync.WaitGroup
}

func newSessionRenderer(routes ports.RouteProvider, timeout time.Duration, log *zap.Logger) *sessionRenderer {
	return &sessionRenderer{routes: routes, timeout: timeout, log: log}
}

func (r *sessionRenderer) ShowRanking(view iter.Seq[domain.RankedCenter]) {
	ranked := slices.Collect(view)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.ranked = ranked
	r.rankings++
}

func (r *sessionRenderer) FocusCamera(focus proximity.CameraFocus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.camera = &focus
}

func (r *sessionRenderer) OpenRoute(origin, destination domain.Coordinates) proximity.RouteOverlay {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	ov := &routeOverlay{
		renderer: r,
		cancel:   cancel,
		view:     RouteView{Status: RoutePending, Origin: origin, Destination: destination},
	}

	r.mu.Lock()
	r.overlay = ov
	r.mu.Unlock()

	if r.routes == nil {
		cancel()
		ov.finish(domain.Route{}, domain.ErrNotFound)
		return ov
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()
		route, err := r.routes.GetRoute(ctx, origin, destination)
		ov.finish(route, err)
	}()

	return ov
}

// wait blocks until in-flight route fetches have returned.
func (r *sessionRenderer) wait() {
	r.wg.Wait()
}

type renderSnapshot struct {
	ranked   []domain.RankedCenter
	rankings int
	camera   *proximity.CameraFocus
	route    *RouteView
}

func (r *sessionRenderer) snapshot() renderSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := renderSnapshot{
		ranked:   slices.Clone(r.ranked),
		rankings: r.rankings,
	}
	if r.camera != nil {
		c := *r.camera
		s.camera = &c
	}
	if r.overlay != nil {
		v := r.overlay.view
		s.route = &v
	}
	return s
}

type routeOverlay struct {
	renderer *sessionRenderer
	cancel   context.CancelFunc

	// guarded by renderer.mu
	view     RouteView
	released bool
}

func (o *routeOverlay) finish(route domain.Route, err error) {
	r := o.renderer
	r.mu.Lock()
	defer r.mu.Unlock()

	if o.released {
		obs.RouteFetches.WithLabelValues("released").Inc()
		return
	}

	if err != nil {
		o.view.Status = RouteFailed
		o.view.Error = err.Error()
		obs.RouteFetches.WithLabelValues("failed").Inc()
		r.log.Warn("route fetch failed",
			zap.String("destination", o.view.Destination.Key()),
			zap.Error(err),
		)
		return
	}

	o.view.Status = RouteReady
	o.view.Route = &route
	obs.RouteFetches.WithLabelValues("ready").Inc()
}

// Release cancels an in-flight fetch and removes the overlay.
func (o *routeOverlay) Release() {
	o.cancel()

	r := o.renderer
	r.mu.Lock()
	defer r.mu.Unlock()

	o.released = true
	if r.overlay == o {
		r.overlay = nil
	}
}
