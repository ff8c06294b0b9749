// Package proximity implements the map controller: it owns the user
// position, the current center snapshot, the selection and the routing
// target, derives the distance-ranked view and tells a Renderer when to move
// the camera and when to draw or drop a route.
package proximity

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"

	"go.uber.org/zap"

	"scwm-service/internal/domain"
	"scwm-service/internal/geo"
	"scwm-service/internal/ports"
)

// LocationStatus tracks the single geolocation attempt.
type LocationStatus int

const (
	LocationPending LocationStatus = iota
	LocationKnown
	LocationUnavailable
)

func (s LocationStatus) String() string {
	switch s {
	case LocationKnown:
		return "known"
	case LocationUnavailable:
		return "unavailable"
	default:
		return "pending"
	}
}

// Option configures a Controller.
type Option func(*Controller)

// WithFocusZoom overrides the zoom used for camera focus requests.
func WithFocusZoom(zoom int) Option {
	return func(c *Controller) {
		if zoom > 0 {
			c.zoom = zoom
		}
	}
}

// WithLogger sets the logger; defaults to zap.L().
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// Controller is safe for concurrent use. A single mutex serialises every
// event, so state transitions happen one at a time in arrival order.
type Controller struct {
	mu sync.Mutex

	renderer Renderer
	zoom     int
	log      *zap.Logger

	centers   []domain.Center
	userPos   *domain.Coordinates
	locStatus LocationStatus
	selection Selection
	routeTo   *domain.Coordinates
	overlay   RouteOverlay
	closed    bool

	// closed once the single geolocation attempt has been handled
	locateDone chan struct{}
}

// New creates a controller in the NoSelection state with no known position.
func New(renderer Renderer, opts ...Option) *Controller {
	c := &Controller{
		renderer: renderer,
		zoom:     DefaultFocusZoom,
		log:      zap.L(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetCenters replaces the center snapshot. Entries that cannot be ranked are
// excluded; the returned error joins one domain.ErrInvalidCenterRecord per
// excluded entry and is informational, the valid entries are still applied.
func (c *Controller) SetCenters(centers []domain.Center) error {
	valid, invalid := domain.FilterValidCenters(centers)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domain.ErrControllerClosed
	}

	c.centers = valid
	if invalid != nil {
		c.log.Warn("excluded invalid center records",
			zap.Int("excluded", len(centers)-len(valid)),
			zap.Error(invalid),
		)
	}
	c.recomputeLocked()

	return invalid
}

// SetUserPosition records the user position. It is accepted once; later
// calls return domain.ErrPositionAlreadySet. A selection made before the
// position was known does not get a route retroactively.
func (c *Controller) SetUserPosition(pos domain.Coordinates) error {
	if err := pos.Validate(); err != nil {
		return fmt.Errorf("set user position: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domain.ErrControllerClosed
	}
	if c.userPos != nil {
		return domain.ErrPositionAlreadySet
	}

	c.userPos = &pos
	c.locStatus = LocationKnown
	c.recomputeLocked()

	return nil
}

// Locate acquires the user position once from g, asynchronously. The
// returned channel is closed when the attempt has been handled. Failures
// leave the position unknown for the lifetime of the controller; results
// arriving after Close are dropped. Only the first call starts an attempt;
// later calls get the channel of the attempt already running.
func (c *Controller) Locate(ctx context.Context, g ports.Geolocator) <-chan struct{} {
	done, _ := c.TryLocate(ctx, g)
	return done
}

// TryLocate is Locate that also reports whether this call started the
// attempt.
func (c *Controller) TryLocate(ctx context.Context, g ports.Geolocator) (<-chan struct{}, bool) {
	c.mu.Lock()
	if c.locateDone != nil {
		done := c.locateDone
		c.mu.Unlock()
		return done, false
	}
	done := make(chan struct{})
	if c.closed || c.userPos != nil {
		c.mu.Unlock()
		close(done)
		return done, false
	}
	c.locateDone = done
	c.mu.Unlock()

	go func() {
		defer close(done)

		pos, err := g.Locate(ctx)
		if err != nil {
			if !errors.Is(err, domain.ErrLocationUnavailable) {
				err = fmt.Errorf("%w: %w", domain.ErrLocationUnavailable, err)
			}
			c.markUnavailable(err)
			return
		}

		err = c.SetUserPosition(pos)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrControllerClosed):
			c.log.Debug("dropping position for closed controller")
		case errors.Is(err, domain.ErrPositionAlreadySet):
			c.log.Debug("dropping located position, already set")
		default:
			c.markUnavailable(fmt.Errorf("%w: %w", domain.ErrLocationUnavailable, err))
		}
	}()

	return done, true
}

func (c *Controller) markUnavailable(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.locStatus = LocationUnavailable
	c.log.Info("geolocation failed, distances stay unknown", zap.Error(err))
}

// SelectCenter selects a center from the current list, flies the camera to
// it and routes to it when the user position is known. Selecting the
// center that is already selected (by name) changes nothing.
func (c *Controller) SelectCenter(center domain.Center) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domain.ErrControllerClosed
	}

	known, ok := c.lookupLocked(center.Name)
	if !ok {
		return fmt.Errorf("select center %q: %w", center.Name, domain.ErrUnknownCenter)
	}

	if c.selection.Kind == CenterSelected && c.selection.Center.Name == known.Name {
		return nil
	}

	target := known.Location
	c.selection = Selection{Kind: CenterSelected, Center: known}
	c.routeTo = &target

	c.renderer.FocusCamera(CameraFocus{Target: target, Zoom: c.zoom})

	c.releaseOverlayLocked()
	if c.userPos != nil {
		c.overlay = c.renderer.OpenRoute(*c.userPos, target)
	}

	return nil
}

// SelectCenterByName is SelectCenter for callers that only hold the name.
func (c *Controller) SelectCenterByName(name string) error {
	return c.SelectCenter(domain.Center{Name: strings.TrimSpace(name)})
}

// RecenterOnUser points the selection and the camera at the user's own
// position. It never routes and clears any routing target. Without a known
// position it is a no-op.
func (c *Controller) RecenterOnUser() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domain.ErrControllerClosed
	}
	if c.userPos == nil {
		return nil
	}

	pos := *c.userPos
	c.selection = Selection{Kind: SelfSelected, Position: pos}
	c.routeTo = nil
	c.releaseOverlayLocked()

	c.renderer.FocusCamera(CameraFocus{Target: pos, Zoom: c.zoom})

	return nil
}

// RankedView returns the centers ranked by distance from the user. The
// sequence is recomputed from the current state every time it is ranged
// over.
func (c *Controller) RankedView() iter.Seq[domain.RankedCenter] {
	return func(yield func(domain.RankedCenter) bool) {
		c.mu.Lock()
		centers, pos := c.centers, c.userPos
		c.mu.Unlock()

		for _, rc := range geo.RankCenters(centers, pos) {
			if !yield(rc) {
				return
			}
		}
	}
}

// State returns a snapshot copy of the controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := State{Selection: c.selection}
	if c.userPos != nil {
		p := *c.userPos
		s.UserPosition = &p
	}
	if c.routeTo != nil {
		t := *c.routeTo
		s.RoutingTarget = &t
	}
	return s
}

// LocationStatus reports the outcome of the geolocation attempt.
func (c *Controller) LocationStatus() LocationStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locStatus
}

// Close tears the controller down and releases the route overlay.
// Close is idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.releaseOverlayLocked()
}

func (c *Controller) lookupLocked(name string) (domain.Center, bool) {
	for _, known := range c.centers {
		if known.Name == name {
			return known, true
		}
	}
	return domain.Center{}, false
}

func (c *Controller) releaseOverlayLocked() {
	if c.overlay != nil {
		c.overlay.Release()
		c.overlay = nil
	}
}

func (c *Controller) recomputeLocked() {
	ranked := geo.RankCenters(c.centers, c.userPos)
	c.renderer.ShowRanking(func(yield func(domain.RankedCenter) bool) {
		for _, rc := range ranked {
			if !yield(rc) {
				return
			}
		}
	})
}
