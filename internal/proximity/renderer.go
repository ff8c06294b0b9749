package proximity

import (
	"iter"

	"scwm-service/internal/domain"
)

// DefaultFocusZoom is the zoom level the camera flies to on selection.
const DefaultFocusZoom = 15

// CameraFocus is a request to animate the map viewport.
type CameraFocus struct {
	Target domain.Coordinates
	Zoom   int
}

// Renderer is the map-rendering collaborator driven by a Controller.
//
// Methods are invoked while the controller holds its lock, so an
// implementation must not call back into the same Controller.
type Renderer interface {
	// ShowRanking is called after every recompute of the ranked view.
	ShowRanking(view iter.Seq[domain.RankedCenter])
	// FocusCamera requests a fly-to.
	FocusCamera(focus CameraFocus)
	// OpenRoute requests a route overlay from origin to destination.
	// The controller owns the returned handle and releases it exactly once.
	OpenRoute(origin, destination domain.Coordinates) RouteOverlay
}

// RouteOverlay is a drawn (or being drawn) routing overlay.
type RouteOverlay interface {
	Release()
}
