package proximity

import "scwm-service/internal/domain"

// SelectionKind tags what the selection slot currently refers to.
type SelectionKind int

const (
	NoSelection SelectionKind = iota
	SelfSelected
	CenterSelected
)

func (k SelectionKind) String() string {
	switch k {
	case SelfSelected:
		return "self"
	case CenterSelected:
		return "center"
	default:
		return "none"
	}
}

// Selection is either nothing, the user's own position, or a center.
// Position is set for SelfSelected, Center for CenterSelected.
type Selection struct {
	Kind     SelectionKind
	Center   domain.Center
	Position domain.Coordinates
}

// Target is where the camera points for this selection.
func (s Selection) Target() (domain.Coordinates, bool) {
	switch s.Kind {
	case SelfSelected:
		return s.Position, true
	case CenterSelected:
		return s.Center.Location, true
	default:
		return domain.Coordinates{}, false
	}
}

// State is a snapshot of the controller.
type State struct {
	UserPosition  *domain.Coordinates
	Selection     Selection
	RoutingTarget *domain.Coordinates
}
