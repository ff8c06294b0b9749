package domain

// Represents a routed path between the user and a selected center.
// Path holds the route geometry in travel order; it may be the two
// endpoints only when the provider has no road network.
type Route struct {
	Origin          Coordinates
	Destination     Coordinates
	DistanceMeters  int
	DurationSeconds int
	Path            []Coordinates
}
