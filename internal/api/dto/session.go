package dto

type LatLon struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

// PositionRequest carries exactly one of: coordinates, an address to
// geocode, or a geolocation error reported by the client.
type PositionRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   string   `json:"address"`
	Error     string   `json:"error"`
}

type SelectRequest struct {
	Name string `json:"name"`
}

type SelectionResponse struct {
	Kind   string  `json:"kind"`
	Center string  `json:"center,omitempty"`
	Target *LatLon `json:"target,omitempty"`
}

type CameraResponse struct {
	Target LatLon `json:"target"`
	Zoom   int    `json:"zoom"`
}

type RouteResponse struct {
	Status          string       `json:"status"`
	Origin          LatLon       `json:"origin"`
	Destination     LatLon       `json:"destination"`
	DistanceMeters  *int         `json:"distance_meters,omitempty"`
	DurationSeconds *int         `json:"duration_seconds,omitempty"`
	Path            [][2]float64 `json:"path,omitempty"`
	Error           string       `json:"error,omitempty"`
}

type SessionResponse struct {
	SessionID      string                 `json:"session_id"`
	LocationStatus string                 `json:"location_status"`
	UserPosition   *LatLon                `json:"user_position"`
	Selection      SelectionResponse      `json:"selection"`
	RoutingTarget  *LatLon                `json:"routing_target"`
	Centers        []RankedCenterResponse `json:"centers"`
	Camera         *CameraResponse        `json:"camera"`
	Route          *RouteResponse         `json:"route"`
}
