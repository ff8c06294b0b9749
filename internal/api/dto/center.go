package dto

// CenterResponse mirrors one element of GET /centers.
type CenterResponse struct {
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	ContactInfo string  `json:"contact_info"`
}

// RankedCenterResponse is a center in distance order. DistanceKm is null
// while the user position is unknown.
type RankedCenterResponse struct {
	Rank int `json:"rank"`
	CenterResponse
	DistanceKm *float64 `json:"distance_km"`
}
