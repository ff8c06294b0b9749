package domain

import "time"

// Represents one analyzed waste photo.
// ID is zero until the scan has been persisted.
type Scan struct {
	ID         int64
	WasteType  string
	Confidence float64
	Advice     string
	Timestamp  time.Time
}
