package ports

import (
	"context"

	"scwm-service/internal/domain"
)

// Port: a boundary for retrieving recycling centers from a data source.
type CenterRepository interface {
	// Retrieve all known centers in storage order.
	ListCenters(ctx context.Context) ([]domain.Center, error)
}

// Port: persistence of analyzed scans.
type ScanRepository interface {
	// Persist a scan and return its assigned ID.
	SaveScan(ctx context.Context, scan domain.Scan) (int64, error)
	// Return at most limit scans, newest first.
	ListRecentScans(ctx context.Context, limit int) ([]domain.Scan, error)
}

// Pinger runs a trivial round-trip query against the store.
type Pinger interface {
	Ping(ctx context.Context) (int, error)
}
