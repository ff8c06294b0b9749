package geo

import (
	"cmp"
	"slices"

	"scwm-service/internal/domain"
)

// RankCenters annotates each center with its distance from pos and sorts
// ascending. With a nil pos every distance is nil and input order is kept.
// The sort is stable: equal distances keep insertion order and unknown
// distances always come last.
func RankCenters(centers []domain.Center, pos *domain.Coordinates) []domain.RankedCenter {
	ranked := make([]domain.RankedCenter, 0, len(centers))
	for _, c := range centers {
		rc := domain.RankedCenter{Center: c}
		if pos != nil {
			d := HaversineKm(*pos, c.Location)
			rc.DistanceKm = &d
		}
		ranked = append(ranked, rc)
	}

	slices.SortStableFunc(ranked, compareDistance)
	return ranked
}

func compareDistance(a, b domain.RankedCenter) int {
	switch {
	case a.DistanceKm == nil && b.DistanceKm == nil:
		return 0
	case a.DistanceKm == nil:
		return 1
	case b.DistanceKm == nil:
		return -1
	}
	return cmp.Compare(*a.DistanceKm, *b.DistanceKm)
}

// WithinRadius keeps the centers whose known distance is at most km.
// Unknown distances are dropped; a non-positive km disables the filter.
func WithinRadius(ranked []domain.RankedCenter, km float64) []domain.RankedCenter {
	if km <= 0 {
		return ranked
	}
	out := make([]domain.RankedCenter, 0, len(ranked))
	for _, rc := range ranked {
		if rc.DistanceKm != nil && *rc.DistanceKm <= km {
			out = append(out, rc)
		}
	}
	return out
}

// Limit truncates to the first n entries; n <= 0 means no limit.
func Limit(ranked []domain.RankedCenter, n int) []domain.RankedCenter {
	if n <= 0 || n >= len(ranked) {
		return ranked
	}
	return ranked[:n]
}
