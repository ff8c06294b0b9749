package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"scwm-service/internal/api/dto"
	"scwm-service/internal/domain"
	"scwm-service/internal/geo"
	"scwm-service/internal/ports"
	"scwm-service/internal/services"
)

const maxNearbyLimit = 100

type CenterHandler struct {
	Repo ports.CenterRepository
}

// List returns every center. Storage failures yield an empty array so map
// clients keep working without markers.
func (h *CenterHandler) List(w http.ResponseWriter, r *http.Request) {
	centers, err := h.Repo.ListCenters(r.Context())
	if err != nil {
		zap.L().Warn("list centers failed", zap.Error(err))
		writeJSON(w, r, http.StatusOK, []dto.CenterResponse{})
		return
	}

	out := make([]dto.CenterResponse, 0, len(centers))
	for _, c := range centers {
		out = append(out, toCenterResponse(c))
	}
	writeJSON(w, r, http.StatusOK, out)
}

// Nearby ranks centers by distance from ?lat&lon, optionally bounded by
// radius_km and limit. format=geojson returns a FeatureCollection.
func (h *CenterHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var query services.NearbyQuery
	latStr, lonStr := strings.TrimSpace(q.Get("lat")), strings.TrimSpace(q.Get("lon"))
	if (latStr == "") != (lonStr == "") {
		writeError(w, r, http.StatusBadRequest, "lat and lon must be given together")
		return
	}
	if latStr != "" {
		lat, err1 := strconv.ParseFloat(latStr, 64)
		lon, err2 := strconv.ParseFloat(lonStr, 64)
		if err1 != nil || err2 != nil {
			writeError(w, r, http.StatusBadRequest, "lat and lon must be numbers")
			return
		}
		query.Position = &domain.Coordinates{Lat: lat, Lon: lon}
	}

	if s := q.Get("radius_km"); s != "" {
		km, err := strconv.ParseFloat(s, 64)
		if err != nil || km < 0 {
			writeError(w, r, http.StatusBadRequest, "radius_km must be a non-negative number")
			return
		}
		query.RadiusKm = km
	}

	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxNearbyLimit {
			writeError(w, r, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		query.Limit = n
	}

	ranked, err := services.ListNearby(r.Context(), h.Repo, query)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if q.Get("format") == "geojson" {
		writeTyped(w, r, "application/geo+json", http.StatusOK, geo.FeatureCollection(ranked))
		return
	}
	writeJSON(w, r, http.StatusOK, toRankedResponses(ranked))
}
