package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"scwm-service/internal/api/dto"
	"scwm-service/internal/domain"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	writeTyped(w, r, "application/json", status, v)
}

func writeTyped(w http.ResponseWriter, r *http.Request, contentType string, status int, v any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// writeDomainError maps sentinel errors to status codes; anything else is a 500
// whose details stay in the log.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		zap.L().Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, r, status, "internal error")
		return
	}
	writeError(w, r, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidCoordinate),
		errors.Is(err, domain.ErrInvalidCenterRecord):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrUnknownCenter),
		errors.Is(err, domain.ErrControllerClosed),
		errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrPositionAlreadySet):
		return http.StatusConflict
	case errors.Is(err, domain.ErrClassifierUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads exactly one JSON object with no unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}
	return true
}

func toLatLon(c domain.Coordinates) dto.LatLon {
	return dto.LatLon{Latitude: c.Lat, Longitude: c.Lon}
}

func toLatLonPtr(c *domain.Coordinates) *dto.LatLon {
	if c == nil {
		return nil
	}
	ll := toLatLon(*c)
	return &ll
}

func toCenterResponse(c domain.Center) dto.CenterResponse {
	return dto.CenterResponse{
		Name:        c.Name,
		Address:     c.Address,
		Latitude:    c.Location.Lat,
		Longitude:   c.Location.Lon,
		ContactInfo: c.ContactInfo,
	}
}

func toRankedResponses(ranked []domain.RankedCenter) []dto.RankedCenterResponse {
	out := make([]dto.RankedCenterResponse, 0, len(ranked))
	for i, rc := range ranked {
		out = append(out, dto.RankedCenterResponse{
			Rank:           i + 1,
			CenterResponse: toCenterResponse(rc.Center),
			DistanceKm:     rc.DistanceKm,
		})
	}
	return out
}
