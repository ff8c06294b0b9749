package handlers

import (
	"math"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"scwm-service/internal/adapters/geolocation"
	"scwm-service/internal/api/dto"
	"scwm-service/internal/domain"
	"scwm-service/internal/geo"
	"scwm-service/internal/ports"
	"scwm-service/internal/proximity"
	"scwm-service/internal/services"
)

// SessionHandler exposes map sessions: one proximity controller per
// visitor, driven by position / select / recenter events.
type SessionHandler struct {
	Manager  *services.SessionManager
	Geocoder ports.Geocoder
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	s, err := h.Manager.Create(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.CreateSessionResponse{SessionID: s.ID})
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	snap := s.Snapshot()
	if r.URL.Query().Get("format") == "geojson" {
		fc := geo.FeatureCollection(snap.Ranked)
		if snap.Route != nil && snap.Route.Route != nil {
			fc.Features = append(fc.Features, geo.RouteFeature(*snap.Route.Route))
		}
		writeTyped(w, r, "application/geo+json", http.StatusOK, fc)
		return
	}
	writeJSON(w, r, http.StatusOK, toSessionResponse(snap))
}

// Position reports the user's location once per session.
func (h *SessionHandler) Position(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req dto.PositionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var g ports.Geolocator
	switch {
	case strings.TrimSpace(req.Error) != "":
		g = geolocation.Unavailable{Reason: strings.TrimSpace(req.Error)}
	case req.Latitude != nil && req.Longitude != nil:
		pos := domain.Coordinates{Lat: *req.Latitude, Lon: *req.Longitude}
		if err := pos.Validate(); err != nil {
			writeDomainError(w, r, err)
			return
		}
		g = geolocation.Static{Position: pos}
	case strings.TrimSpace(req.Address) != "":
		g = geolocation.Geocoded{Geocoder: h.Geocoder, Address: req.Address}
	default:
		writeError(w, r, http.StatusBadRequest, "one of latitude/longitude, address or error is required")
		return
	}

	if err := s.Locate(r.Context(), g); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toSessionResponse(s.Snapshot()))
}

func (h *SessionHandler) Select(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req dto.SelectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, r, http.StatusBadRequest, "name is required")
		return
	}

	if err := s.Controller.SelectCenterByName(req.Name); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toSessionResponse(s.Snapshot()))
}

func (h *SessionHandler) Recenter(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := s.Controller.RecenterOnUser(); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toSessionResponse(s.Snapshot()))
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Manager.Delete(chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*services.Session, bool) {
	s, err := h.Manager.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return nil, false
	}
	return s, true
}

func toSessionResponse(snap services.SessionSnapshot) dto.SessionResponse {
	out := dto.SessionResponse{
		SessionID:      snap.ID,
		LocationStatus: snap.Location.String(),
		UserPosition:   toLatLonPtr(snap.State.UserPosition),
		Selection:      dto.SelectionResponse{Kind: snap.State.Selection.Kind.String()},
		RoutingTarget:  toLatLonPtr(snap.State.RoutingTarget),
		Centers:        toRankedResponses(snap.Ranked),
	}

	if snap.State.Selection.Kind == proximity.CenterSelected {
		out.Selection.Center = snap.State.Selection.Center.Name
	}
	if t, ok := snap.State.Selection.Target(); ok {
		out.Selection.Target = toLatLonPtr(&t)
	}

	if snap.Camera != nil {
		out.Camera = &dto.CameraResponse{Target: toLatLon(snap.Camera.Target), Zoom: snap.Camera.Zoom}
	}

	if rv := snap.Route; rv != nil {
		route := &dto.RouteResponse{
			Status:      string(rv.Status),
			Origin:      toLatLon(rv.Origin),
			Destination: toLatLon(rv.Destination),
			Error:       rv.Error,
		}
		if rv.Route != nil {
			meters, seconds := rv.Route.DistanceMeters, rv.Route.DurationSeconds
			route.DistanceMeters = &meters
			route.DurationSeconds = &seconds
			route.Path = make([][2]float64, 0, len(rv.Route.Path))
			for _, c := range rv.Route.Path {
				route.Path = append(route.Path, [2]float64{round6(c.Lon), round6(c.Lat)})
			}
		}
		out.Route = route
	}

	return out
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
