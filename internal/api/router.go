package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"scwm-service/internal/api/handlers"
	"scwm-service/internal/ports"
	"scwm-service/internal/services"
)

// Deps are the collaborators the HTTP layer needs. Classifier, Advisor and
// Geocoder may be nil.
type Deps struct {
	Centers    ports.CenterRepository
	Scans      ports.ScanRepository
	Store      ports.Pinger
	StoreName  string
	Classifier ports.Classifier
	Advisor    ports.Advisor
	Geocoder   ports.Geocoder
	Sessions   *services.SessionManager

	MaxUploadBytes int64
	AnalyzeLimit   RateLimitConfig
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	health := &handlers.HealthHandler{Store: d.Store, StoreName: d.StoreName}
	centers := &handlers.CenterHandler{Repo: d.Centers}
	history := &handlers.HistoryHandler{Scans: d.Scans}
	analyze := &handlers.AnalyzeHandler{
		Classifier:     d.Classifier,
		Advisor:        d.Advisor,
		Scans:          d.Scans,
		MaxUploadBytes: d.MaxUploadBytes,
	}
	sessions := &handlers.SessionHandler{Manager: d.Sessions, Geocoder: d.Geocoder}

	r.Get("/health", health.Health)
	r.Get("/centers", centers.List)
	r.Get("/centers/nearby", centers.Nearby)
	r.Get("/history", history.List)
	r.With(RateLimit(d.AnalyzeLimit)).Post("/analyze", analyze.Analyze)

	r.Route("/map/sessions", func(r chi.Router) {
		r.Post("/", sessions.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", sessions.Get)
			r.Delete("/", sessions.Delete)
			r.Post("/position", sessions.Position)
			r.Post("/select", sessions.Select)
			r.Post("/recenter", sessions.Recenter)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
