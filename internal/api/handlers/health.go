package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"scwm-service/internal/ports"
)

type HealthHandler struct {
	Store ports.Pinger
	// StoreName is reported in the database field, e.g. "sqlite".
	StoreName string
}

// Health runs a trivial query through the store.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]any{
			"status":   "offline",
			"database": "not configured",
		})
		return
	}

	one, err := h.Store.Ping(r.Context())
	if err != nil {
		zap.L().Warn("health check failed", zap.Error(err))
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]any{
			"status":   "offline",
			"database": "disconnected",
			"error":    err.Error(),
		})
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":       "online",
		"database":     h.StoreName + " connected",
		"data_flow":    "active",
		"query_result": one,
	})
}
