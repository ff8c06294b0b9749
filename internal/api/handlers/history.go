package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"scwm-service/internal/api/dto"
	"scwm-service/internal/ports"
)

const historyLimit = 10

type HistoryHandler struct {
	Scans ports.ScanRepository
}

// List returns the most recent scans, newest first, or an empty array when
// the store is unreachable.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	scans, err := h.Scans.ListRecentScans(r.Context(), historyLimit)
	if err != nil {
		zap.L().Warn("list history failed", zap.Error(err))
		writeJSON(w, r, http.StatusOK, []dto.HistoryEntryResponse{})
		return
	}

	out := make([]dto.HistoryEntryResponse, 0, len(scans))
	for _, s := range scans {
		out = append(out, dto.HistoryEntryResponse{
			ID:           s.ID,
			WasteType:    s.WasteType,
			Confidence:   s.Confidence,
			Timestamp:    s.Timestamp,
			GeminiAdvice: s.Advice,
		})
	}
	writeJSON(w, r, http.StatusOK, out)
}
