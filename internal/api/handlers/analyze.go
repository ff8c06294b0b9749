package handlers

import (
	"errors"
	"net/http"

	"scwm-service/internal/api/dto"
	"scwm-service/internal/ports"
	"scwm-service/internal/services"
)

const notSavedNote = "Data not saved to DB due to connection error"

type AnalyzeHandler struct {
	Classifier     ports.Classifier
	Advisor        ports.Advisor
	Scans          ports.ScanRepository
	MaxUploadBytes int64
}

// Analyze accepts a multipart upload in field "file".
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, r, http.StatusBadRequest, "expected multipart form with a file field")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	res, err := services.AnalyzeScan(r.Context(),
		services.AnalyzeRequest{Filename: header.Filename, Image: file},
		h.Classifier, h.Advisor, h.Scans,
	)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := dto.AnalyzeResponse{
		WasteType:  res.WasteType,
		Confidence: res.Confidence,
		Advice:     res.Advice,
	}
	if res.Saved {
		id := res.ScanID
		out.ScanID = &id
	} else {
		out.Note = notSavedNote
	}
	writeJSON(w, r, http.StatusOK, out)
}
