package dto

import "time"

type AnalyzeResponse struct {
	ScanID     *int64  `json:"scan_id,omitempty"`
	WasteType  string  `json:"waste_type"`
	Confidence float64 `json:"confidence"`
	Advice     string  `json:"advice"`
	Note       string  `json:"note,omitempty"`
}

type HistoryEntryResponse struct {
	ID           int64     `json:"id"`
	WasteType    string    `json:"waste_type"`
	Confidence   float64   `json:"confidence"`
	Timestamp    time.Time `json:"timestamp"`
	GeminiAdvice string    `json:"gemini_advice"`
}
