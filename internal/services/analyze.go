package services

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"scwm-service/internal/domain"
	"scwm-service/internal/platform/obs"
	"scwm-service/internal/ports"
)

const (
	UnknownWasteType = "Unknown"

	// Advice used when no advisor is configured.
	DefaultAdvice = "Recycle according to local construction guidelines."
	// Advice used when the advisor fails.
	FallbackAdvice = "Standard recovery protocol applies."
)

type AnalyzeRequest struct {
	Filename string
	Image    io.Reader
}

type AnalyzeResult struct {
	ScanID     int64
	WasteType  string
	Confidence float64
	Advice     string
	// Saved is false when the scan could not be persisted.
	Saved bool
}

// AnalyzeScan classifies an image, fetches disposal advice and records the
// scan. Only a classifier failure is fatal; advice and persistence degrade.
func AnalyzeScan(
	ctx context.Context,
	req AnalyzeRequest,
	classifier ports.Classifier,
	advisor ports.Advisor,
	scans ports.ScanRepository,
) (_ AnalyzeResult, err error) {
	defer obs.Time(ctx, "services.AnalyzeScan")(&err)

	if classifier == nil {
		return AnalyzeResult{}, domain.ErrClassifierUnavailable
	}

	detections, err := classifier.Classify(ctx, req.Filename, req.Image)
	if err != nil {
		return AnalyzeResult{}, eris.Wrap(err, "analyze scan: classify")
	}

	res := AnalyzeResult{WasteType: UnknownWasteType}
	if best, ok := bestDetection(detections); ok {
		res.WasteType = best.Label
		res.Confidence = best.Confidence
	}

	res.Advice = advise(ctx, advisor, res.WasteType)

	if scans != nil {
		id, err := scans.SaveScan(ctx, domain.Scan{
			WasteType:  res.WasteType,
			Confidence: res.Confidence,
			Advice:     res.Advice,
			Timestamp:  time.Now().UTC(),
		})
		if err != nil {
			zap.L().Warn("scan not saved", zap.String("waste_type", res.WasteType), zap.Error(err))
		} else {
			res.ScanID = id
			res.Saved = true
		}
	}

	obs.ScansTotal.WithLabelValues(res.WasteType, strconv.FormatBool(res.Saved)).Inc()
	return res, nil
}

func bestDetection(ds []ports.Detection) (ports.Detection, bool) {
	var best ports.Detection
	found := false
	for _, d := range ds {
		if strings.TrimSpace(d.Label) == "" {
			continue
		}
		if !found || d.Confidence > best.Confidence {
			best = d
			found = true
		}
	}
	return best, found
}

func advise(ctx context.Context, advisor ports.Advisor, wasteType string) string {
	if advisor == nil {
		return DefaultAdvice
	}

	advice, err := advisor.Advise(ctx, wasteType)
	if err != nil {
		zap.L().Warn("advisor failed, using fallback", zap.String("waste_type", wasteType), zap.Error(err))
		return FallbackAdvice
	}
	return advice
}
