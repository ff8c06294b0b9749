// Package classifier talks to the image detection service.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"scwm-service/internal/domain"
	"scwm-service/internal/platform/obs"
	"scwm-service/internal/ports"
)

type detectResponse struct {
	Detections []struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	} `json:"detections"`
}

// HTTPClassifier posts the image as multipart form field "file" to a
// detection endpoint returning {"detections":[{"label","confidence"}]}.
type HTTPClassifier struct {
	endpoint   string
	httpClient *http.Client
}

func NewHTTPClassifier(endpoint string, timeout time.Duration) *HTTPClassifier {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClassifier{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClassifier) Classify(ctx context.Context, filename string, image io.Reader) (_ []ports.Detection, err error) {
	defer obs.Time(ctx, "classifier.Classify")(&err)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, eris.Wrap(err, "classify: create form file")
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, eris.Wrap(err, "classify: copy image")
	}
	if err := writer.Close(); err != nil {
		return nil, eris.Wrap(err, "classify: close writer")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &buf)
	if err != nil {
		return nil, eris.Wrap(err, "classify: build request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrapf(domain.ErrClassifierUnavailable, "classify: request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, eris.Wrapf(domain.ErrClassifierUnavailable, "classify: status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var decoded detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, eris.Wrap(err, "classify: decode response")
	}

	out := make([]ports.Detection, 0, len(decoded.Detections))
	for _, d := range decoded.Detections {
		out = append(out, ports.Detection{Label: d.Label, Confidence: d.Confidence})
	}
	return out, nil
}
