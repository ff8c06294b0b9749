package classifier

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scwm-service/internal/domain"
	"scwm-service/internal/ports"
)

func TestHTTPClassifierPostsMultipart(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()

		body, _ := io.ReadAll(f)
		assert.Equal(t, "rubble.jpg", hdr.Filename)
		assert.Equal(t, "fake-jpeg", string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"detections":[{"label":"Concrete","confidence":0.91},{"label":"Brick","confidence":0.42}]}`)
	}))
	defer ts.Close()

	c := NewHTTPClassifier(ts.URL, 0)
	got, err := c.Classify(context.Background(), "rubble.jpg", strings.NewReader("fake-jpeg"))
	require.NoError(t, err)
	assert.Equal(t, []ports.Detection{
		{Label: "Concrete", Confidence: 0.91},
		{Label: "Brick", Confidence: 0.42},
	}, got)
}

func TestHTTPClassifierUpstreamFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := NewHTTPClassifier(ts.URL, 0).Classify(context.Background(), "a.jpg", strings.NewReader("x"))
	assert.ErrorIs(t, err, domain.ErrClassifierUnavailable)
	assert.Contains(t, err.Error(), "500")
}

func TestHTTPClassifierMalformedResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `not json`)
	}))
	defer ts.Close()

	_, err := NewHTTPClassifier(ts.URL, 0).Classify(context.Background(), "a.jpg", strings.NewReader("x"))
	assert.Error(t, err)
}
