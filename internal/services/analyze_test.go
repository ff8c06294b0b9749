package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"scwm-service/internal/domain"
	"scwm-service/internal/ports"
)

type mockClassifier struct{ mock.Mock }

func (m *mockClassifier) Classify(ctx context.Context, filename string, image io.Reader) ([]ports.Detection, error) {
	args := m.Called(ctx, filename, image)
	ds, _ := args.Get(0).([]ports.Detection)
	return ds, args.Error(1)
}

type mockAdvisor struct{ mock.Mock }

func (m *mockAdvisor) Advise(ctx context.Context, wasteType string) (string, error) {
	args := m.Called(ctx, wasteType)
	return args.String(0), args.Error(1)
}

type memScans struct {
	saved []domain.Scan
	err   error
}

func (m *memScans) SaveScan(_ context.Context, s domain.Scan) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.saved = append(m.saved, s)
	return int64(len(m.saved)), nil
}

func (m *memScans) ListRecentScans(context.Context, int) ([]domain.Scan, error) {
	return m.saved, m.err
}

func analyzeReq() AnalyzeRequest {
	return AnalyzeRequest{Filename: "pile.jpg", Image: strings.NewReader("jpeg")}
}

func TestAnalyzeScanPicksHighestConfidence(t *testing.T) {
	ctx := context.Background()
	cls := &mockClassifier{}
	cls.On("Classify", ctx, "pile.jpg", mock.Anything).Return([]ports.Detection{
		{Label: "Brick", Confidence: 0.41},
		{Label: "Concrete", Confidence: 0.88},
		{Label: "Wood", Confidence: 0.12},
	}, nil)
	adv := &mockAdvisor{}
	adv.On("Advise", ctx, "Concrete").Return("Crush and reuse as aggregate.", nil)
	scans := &memScans{}

	res, err := AnalyzeScan(ctx, analyzeReq(), cls, adv, scans)
	require.NoError(t, err)

	assert.Equal(t, "Concrete", res.WasteType)
	assert.InDelta(t, 0.88, res.Confidence, 1e-9)
	assert.Equal(t, "Crush and reuse as aggregate.", res.Advice)
	assert.True(t, res.Saved)
	assert.Equal(t, int64(1), res.ScanID)
	require.Len(t, scans.saved, 1)
	assert.Equal(t, "Concrete", scans.saved[0].WasteType)
	assert.False(t, scans.saved[0].Timestamp.IsZero())

	cls.AssertExpectations(t)
	adv.AssertExpectations(t)
}

func TestAnalyzeScanNothingDetected(t *testing.T) {
	ctx := context.Background()
	cls := &mockClassifier{}
	cls.On("Classify", ctx, "pile.jpg", mock.Anything).Return([]ports.Detection{}, nil)

	res, err := AnalyzeScan(ctx, analyzeReq(), cls, nil, &memScans{})
	require.NoError(t, err)
	assert.Equal(t, UnknownWasteType, res.WasteType)
	assert.Zero(t, res.Confidence)
	assert.Equal(t, DefaultAdvice, res.Advice)
}

func TestAnalyzeScanAdvisorFailure(t *testing.T) {
	ctx := context.Background()
	cls := &mockClassifier{}
	cls.On("Classify", ctx, "pile.jpg", mock.Anything).Return([]ports.Detection{{Label: "Wood", Confidence: 0.7}}, nil)
	adv := &mockAdvisor{}
	adv.On("Advise", ctx, "Wood").Return("", errors.New("quota exceeded"))

	res, err := AnalyzeScan(ctx, analyzeReq(), cls, adv, &memScans{})
	require.NoError(t, err)
	assert.Equal(t, FallbackAdvice, res.Advice)
}

func TestAnalyzeScanPersistenceFailureStillAnswers(t *testing.T) {
	ctx := context.Background()
	cls := &mockClassifier{}
	cls.On("Classify", ctx, "pile.jpg", mock.Anything).Return([]ports.Detection{{Label: "Steel", Confidence: 0.95}}, nil)

	res, err := AnalyzeScan(ctx, analyzeReq(), cls, nil, &memScans{err: errors.New("db down")})
	require.NoError(t, err)
	assert.Equal(t, "Steel", res.WasteType)
	assert.False(t, res.Saved)
	assert.Zero(t, res.ScanID)

	res, err = AnalyzeScan(ctx, analyzeReq(), cls, nil, nil)
	require.NoError(t, err)
	assert.False(t, res.Saved)
}

func TestAnalyzeScanClassifierErrors(t *testing.T) {
	ctx := context.Background()

	_, err := AnalyzeScan(ctx, analyzeReq(), nil, nil, nil)
	assert.ErrorIs(t, err, domain.ErrClassifierUnavailable)

	cls := &mockClassifier{}
	cls.On("Classify", ctx, "pile.jpg", mock.Anything).Return(nil, domain.ErrClassifierUnavailable)
	_, err = AnalyzeScan(ctx, analyzeReq(), cls, nil, nil)
	assert.ErrorIs(t, err, domain.ErrClassifierUnavailable)
}
