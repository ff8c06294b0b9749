package proximity

import (
	"context"
	"errors"
	"iter"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"scwm-service/internal/domain"
)

type mockRenderer struct {
	mock.Mock
}

func (m *mockRenderer) ShowRanking(view iter.Seq[domain.RankedCenter]) {
	m.Called(slices.Collect(view))
}

func (m *mockRenderer) FocusCamera(focus CameraFocus) {
	m.Called(focus)
}

func (m *mockRenderer) OpenRoute(origin, destination domain.Coordinates) RouteOverlay {
	args := m.Called(origin, destination)
	return args.Get(0).(RouteOverlay)
}

type fakeOverlay struct {
	released atomic.Int32
}

func (o *fakeOverlay) Release() { o.released.Add(1) }

type geolocatorFunc func(ctx context.Context) (domain.Coordinates, error)

func (f geolocatorFunc) Locate(ctx context.Context) (domain.Coordinates, error) { return f(ctx) }

func newRenderer() *mockRenderer {
	r := &mockRenderer{}
	r.On("ShowRanking", mock.Anything).Maybe()
	return r
}

var (
	centerA = domain.Center{Name: "A", Location: domain.Coordinates{Lat: 0, Lon: 0}}
	centerB = domain.Center{Name: "B", Location: domain.Coordinates{Lat: 0, Lon: 1}}
	origin  = domain.Coordinates{Lat: 0, Lon: 0}
)

func names(view iter.Seq[domain.RankedCenter]) []string {
	var out []string
	for rc := range view {
		out = append(out, rc.Name)
	}
	return out
}

func TestRankedViewEquatorScenario(t *testing.T) {
	r := newRenderer()
	c := New(r)

	require.NoError(t, c.SetCenters([]domain.Center{centerB, centerA}))
	require.NoError(t, c.SetUserPosition(origin))

	ranked := slices.Collect(c.RankedView())
	require.Len(t, ranked, 2)
	assert.Equal(t, "A", ranked[0].Name)
	assert.InDelta(t, 0.0, *ranked[0].DistanceKm, 1e-9)
	assert.Equal(t, "B", ranked[1].Name)
	assert.InDelta(t, 111.19, *ranked[1].DistanceKm, 0.01)
}

func TestRankedViewRestartableAndRecomputed(t *testing.T) {
	c := New(newRenderer())
	require.NoError(t, c.SetCenters([]domain.Center{centerB, centerA}))

	view := c.RankedView()
	assert.Equal(t, []string{"B", "A"}, names(view))

	require.NoError(t, c.SetUserPosition(origin))
	// Same sequence value, ranged again, reflects the new position.
	assert.Equal(t, []string{"A", "B"}, names(view))

	for rc := range view {
		assert.Equal(t, "A", rc.Name)
		break
	}
}

func TestRankedViewEmpty(t *testing.T) {
	c := New(newRenderer())
	assert.Empty(t, slices.Collect(c.RankedView()))

	require.NoError(t, c.SetCenters(nil))
	require.NoError(t, c.SetUserPosition(origin))
	assert.Empty(t, slices.Collect(c.RankedView()))
}

func TestShowRankingFiresOnRecompute(t *testing.T) {
	r := &mockRenderer{}
	r.On("ShowRanking", mock.MatchedBy(func(v []domain.RankedCenter) bool {
		return len(v) == 2 && v[0].DistanceKm == nil
	})).Once()
	r.On("ShowRanking", mock.MatchedBy(func(v []domain.RankedCenter) bool {
		return len(v) == 2 && v[0].Name == "A" && v[0].DistanceKm != nil
	})).Once()

	c := New(r)
	require.NoError(t, c.SetCenters([]domain.Center{centerB, centerA}))
	require.NoError(t, c.SetUserPosition(origin))

	r.AssertExpectations(t)
}

func TestSelectWithoutPositionSkipsRouting(t *testing.T) {
	r := newRenderer()
	r.On("FocusCamera", CameraFocus{Target: centerA.Location, Zoom: DefaultFocusZoom}).Once()

	c := New(r)
	require.NoError(t, c.SetCenters([]domain.Center{centerA}))

	ranked := slices.Collect(c.RankedView())
	require.Len(t, ranked, 1)
	assert.Nil(t, ranked[0].DistanceKm)

	require.NoError(t, c.SelectCenter(centerA))

	r.AssertExpectations(t)
	r.AssertNotCalled(t, "OpenRoute", mock.Anything, mock.Anything)

	st := c.State()
	assert.Equal(t, CenterSelected, st.Selection.Kind)
	require.NotNil(t, st.RoutingTarget)
	assert.Equal(t, centerA.Location, *st.RoutingTarget)
}

func TestPositionAfterSelectionDoesNotQueueRoute(t *testing.T) {
	r := newRenderer()
	r.On("FocusCamera", mock.Anything)

	c := New(r)
	require.NoError(t, c.SetCenters([]domain.Center{centerA, centerB}))
	require.NoError(t, c.SelectCenter(centerB))
	require.NoError(t, c.SetUserPosition(origin))

	r.AssertNotCalled(t, "OpenRoute", mock.Anything, mock.Anything)
}

func TestSelectCenterIsIdempotent(t *testing.T) {
	overlay := &fakeOverlay{}
	r := newRenderer()
	r.On("FocusCamera", mock.Anything).Once()
	r.On("OpenRoute", origin, centerB.Location).Return(overlay).Once()

	c := New(r)
	require.NoError(t, c.SetCenters([]domain.Center{centerA, centerB}))
	require.NoError(t, c.SetUserPosition(origin))

	require.NoError(t, c.SelectCenter(centerB))
	before := c.State()
	require.NoError(t, c.SelectCenter(centerB))
	require.NoError(t, c.SelectCenterByName("B"))

	r.AssertExpectations(t)
	r.AssertNumberOfCalls(t, "FocusCamera", 1)
	r.AssertNumberOfCalls(t, "OpenRoute", 1)
	assert.Equal(t, before, c.State())
	assert.Equal(t, int32(0), overlay.released.Load())
}

func TestSelectionDoesNotAlterRanking(t *testing.T) {
	r := newRenderer()
	r.On("FocusCamera", mock.Anything)
	r.On("OpenRoute", mock.Anything, mock.Anything).Return(&fakeOverlay{})

	c := New(r)
	require.NoError(t, c.SetCenters([]domain.Center{centerB, centerA}))
	require.NoError(t, c.SetUserPosition(origin))

	before := slices.Collect(c.RankedView())
	require.NoError(t, c.SelectCenter(centerB))
	assert.Equal(t, before, slices.Collect(c.RankedView()))
}

func TestSwitchingSelectionReleasesPreviousOverlay(t *testing.T) {
	first, second := &fakeOverlay{}, &fakeOverlay{}
	r := newRenderer()
	r.On("FocusCamera", mock.Anything)
	r.On("OpenRoute", origin, centerA.Location).Return(first).Once()
	r.On("OpenRoute", origin, centerB.Location).Return(second).Once()

	c := New(r)
	require.NoError(t, c.SetCenters([]domain.Center{centerA, centerB}))
	require.NoError(t, c.SetUserPosition(origin))

	require.NoError(t, c.SelectCenter(centerA))
	require.NoError(t, c.SelectCenter(centerB))

	assert.Equal(t, int32(1), first.released.Load())
	assert.Equal(t, int32(0), second.released.Load())

	c.Close()
	c.Close()
	assert.Equal(t, int32(1), second.released.Load())
	r.AssertExpectations(t)
}

func TestSelectUnknownCenter(t *testing.T) {
	r := newRenderer()
	c := New(r)
	require.NoError(t, c.SetCenters([]domain.Center{centerA}))

	err := c.SelectCenter(domain.Center{Name: "Nowhere"})
	assert.ErrorIs(t, err, domain.ErrUnknownCenter)
	assert.Equal(t, NoSelection, c.State().Selection.Kind)
	r.AssertNotCalled(t, "FocusCamera", mock.Anything)
}

func TestRecenterWithoutPositionIsNoop(t *testing.T) {
	r := newRenderer()
	r.On("FocusCamera", mock.Anything)

	c := New(r)
	require.NoError(t, c.SetCenters([]domain.Center{centerA}))
	require.NoError(t, c.SelectCenter(centerA))

	before := c.State()
	require.NoError(t, c.RecenterOnUser())

	assert.Equal(t, before, c.State())
	r.AssertNumberOfCalls(t, "FocusCamera", 1)
}

func TestRecenterOnUserClearsRoute(t *testing.T) {
	overlay := &fakeOverlay{}
	user := domain.Coordinates{Lat: 12.97, Lon: 77.59}
	r := newRenderer()
	r.On("FocusCamera", CameraFocus{Target: centerA.Location, Zoom: 12}).Once()
	r.On("FocusCamera", CameraFocus{Target: user, Zoom: 12}).Twice()
	r.On("OpenRoute", user, centerA.Location).Return(overlay).Once()

	c := New(r, WithFocusZoom(12))
	require.NoError(t, c.SetCenters([]domain.Center{centerA}))
	require.NoError(t, c.SetUserPosition(user))
	require.NoError(t, c.SelectCenter(centerA))

	require.NoError(t, c.RecenterOnUser())

	st := c.State()
	assert.Equal(t, SelfSelected, st.Selection.Kind)
	assert.Equal(t, user, st.Selection.Position)
	assert.Nil(t, st.RoutingTarget)
	assert.Equal(t, int32(1), overlay.released.Load())

	// Recentering again refocuses but never routes to self.
	require.NoError(t, c.RecenterOnUser())

	// Back to the center from Self is a real transition.
	r.On("FocusCamera", CameraFocus{Target: centerA.Location, Zoom: 12}).Once()
	r.On("OpenRoute", user, centerA.Location).Return(&fakeOverlay{}).Once()
	require.NoError(t, c.SelectCenter(centerA))

	r.AssertExpectations(t)
	r.AssertNumberOfCalls(t, "OpenRoute", 2)
}

func TestSetUserPositionOnce(t *testing.T) {
	c := New(newRenderer())

	err := c.SetUserPosition(domain.Coordinates{Lat: 95, Lon: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidCoordinate)
	assert.Nil(t, c.State().UserPosition)

	require.NoError(t, c.SetUserPosition(origin))
	err = c.SetUserPosition(domain.Coordinates{Lat: 1, Lon: 1})
	assert.ErrorIs(t, err, domain.ErrPositionAlreadySet)
	assert.Equal(t, origin, *c.State().UserPosition)
}

func TestSetCentersExcludesInvalid(t *testing.T) {
	c := New(newRenderer())

	err := c.SetCenters([]domain.Center{
		centerA,
		{Name: "Broken", Location: domain.Coordinates{Lat: 200, Lon: 0}},
		{Name: "", Location: domain.Coordinates{Lat: 1, Lon: 1}},
		centerB,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCenterRecord)
	assert.Equal(t, []string{"A", "B"}, names(c.RankedView()))
}

func TestLocateSuccess(t *testing.T) {
	c := New(newRenderer())
	require.NoError(t, c.SetCenters([]domain.Center{centerB, centerA}))
	assert.Equal(t, LocationPending, c.LocationStatus())

	<-c.Locate(context.Background(), geolocatorFunc(func(context.Context) (domain.Coordinates, error) {
		return origin, nil
	}))

	assert.Equal(t, LocationKnown, c.LocationStatus())
	assert.Equal(t, []string{"A", "B"}, names(c.RankedView()))

	// A second acquisition is never started.
	called := false
	<-c.Locate(context.Background(), geolocatorFunc(func(context.Context) (domain.Coordinates, error) {
		called = true
		return domain.Coordinates{Lat: 5, Lon: 5}, nil
	}))
	assert.False(t, called)
}

func TestLocateFailureFallsBackToUnknownDistance(t *testing.T) {
	r := newRenderer()
	r.On("FocusCamera", mock.Anything)
	c := New(r)
	require.NoError(t, c.SetCenters([]domain.Center{centerA}))

	<-c.Locate(context.Background(), geolocatorFunc(func(context.Context) (domain.Coordinates, error) {
		return domain.Coordinates{}, errors.New("user denied geolocation")
	}))

	assert.Equal(t, LocationUnavailable, c.LocationStatus())
	assert.Nil(t, c.State().UserPosition)

	// The controller keeps working.
	require.NoError(t, c.SelectCenter(centerA))
	require.NoError(t, c.RecenterOnUser())
	r.AssertNotCalled(t, "OpenRoute", mock.Anything, mock.Anything)
	for rc := range c.RankedView() {
		assert.Nil(t, rc.DistanceKm)
	}
}

func TestLocateAfterCloseIsDropped(t *testing.T) {
	r := newRenderer()
	c := New(r)
	require.NoError(t, c.SetCenters([]domain.Center{centerA}))

	release := make(chan struct{})
	done := c.Locate(context.Background(), geolocatorFunc(func(context.Context) (domain.Coordinates, error) {
		<-release
		return origin, nil
	}))

	c.Close()
	close(release)
	<-done

	assert.Nil(t, c.State().UserPosition)
	assert.Equal(t, LocationPending, c.LocationStatus())
	assert.ErrorIs(t, c.SelectCenter(centerA), domain.ErrControllerClosed)
	assert.ErrorIs(t, c.RecenterOnUser(), domain.ErrControllerClosed)
	assert.ErrorIs(t, c.SetCenters(nil), domain.ErrControllerClosed)
}

func TestLocateWhileInFlightSharesAttempt(t *testing.T) {
	c := New(newRenderer())
	require.NoError(t, c.SetCenters([]domain.Center{centerA}))

	release := make(chan struct{})
	var calls atomic.Int32
	g := geolocatorFunc(func(context.Context) (domain.Coordinates, error) {
		calls.Add(1)
		<-release
		return origin, nil
	})

	first, started := c.TryLocate(context.Background(), g)
	require.True(t, started)

	second, started := c.TryLocate(context.Background(), g)
	assert.False(t, started)

	select {
	case <-second:
		t.Fatal("second caller must wait for the running attempt")
	default:
	}

	close(release)
	<-first
	<-second

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, LocationKnown, c.LocationStatus())
	require.NotNil(t, c.State().UserPosition)
}

func TestLocateResultAfterDirectPositionIsDropped(t *testing.T) {
	c := New(newRenderer())
	require.NoError(t, c.SetCenters([]domain.Center{centerA}))

	release := make(chan struct{})
	done := c.Locate(context.Background(), geolocatorFunc(func(context.Context) (domain.Coordinates, error) {
		<-release
		return domain.Coordinates{Lat: 5, Lon: 5}, nil
	}))

	require.NoError(t, c.SetUserPosition(origin))
	close(release)
	<-done

	assert.Equal(t, LocationKnown, c.LocationStatus())
	require.NotNil(t, c.State().UserPosition)
	assert.Equal(t, origin, *c.State().UserPosition)
}

func TestSelectionKindString(t *testing.T) {
	assert.Equal(t, "none", NoSelection.String())
	assert.Equal(t, "self", SelfSelected.String())
	assert.Equal(t, "center", CenterSelected.String())
	assert.Equal(t, "unavailable", LocationUnavailable.String())
}
