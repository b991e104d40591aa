package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/strollscribe/service-walkroute/internal/domain/walk"
	"github.com/strollscribe/service-walkroute/internal/geo"
)

// --- Fakes ---

type fakeExtractor struct {
	mu      sync.Mutex
	outputs map[string]string
	err     error
	blockOn string
	release chan struct{}
	calls   int
}

func (f *fakeExtractor) ExtractPlaces(_ context.Context, text string) (string, error) {
	f.mu.Lock()
	f.calls++
	blockOn, release := f.blockOn, f.release
	f.mu.Unlock()
	if release != nil && text == blockOn {
		<-release
	}
	if f.err != nil {
		return "", f.err
	}
	return f.outputs[text], nil
}

type fakeGeocoder struct {
	mu     sync.Mutex
	coords map[string]walk.Coordinate
	err    error
	placed []string
}

func (f *fakeGeocoder) Geocode(_ context.Context, place string) (walk.Coordinate, error) {
	f.mu.Lock()
	f.placed = append(f.placed, place)
	f.mu.Unlock()
	if f.err != nil {
		return walk.Coordinate{}, f.err
	}
	c, ok := f.coords[place]
	if !ok {
		return walk.Coordinate{}, walk.NewNotFoundError(place)
	}
	return c, nil
}

func (f *fakeGeocoder) places() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.placed...)
}

type fakePlanner struct {
	trip walk.Trip
	err  error
}

func (f *fakePlanner) PlanRoute(context.Context, walk.Coordinate, walk.Coordinate) (walk.Trip, error) {
	if f.err != nil {
		return walk.Trip{}, f.err
	}
	return f.trip, nil
}

type fakeImagery struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (f *fakeImagery) ResolveImage(context.Context, []walk.Coordinate) (walk.EncodedImage, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return walk.EncodedImage{}, f.err
	}
	return walk.EncodedImage{MediaType: "image/png", Data: "aGVsbG8="}, nil
}

func (f *fakeImagery) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeExplainer struct {
	scene string
	err   error
}

func (f *fakeExplainer) ExplainScene(context.Context, string, walk.EncodedImage) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.scene, nil
}

// --- Helpers ---

var testShape = geo.EncodePolyline([]walk.Coordinate{
	{Lat: 35.681391, Lon: 139.766103},
	{Lat: 35.658034, Lon: 139.701636},
})

type stack struct {
	extractor *fakeExtractor
	geocoder  *fakeGeocoder
	planner   *fakePlanner
	imagery   *fakeImagery
	explainer *fakeExplainer
	service   *WalkService
}

func newStack(tripSeconds float64) *stack {
	st := &stack{
		extractor: &fakeExtractor{outputs: map[string]string{
			"from Tokyo Station to Shibuya Station": "Tokyo Station\nShibuya Station",
		}},
		geocoder: &fakeGeocoder{coords: map[string]walk.Coordinate{
			"Tokyo Station":   {Lat: 35.681391, Lon: 139.766103},
			"Shibuya Station": {Lat: 35.658034, Lon: 139.701636},
		}},
		planner:   &fakePlanner{trip: walk.Trip{DurationSeconds: tripSeconds, Shape: testShape}},
		imagery:   &fakeImagery{},
		explainer: &fakeExplainer{scene: "A quiet walk past the Imperial Palace gardens."},
	}
	st.service = NewWalkService(st.extractor, st.geocoder, st.planner, st.imagery, st.explainer, 3600, zap.NewNop())
	return st
}

func waitForTerminal(t *testing.T, s *WalkService) walk.RunSnapshot {
	t.Helper()
	var snap walk.RunSnapshot
	require.Eventually(t, func() bool {
		var ok bool
		snap, ok = s.Current()
		return ok && snap.State.IsTerminal()
	}, 5*time.Second, 10*time.Millisecond)
	return snap
}

// --- Tests ---

func TestSubmit_HappyPathReachesDone(t *testing.T) {
	st := newStack(1800)

	_, err := st.service.Submit("from Tokyo Station to Shibuya Station")
	require.NoError(t, err)

	snap := waitForTerminal(t, st.service)
	assert.Equal(t, walk.StateDone, snap.State)
	assert.Equal(t, "Tokyo Station", snap.DepartureName)
	assert.Equal(t, "Shibuya Station", snap.DestinationName)
	require.NotNil(t, snap.Route)
	assert.Equal(t, 1800.0, snap.Route.DurationSeconds)
	assert.GreaterOrEqual(t, len(snap.Route.Path), 2)
	assert.NotEmpty(t, snap.Scene)

	// Status events are appended in program order.
	for i, evt := range snap.Events {
		assert.Equal(t, i, evt.Seq)
	}
	assert.Equal(t, []string{"Tokyo Station", "Shibuya Station"}, st.geocoder.places())
}

func TestSubmit_EmptyTextRejected(t *testing.T) {
	st := newStack(1800)
	_, err := st.service.Submit("   \n ")
	require.Error(t, err)
	assert.Equal(t, walk.ErrParse, walk.KindOf(err))

	_, ok := st.service.Current()
	assert.False(t, ok, "a rejected submission must not create a run")
}

func TestSubmit_ThreeLinesIsParseError(t *testing.T) {
	st := newStack(1800)
	st.extractor.outputs["odd request"] = "Tokyo Station\nShibuya Station\nUeno Station"

	_, err := st.service.Submit("odd request")
	require.NoError(t, err)

	snap := waitForTerminal(t, st.service)
	assert.Equal(t, walk.StateError, snap.State)
	assert.Equal(t, walk.ErrParse, snap.Failure)
	assert.Empty(t, st.geocoder.places(), "geocoding must never start after a parse error")
}

func TestSubmit_TwoLinesWithTrailingBlankAccepted(t *testing.T) {
	st := newStack(1800)
	st.extractor.outputs["trailing blank"] = "Tokyo Station\nShibuya Station\n\n"

	_, err := st.service.Submit("trailing blank")
	require.NoError(t, err)

	snap := waitForTerminal(t, st.service)
	assert.Equal(t, walk.StateDone, snap.State)
	assert.Equal(t, "Tokyo Station", snap.DepartureName)
	assert.Equal(t, "Shibuya Station", snap.DestinationName)
}

func TestSubmit_GeocodeMissReportsNotFound(t *testing.T) {
	st := newStack(1800)
	delete(st.geocoder.coords, "Shibuya Station")

	_, err := st.service.Submit("from Tokyo Station to Shibuya Station")
	require.NoError(t, err)

	snap := waitForTerminal(t, st.service)
	assert.Equal(t, walk.StateError, snap.State)
	assert.Equal(t, walk.ErrNotFound, snap.Failure)
	assert.Nil(t, snap.Route, "route must stay unset after a geocoding failure")
	// Partial results stay visible.
	assert.Equal(t, "Tokyo Station", snap.DepartureName)
	assert.Equal(t, "Shibuya Station", snap.DestinationName)
}

func TestSubmit_RouteNotFound(t *testing.T) {
	st := newStack(1800)
	st.planner.err = walk.NewRouteNotFoundError("no usable leg")

	_, err := st.service.Submit("from Tokyo Station to Shibuya Station")
	require.NoError(t, err)

	snap := waitForTerminal(t, st.service)
	assert.Equal(t, walk.StateError, snap.State)
	assert.Equal(t, walk.ErrRouteNotFound, snap.Failure)
	assert.Equal(t, 0, st.imagery.callCount())
}

func TestSubmit_HaltsAboveMaxDuration(t *testing.T) {
	st := newStack(3601)

	_, err := st.service.Submit("from Tokyo Station to Shibuya Station")
	require.NoError(t, err)

	snap := waitForTerminal(t, st.service)
	assert.Equal(t, walk.StateHaltedTooLong, snap.State)
	assert.Equal(t, 0, st.imagery.callCount(), "imagery must not be fetched for halted runs")
	require.NotNil(t, snap.Route, "the too-long route itself stays inspectable")
	assert.Empty(t, snap.Scene)
}

func TestSubmit_ExactlyMaxDurationProceeds(t *testing.T) {
	st := newStack(3600)

	_, err := st.service.Submit("from Tokyo Station to Shibuya Station")
	require.NoError(t, err)

	snap := waitForTerminal(t, st.service)
	assert.Equal(t, walk.StateDone, snap.State)
	assert.Equal(t, 1, st.imagery.callCount())
}

func TestSubmit_EmptyExplanationStillDone(t *testing.T) {
	st := newStack(1800)
	st.explainer.scene = ""

	_, err := st.service.Submit("from Tokyo Station to Shibuya Station")
	require.NoError(t, err)

	snap := waitForTerminal(t, st.service)
	assert.Equal(t, walk.StateDone, snap.State)
	assert.Empty(t, snap.Scene, "an empty explanation is not an error")
}

func TestSubmit_ImageryFetchFailure(t *testing.T) {
	st := newStack(1800)
	st.imagery.err = walk.NewFetchError("imagery returned status 502", nil)

	_, err := st.service.Submit("from Tokyo Station to Shibuya Station")
	require.NoError(t, err)

	snap := waitForTerminal(t, st.service)
	assert.Equal(t, walk.StateError, snap.State)
	assert.Equal(t, walk.ErrFetch, snap.Failure)
	assert.NotNil(t, snap.Route)
}

func TestSubmit_NewRunSupersedesInFlightRun(t *testing.T) {
	st := newStack(1800)
	st.extractor.outputs["stale walk"] = "Old Departure\nOld Destination"
	st.geocoder.coords["Old Departure"] = walk.Coordinate{Lat: 1, Lon: 1}
	st.geocoder.coords["Old Destination"] = walk.Coordinate{Lat: 2, Lon: 2}

	// The stale run blocks inside extraction until released.
	release := make(chan struct{})
	st.extractor.blockOn = "stale walk"
	st.extractor.release = release

	staleID, err := st.service.Submit("stale walk")
	require.NoError(t, err)

	freshID, err := st.service.Submit("from Tokyo Station to Shibuya Station")
	require.NoError(t, err)
	require.NotEqual(t, staleID, freshID)

	snap := waitForTerminal(t, st.service)
	require.Equal(t, freshID, snap.ID)
	assert.Equal(t, walk.StateDone, snap.State)

	// Let the stale run finish extraction; it must abandon before geocoding.
	close(release)
	require.Eventually(t, func() bool {
		return len(st.geocoder.places()) == 2
	}, 5*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, []string{"Tokyo Station", "Shibuya Station"}, st.geocoder.places(),
		"the superseded run must never reach geocoding")

	current, ok := st.service.Current()
	require.True(t, ok)
	assert.Equal(t, freshID, current.ID, "the stale run must not displace the current run")
	assert.Equal(t, walk.StateDone, current.State)
}

func TestSubscribe_ReceivesStatusEventsInOrder(t *testing.T) {
	st := newStack(1800)

	events, cancel := st.service.Subscribe()
	defer cancel()

	runID, err := st.service.Submit("from Tokyo Station to Shibuya Station")
	require.NoError(t, err)
	snap := waitForTerminal(t, st.service)

	var received []walk.StatusEvent
	timeout := time.After(time.Second)
	for len(received) < len(snap.Events) {
		select {
		case upd := <-events:
			assert.Equal(t, runID, upd.RunID)
			received = append(received, upd.StatusEvent)
		case <-timeout:
			t.Fatalf("received %d of %d events", len(received), len(snap.Events))
		}
	}
	assert.Equal(t, snap.Events, received)
}

func TestSplitPlaces(t *testing.T) {
	dep, dst, err := splitPlaces("Tokyo Station\nShibuya Station")
	require.NoError(t, err)
	assert.Equal(t, "Tokyo Station", dep)
	assert.Equal(t, "Shibuya Station", dst)

	_, _, err = splitPlaces("only one line")
	require.Error(t, err)
	assert.Equal(t, walk.ErrParse, walk.KindOf(err))

	_, _, err = splitPlaces("a\nb\nc")
	require.Error(t, err)
	assert.Equal(t, walk.ErrParse, walk.KindOf(err))

	_, _, err = splitPlaces("")
	require.Error(t, err)
}
