package orchestrator

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/safe-route/internal/mapview"
	"github.com/ukydev/safe-route/internal/models"
	"github.com/ukydev/safe-route/internal/render"
	"github.com/ukydev/safe-route/internal/routing"
)

var (
	delhi  = models.Candidate{Coordinate: models.Coordinate{Lat: 28.6139, Lon: 77.2090}, DisplayName: "New Delhi"}
	noida  = models.Candidate{Coordinate: models.Coordinate{Lat: 28.5355, Lon: 77.3910}, DisplayName: "Noida"}
	path   = []models.Coordinate{{Lat: 28.6139, Lon: 77.2090}, {Lat: 28.58, Lon: 77.30}, {Lat: 28.5355, Lon: 77.3910}}
	scored = &models.ScoredRoute{Waypoints: path, Scores: []float64{0.1, 0.7}}
)

type fakeGeocoder struct {
	mu      sync.Mutex
	calls   int
	results map[string][]models.Candidate
	err     error
}

func (g *fakeGeocoder) Geocode(ctx context.Context, query string) ([]models.Candidate, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.results[query], nil
}

func (g *fakeGeocoder) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// fakeEngine answers each request from its own goroutine. A respond func that
// returns false never answers.
type fakeEngine struct {
	mu      sync.Mutex
	calls   int
	respond func(id string) (routing.RoutesFound, bool)
}

func (e *fakeEngine) Request(ctx context.Context, id string, start, end models.Coordinate) <-chan routing.RoutesFound {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	ch := make(chan routing.RoutesFound, 1)
	go func() {
		ev, ok := e.respond(id)
		if !ok {
			return
		}
		ch <- ev
		close(ch)
	}()
	return ch
}

func (e *fakeEngine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func routeOK(id string) (routing.RoutesFound, bool) {
	return routing.RoutesFound{
		RequestID: id,
		Routes: []routing.Route{
			{Coordinates: path, DistanceM: 21000},
			{Coordinates: path[:2], DistanceM: 30000},
		},
	}, true
}

type MockScorer struct {
	mock.Mock
}

func (m *MockScorer) ScoreRoute(ctx context.Context, waypoints []models.Coordinate) (*models.ScoredRoute, error) {
	args := m.Called(ctx, waypoints)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScoredRoute), args.Error(1)
}

type fixture struct {
	geocoder *fakeGeocoder
	engine   *fakeEngine
	scorer   *MockScorer
	board    *mapview.Board
	orch     *Orchestrator

	mu     sync.Mutex
	events []mapview.Event
}

func newFixture(t *testing.T, timeout time.Duration) *fixture {
	t.Helper()
	f := &fixture{
		geocoder: &fakeGeocoder{results: map[string][]models.Candidate{
			"New Delhi": {delhi},
			"Noida":     {noida},
		}},
		engine: &fakeEngine{respond: routeOK},
		scorer: new(MockScorer),
		board:  mapview.NewBoard(),
	}
	f.board.Subscribe(func(ev mapview.Event) {
		f.mu.Lock()
		f.events = append(f.events, ev)
		f.mu.Unlock()
	})
	f.orch = New(Config{
		Geocoder: f.geocoder,
		Engine:   f.engine,
		Scorer:   f.scorer,
		Surface:  f.board,
		Panel:    f.board,
		Timeout:  timeout,
	})
	return f
}

func (f *fixture) busyEvents() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []bool
	for _, ev := range f.events {
		if ev.Type == mapview.EventBusy {
			out = append(out, ev.Busy)
		}
	}
	return out
}

func (f *fixture) statusEvents() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, ev := range f.events {
		if ev.Type == mapview.EventStatus {
			out = append(out, ev.Status)
		}
	}
	return out
}

// barrierGeocoder answers only once two lookups are in flight together.
type barrierGeocoder struct {
	results map[string][]models.Candidate

	mu      sync.Mutex
	arrived int
	both    chan struct{}
}

func (g *barrierGeocoder) Geocode(ctx context.Context, query string) ([]models.Candidate, error) {
	g.mu.Lock()
	g.arrived++
	if g.arrived == 2 {
		close(g.both)
	}
	g.mu.Unlock()

	select {
	case <-g.both:
		return g.results[query], nil
	case <-time.After(time.Second):
		return nil, errors.New("lookups were not in flight together")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestFindAndAnalyzeRoute_Success(t *testing.T) {
	f := newFixture(t, 0)
	f.scorer.On("ScoreRoute", mock.Anything, path).Return(scored, nil).Once()

	res, err := f.orch.FindAndAnalyzeRoute(context.Background(), "  New Delhi ", "Noida")
	require.NoError(t, err)

	assert.NotEmpty(t, res.InvocationID)
	assert.Equal(t, delhi, res.Start)
	assert.Equal(t, noida, res.End)
	require.Len(t, res.Segments, 2)
	assert.Equal(t, render.Safer, res.Segments[0].Band)
	assert.Equal(t, render.Higher, res.Segments[1].Band)
	assert.InDelta(t, 28.6139, res.Bounds.North, 1e-9)
	assert.InDelta(t, 77.3910, res.Bounds.East, 1e-9)

	assert.Equal(t, StatusComplete, f.board.Status())
	assert.False(t, f.board.Busy())
	assert.Equal(t, 2, f.board.Count(mapview.KindMarker))
	assert.Equal(t, 1, f.board.Count(mapview.KindRoutingControl))
	assert.Equal(t, 1, f.board.Count(mapview.KindSegments))
	assert.NotNil(t, f.board.Snapshot().Bounds)
	assert.Equal(t, []bool{true, false}, f.busyEvents())
	f.scorer.AssertExpectations(t)

	for _, lv := range f.board.Snapshot().Layers {
		if rc, ok := lv.Layer.(mapview.RoutingControl); ok {
			assert.Equal(t, res.InvocationID, rc.RequestID)
			assert.Zero(t, rc.Opacity)
		}
	}
}

func TestFindAndAnalyzeRoute_GeocodesBothEndpointsConcurrently(t *testing.T) {
	f := newFixture(t, 0)
	f.orch.geocoder = &barrierGeocoder{results: f.geocoder.results, both: make(chan struct{})}
	f.scorer.On("ScoreRoute", mock.Anything, path).Return(scored, nil).Once()

	res, err := f.orch.FindAndAnalyzeRoute(context.Background(), "New Delhi", "Noida")
	require.NoError(t, err)
	assert.Equal(t, delhi, res.Start)
	assert.Equal(t, noida, res.End)
	assert.Equal(t, []string{StatusFinding, StatusAnalyzing, StatusComplete}, f.statusEvents())
}

func TestFindAndAnalyzeRoute_EmptyInput(t *testing.T) {
	for _, tc := range []struct{ start, end string }{
		{"", "Noida"},
		{"New Delhi", "   "},
		{"", ""},
	} {
		f := newFixture(t, 0)
		_, err := f.orch.FindAndAnalyzeRoute(context.Background(), tc.start, tc.end)
		assert.ErrorIs(t, err, models.ErrMissingInput)
		assert.Equal(t, StatusMissingInput, f.board.Status())
		assert.Zero(t, f.geocoder.Calls())
		assert.Zero(t, f.engine.Calls())
		assert.Empty(t, f.busyEvents())
		f.scorer.AssertNotCalled(t, "ScoreRoute", mock.Anything, mock.Anything)
	}
}

func TestFindAndAnalyzeRoute_LocationNotFound(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.orch.FindAndAnalyzeRoute(context.Background(), "New Delhi", "Atlantis")
	assert.ErrorIs(t, err, models.ErrLocationNotFound)
	assert.Equal(t, "Error: "+models.ErrLocationNotFound.Error(), f.board.Status())
	assert.Equal(t, 2, f.geocoder.Calls())
	assert.Zero(t, f.engine.Calls())
	assert.Zero(t, f.board.Count(mapview.KindMarker))
	assert.False(t, f.board.Busy())
	f.scorer.AssertNotCalled(t, "ScoreRoute", mock.Anything, mock.Anything)
}

func TestFindAndAnalyzeRoute_GeocodingFailure(t *testing.T) {
	f := newFixture(t, 0)
	f.geocoder.err = &models.ServiceError{Stage: "geocoding", StatusCode: http.StatusServiceUnavailable}

	_, err := f.orch.FindAndAnalyzeRoute(context.Background(), "New Delhi", "Noida")
	var svcErr *models.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "Error: geocoding failed with status 503", f.board.Status())
	assert.Zero(t, f.engine.Calls())
	assert.False(t, f.board.Busy())
}

func TestFindAndAnalyzeRoute_RepeatedSearchesReplaceOverlays(t *testing.T) {
	f := newFixture(t, 0)
	f.scorer.On("ScoreRoute", mock.Anything, path).Return(scored, nil)

	for i := 0; i < 3; i++ {
		_, err := f.orch.FindAndAnalyzeRoute(context.Background(), "New Delhi", "Noida")
		require.NoError(t, err)
		assert.Equal(t, 2, f.board.Count(mapview.KindMarker))
		assert.Equal(t, 1, f.board.Count(mapview.KindRoutingControl))
		assert.Equal(t, 1, f.board.Count(mapview.KindSegments))
	}
	assert.Len(t, f.board.Snapshot().Layers, 4)
}

func TestFindAndAnalyzeRoute_FailureAfterSuccessClearsOldRoute(t *testing.T) {
	f := newFixture(t, 0)
	f.scorer.On("ScoreRoute", mock.Anything, path).Return(scored, nil)

	_, err := f.orch.FindAndAnalyzeRoute(context.Background(), "New Delhi", "Noida")
	require.NoError(t, err)

	_, err = f.orch.FindAndAnalyzeRoute(context.Background(), "New Delhi", "Atlantis")
	require.Error(t, err)
	assert.Empty(t, f.board.Snapshot().Layers)
}

func TestFindAndAnalyzeRoute_ScoringFailureKeepsMarkers(t *testing.T) {
	f := newFixture(t, 0)
	f.scorer.On("ScoreRoute", mock.Anything, path).
		Return(nil, &models.ServiceError{Stage: "backend analysis", StatusCode: http.StatusInternalServerError}).Once()

	_, err := f.orch.FindAndAnalyzeRoute(context.Background(), "New Delhi", "Noida")
	require.Error(t, err)

	assert.Equal(t, 2, f.board.Count(mapview.KindMarker))
	assert.Zero(t, f.board.Count(mapview.KindSegments))
	assert.True(t, strings.HasPrefix(f.board.Status(), "Error: "))
	assert.Contains(t, f.board.Status(), "failed")
	assert.False(t, f.board.Busy())
	assert.Equal(t, []bool{true, false}, f.busyEvents())
}

func TestFindAndAnalyzeRoute_MalformedScoringResponse(t *testing.T) {
	f := newFixture(t, 0)
	f.scorer.On("ScoreRoute", mock.Anything, path).
		Return(nil, models.Malformed("backend analysis", "missing safety_scores")).Once()

	_, err := f.orch.FindAndAnalyzeRoute(context.Background(), "New Delhi", "Noida")
	assert.ErrorIs(t, err, models.ErrMalformedResponse)
	assert.Zero(t, f.board.Count(mapview.KindSegments))
	assert.False(t, f.board.Busy())
}

func TestFindAndAnalyzeRoute_UsesScorerWaypoints(t *testing.T) {
	f := newFixture(t, 0)
	simplified := &models.ScoredRoute{
		Waypoints: []models.Coordinate{path[0], path[2]},
		Scores:    []float64{0.45},
	}
	f.scorer.On("ScoreRoute", mock.Anything, path).Return(simplified, nil).Once()

	res, err := f.orch.FindAndAnalyzeRoute(context.Background(), "New Delhi", "Noida")
	require.NoError(t, err)
	require.Len(t, res.Segments, 1)
	assert.Equal(t, path[0], res.Segments[0].From)
	assert.Equal(t, path[2], res.Segments[0].To)
	assert.Equal(t, render.Moderate, res.Segments[0].Band)
}

func TestFindAndAnalyzeRoute_ScoreCountMismatchTruncates(t *testing.T) {
	f := newFixture(t, 0)
	extra := &models.ScoredRoute{Waypoints: path, Scores: []float64{0.1, 0.2, 0.9}}
	f.scorer.On("ScoreRoute", mock.Anything, path).Return(extra, nil).Once()

	res, err := f.orch.FindAndAnalyzeRoute(context.Background(), "New Delhi", "Noida")
	require.NoError(t, err)
	assert.Len(t, res.Segments, 2)
}

func TestFindAndAnalyzeRoute_RoutingErrors(t *testing.T) {
	t.Run("no route", func(t *testing.T) {
		f := newFixture(t, 0)
		f.engine.respond = func(id string) (routing.RoutesFound, bool) {
			return routing.RoutesFound{RequestID: id, Err: models.ErrNoRoute}, true
		}
		_, err := f.orch.FindAndAnalyzeRoute(context.Background(), "New Delhi", "Noida")
		assert.ErrorIs(t, err, models.ErrNoRoute)
		assert.Equal(t, 2, f.board.Count(mapview.KindMarker))
		f.scorer.AssertNotCalled(t, "ScoreRoute", mock.Anything, mock.Anything)
	})

	t.Run("stale request id", func(t *testing.T) {
		f := newFixture(t, 0)
		f.engine.respond = func(id string) (routing.RoutesFound, bool) {
			ev, ok := routeOK("previous-" + id)
			return ev, ok
		}
		_, err := f.orch.FindAndAnalyzeRoute(context.Background(), "New Delhi", "Noida")
		assert.ErrorIs(t, err, models.ErrMalformedResponse)
		assert.Zero(t, f.board.Count(mapview.KindSegments))
		f.scorer.AssertNotCalled(t, "ScoreRoute", mock.Anything, mock.Anything)
	})
}

func TestFindAndAnalyzeRoute_TimeoutReleasesBusy(t *testing.T) {
	f := newFixture(t, 50*time.Millisecond)
	f.engine.respond = func(string) (routing.RoutesFound, bool) { return routing.RoutesFound{}, false }

	_, err := f.orch.FindAndAnalyzeRoute(context.Background(), "New Delhi", "Noida")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, f.board.Status(), "deadline exceeded")
	assert.False(t, f.board.Busy())
	assert.False(t, f.orch.Busy())
}

func TestFindAndAnalyzeRoute_RejectsConcurrentCall(t *testing.T) {
	f := newFixture(t, 0)
	release := make(chan struct{})
	f.engine.respond = func(id string) (routing.RoutesFound, bool) {
		<-release
		return routeOK(id)
	}
	f.scorer.On("ScoreRoute", mock.Anything, path).Return(scored, nil).Once()

	done := make(chan error, 1)
	go func() {
		_, err := f.orch.FindAndAnalyzeRoute(context.Background(), "New Delhi", "Noida")
		done <- err
	}()
	require.Eventually(t, func() bool { return f.engine.Calls() == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, f.orch.Busy())
	assert.Equal(t, mapview.ButtonBusy, f.board.Snapshot().ButtonLabel)

	_, err := f.orch.FindAndAnalyzeRoute(context.Background(), "New Delhi", "Noida")
	assert.ErrorIs(t, err, models.ErrBusy)

	_, err = f.orch.FindAndAnalyzeRoute(context.Background(), "", "Noida")
	assert.ErrorIs(t, err, models.ErrBusy)
	assert.Equal(t, StatusFinding, f.board.Status())

	close(release)
	require.NoError(t, <-done)
	assert.False(t, f.orch.Busy())
	assert.Equal(t, mapview.ButtonIdle, f.board.Snapshot().ButtonLabel)
	assert.Equal(t, 1, f.engine.Calls())
}

type panickyScorer struct{}

func (panickyScorer) ScoreRoute(context.Context, []models.Coordinate) (*models.ScoredRoute, error) {
	panic("boom")
}

func TestFindAndAnalyzeRoute_PanicIsReported(t *testing.T) {
	f := newFixture(t, 0)
	f.orch.scorer = panickyScorer{}

	_, err := f.orch.FindAndAnalyzeRoute(context.Background(), "New Delhi", "Noida")
	require.Error(t, err)
	assert.False(t, errors.Is(err, models.ErrBusy))
	assert.Equal(t, "Error: internal error: boom", f.board.Status())
	assert.False(t, f.board.Busy())
}
