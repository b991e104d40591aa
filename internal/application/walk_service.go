package application

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/strollscribe/service-walkroute/internal/domain/walk"
	"github.com/strollscribe/service-walkroute/internal/geo"
)

// statusBuffer is the channel depth for status subscribers. A subscriber
// that stops draining loses events rather than stalling the pipeline.
const statusBuffer = 64

// WalkService is the pipeline orchestrator. It owns the current run,
// sequences the stages (text → places → coordinates → route → imagery →
// explanation), enforces each stage's precondition and emits status events.
//
// Submission policy is last-run-wins: every Submit bumps a generation
// counter, and a run that is no longer current abandons before its next
// stage instead of overwriting fresher state.
type WalkService struct {
	extractor walk.PlaceExtractor
	geocoder  walk.Geocoder
	planner   walk.RoutePlanner
	imagery   walk.ImageryResolver
	explainer walk.SceneExplainer

	maxDurationSeconds float64
	logger             *zap.Logger

	mu          sync.RWMutex
	current     *walk.Run
	generation  uint64
	watchers    map[uint64]chan StatusUpdate
	nextWatcher uint64
}

// StatusUpdate is one streamed status event tagged with the run it belongs
// to. The tag lets a long-lived subscriber tell a new run's restarting
// sequence apart from the previous run's log.
type StatusUpdate struct {
	RunID uuid.UUID `json:"run_id"`
	walk.StatusEvent
}

// NewWalkService creates the orchestrator with its collaborators injected.
// maxDurationSeconds is the halt threshold: routes strictly longer than it
// never reach the imagery stage.
func NewWalkService(
	extractor walk.PlaceExtractor,
	geocoder walk.Geocoder,
	planner walk.RoutePlanner,
	imagery walk.ImageryResolver,
	explainer walk.SceneExplainer,
	maxDurationSeconds float64,
	logger *zap.Logger,
) *WalkService {
	return &WalkService{
		extractor:          extractor,
		geocoder:           geocoder,
		planner:            planner,
		imagery:            imagery,
		explainer:          explainer,
		maxDurationSeconds: maxDurationSeconds,
		logger:             logger,
		watchers:           make(map[uint64]chan StatusUpdate),
	}
}

// Submit starts a new pipeline run for the request text and returns its ID.
// The previous run, if still in flight, is superseded and abandons at its
// next stage boundary.
func (s *WalkService) Submit(text string) (uuid.UUID, error) {
	if strings.TrimSpace(text) == "" {
		return uuid.Nil, walk.NewParseError("request text is empty")
	}

	s.mu.Lock()
	s.generation++
	run := walk.NewRun(text, s.generation)
	s.current = run
	s.mu.Unlock()

	s.logger.Info("run submitted",
		zap.String("run_id", run.ID().String()),
		zap.Uint64("generation", run.Generation()),
	)

	// The run outlives the submitting HTTP request, so it gets its own
	// context. Abandonment happens through the generation check, not
	// through cancellation.
	go s.execute(context.Background(), run)
	return run.ID(), nil
}

// Current returns a snapshot of the latest submitted run.
func (s *WalkService) Current() (walk.RunSnapshot, bool) {
	s.mu.RLock()
	run := s.current
	s.mu.RUnlock()
	if run == nil {
		return walk.RunSnapshot{}, false
	}
	return run.Snapshot(), true
}

// Subscribe registers a status event watcher for the current run stream.
// The returned cancel func must be called to release the watcher.
func (s *WalkService) Subscribe() (<-chan StatusUpdate, func()) {
	s.mu.Lock()
	id := s.nextWatcher
	s.nextWatcher++
	ch := make(chan StatusUpdate, statusBuffer)
	s.watchers[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if ch, ok := s.watchers[id]; ok {
			delete(s.watchers, id)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// execute drives one run through the pipeline stages in order.
func (s *WalkService) execute(ctx context.Context, run *walk.Run) {
	if !s.enter(run, walk.StateExtractingPlaces) {
		return
	}
	s.appendStatus(run, "Route request received.")
	s.appendStatus(run, "Analyzing the place names in the request…")

	raw, err := s.extractor.ExtractPlaces(ctx, run.Text())
	if err != nil {
		s.fail(run, err)
		return
	}
	departure, destination, err := splitPlaces(raw)
	if err != nil {
		s.fail(run, err)
		return
	}
	run.SetPlaceNames(departure, destination)
	s.appendStatus(run, "Place names identified.")

	if !run.HasPlaceNames() {
		s.fail(run, walk.NewParseError("blank place name"))
		return
	}
	if !s.enter(run, walk.StateGeocoding) {
		return
	}
	s.appendStatus(run, "Looking up the locations…")

	origin, err := s.geocoder.Geocode(ctx, departure)
	if err != nil {
		s.fail(run, err)
		return
	}
	dest, err := s.geocoder.Geocode(ctx, destination)
	if err != nil {
		s.fail(run, err)
		return
	}
	run.SetCoordinates(origin, dest)
	s.appendStatus(run, "Locations resolved.")

	if !run.HasCoordinates() {
		s.fail(run, walk.NewNotFoundError(departure))
		return
	}
	if !s.enter(run, walk.StateRouting) {
		return
	}
	s.appendStatus(run, "Searching for a walking route…")

	trip, err := s.planner.PlanRoute(ctx, origin, dest)
	if err != nil {
		s.fail(run, err)
		return
	}
	path, err := geo.DecodePolyline(trip.Shape)
	if err != nil {
		s.fail(run, err)
		return
	}
	run.SetRoute(&walk.Route{DurationSeconds: trip.DurationSeconds, Path: path})
	s.appendStatus(run, "Walking route found.")

	if trip.DurationSeconds > s.maxDurationSeconds {
		s.appendStatus(run, fmt.Sprintf("This walk is longer than %d minutes.", int(s.maxDurationSeconds)/60))
		s.appendStatus(run, "Please try a shorter route.")
		if s.isCurrent(run) {
			_ = run.TransitionTo(walk.StateHaltedTooLong)
		} else {
			_ = run.TransitionTo(walk.StateSuperseded)
		}
		return
	}

	if !s.enter(run, walk.StateRendering) {
		return
	}
	s.appendStatus(run, "Drawing the route on the map…")
	s.appendStatus(run, "Route ready to display.")

	if !run.ReadyForImagery() {
		return
	}
	if !s.enter(run, walk.StateFetchingImagery) {
		return
	}
	s.appendStatus(run, "Fetching satellite imagery of the route…")

	image, err := s.imagery.ResolveImage(ctx, path)
	if err != nil {
		s.fail(run, err)
		return
	}
	s.appendStatus(run, "Satellite imagery retrieved.")

	if !s.enter(run, walk.StateExplaining) {
		return
	}
	s.appendStatus(run, "Analyzing the scenery along the route…")

	scene, err := s.explainer.ExplainScene(ctx, run.Text(), image)
	if err != nil {
		s.fail(run, err)
		return
	}
	run.SetScene(scene)
	s.appendStatus(run, "Scenery analysis complete.")

	if !s.enter(run, walk.StateDone) {
		return
	}
	s.logger.Info("run finished",
		zap.String("run_id", run.ID().String()),
		zap.Bool("has_scene", scene != ""),
	)
}

// enter moves run into the given stage if it is still the current run.
// A superseded run is parked in the Superseded state and never touches
// shared state again.
func (s *WalkService) enter(run *walk.Run, state walk.RunState) bool {
	if !s.isCurrent(run) {
		_ = run.TransitionTo(walk.StateSuperseded)
		s.logger.Info("run superseded",
			zap.String("run_id", run.ID().String()),
			zap.String("before", state.String()),
		)
		return false
	}
	if err := run.TransitionTo(state); err != nil {
		s.logger.Error("illegal stage transition",
			zap.String("run_id", run.ID().String()),
			zap.Error(err),
		)
		s.fail(run, err)
		return false
	}
	return true
}

func (s *WalkService) isCurrent(run *walk.Run) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current == run
}

// appendStatus appends to the run's log and forwards the event to watchers
// when the run is still current.
func (s *WalkService) appendStatus(run *walk.Run, message string) {
	evt := run.AppendStatus(message)
	if !s.isCurrent(run) {
		return
	}
	upd := StatusUpdate{RunID: run.ID(), StatusEvent: evt}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, ch := range s.watchers {
		select {
		case ch <- upd:
		default:
			s.logger.Warn("status watcher lagging, dropping event", zap.Uint64("watcher", id))
		}
	}
}

// fail parks the run in the Error state with exactly one user-facing status
// event for the failure category. Partial results stay visible.
func (s *WalkService) fail(run *walk.Run, err error) {
	kind := walk.KindOf(err)
	run.SetFailure(kind)
	s.appendStatus(run, failureMessage(kind))
	if run.State().CanTransitionTo(walk.StateError) {
		_ = run.TransitionTo(walk.StateError)
	}
	s.logger.Error("run failed",
		zap.String("run_id", run.ID().String()),
		zap.String("kind", string(kind)),
		zap.Error(err),
	)
}

func failureMessage(kind walk.ErrorKind) string {
	switch kind {
	case walk.ErrParse:
		return "Could not identify a departure and a destination. Please rephrase the request."
	case walk.ErrNotFound:
		return "One of the places could not be found on the map."
	case walk.ErrRouteNotFound:
		return "No walking route could be found between those places."
	case walk.ErrDecode:
		return "The route geometry could not be read."
	case walk.ErrGeometry:
		return "The route geometry is too small to photograph."
	case walk.ErrFetch:
		return "The satellite imagery could not be retrieved."
	default:
		return "An upstream service failed. Please submit the request again."
	}
}

// splitPlaces validates the extractor's raw output: exactly two non-blank
// lines, departure first.
func splitPlaces(raw string) (string, string, error) {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) != 2 {
		return "", "", walk.NewParseError(fmt.Sprintf("expected 2 place lines, got %d", len(lines)))
	}
	return lines[0], lines[1], nil
}
