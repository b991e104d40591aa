package walk

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// StatusEvent is one entry of a run's append-only status log.
type StatusEvent struct {
	Seq     int       `json:"seq"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Run is the aggregate for one pipeline run: the request, everything derived
// from it so far, the status log, and the state machine position. A Run is
// written only by the goroutine executing its pipeline and read concurrently
// by the presentation layer, so all access goes through its methods.
type Run struct {
	id         uuid.UUID
	generation uint64
	text       string

	state           RunState
	departureName   string
	destinationName string
	departure       *Coordinate
	destination     *Coordinate
	route           *Route
	scene           string
	sceneComputed   bool
	failure         ErrorKind

	events []StatusEvent

	mu sync.RWMutex
}

// NewRun creates a run in the Idle state for the given request text.
// generation is the orchestrator's monotonic submission counter; a run whose
// generation is no longer current must abandon instead of writing shared state.
func NewRun(text string, generation uint64) *Run {
	return &Run{
		id:         uuid.New(),
		generation: generation,
		text:       text,
		state:      StateIdle,
	}
}

// ID returns the run's unique identifier.
func (r *Run) ID() uuid.UUID { return r.id }

// Generation returns the submission counter value this run was created with.
func (r *Run) Generation() uint64 { return r.generation }

// Text returns the raw request text. Immutable for the run's lifetime.
func (r *Run) Text() string { return r.text }

// TransitionTo moves the run to target, enforcing the state machine.
func (r *Run) TransitionTo(target RunState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.state.CanTransitionTo(target) {
		return NewServiceError("invalid state transition "+r.state.String()+" -> "+target.String(), nil)
	}
	r.state = target
	return nil
}

// AppendStatus adds a human-readable status message to the log and returns
// the appended event. Events are never mutated or removed.
func (r *Run) AppendStatus(message string) StatusEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	evt := StatusEvent{Seq: len(r.events), Message: message, At: time.Now().UTC()}
	r.events = append(r.events, evt)
	return evt
}

// SetPlaceNames records the extractor's validated output.
func (r *Run) SetPlaceNames(departure, destination string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.departureName = departure
	r.destinationName = destination
}

// SetCoordinates records the geocoded departure and destination positions.
func (r *Run) SetCoordinates(departure, destination Coordinate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.departure = &departure
	r.destination = &destination
}

// SetRoute records the materialized route. Immutable once set.
func (r *Run) SetRoute(route *Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.route = route
}

// SetScene records the explanation outcome. An empty description still marks
// the scene as computed so the imagery stage stays idempotent per run.
func (r *Run) SetScene(description string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scene = description
	r.sceneComputed = true
}

// SetFailure records the error classification for a failed run.
func (r *Run) SetFailure(kind ErrorKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failure = kind
}

// HasPlaceNames reports whether both place names are non-empty, the
// precondition for geocoding.
func (r *Run) HasPlaceNames() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.departureName != "" && r.destinationName != ""
}

// HasCoordinates reports whether both positions are set, the precondition
// for routing.
func (r *Run) HasCoordinates() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.departure != nil && r.destination != nil
}

// ReadyForImagery reports whether imagery may be fetched: a route exists and
// no explanation has been computed yet for this run.
func (r *Run) ReadyForImagery() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.route != nil && !r.sceneComputed
}

// State returns the run's current state machine position.
func (r *Run) State() RunState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// RunSnapshot is a consistent, read-only copy of a run for presentation.
type RunSnapshot struct {
	ID              uuid.UUID     `json:"id"`
	Text            string        `json:"text"`
	State           RunState      `json:"state"`
	DepartureName   string        `json:"departure_name,omitempty"`
	DestinationName string        `json:"destination_name,omitempty"`
	Departure       *Coordinate   `json:"departure,omitempty"`
	Destination     *Coordinate   `json:"destination,omitempty"`
	Route           *Route        `json:"route,omitempty"`
	Scene           string        `json:"scene,omitempty"`
	Failure         ErrorKind     `json:"failure,omitempty"`
	Events          []StatusEvent `json:"events"`
}

// Snapshot returns a deep copy of the run's observable state. Partial
// results stay visible after a failure.
func (r *Run) Snapshot() RunSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := RunSnapshot{
		ID:              r.id,
		Text:            r.text,
		State:           r.state,
		DepartureName:   r.departureName,
		DestinationName: r.destinationName,
		Scene:           r.scene,
		Failure:         r.failure,
		Events:          make([]StatusEvent, len(r.events)),
	}
	copy(snap.Events, r.events)

	if r.departure != nil {
		c := *r.departure
		snap.Departure = &c
	}
	if r.destination != nil {
		c := *r.destination
		snap.Destination = &c
	}
	if r.route != nil {
		route := Route{DurationSeconds: r.route.DurationSeconds, Path: make([]Coordinate, len(r.route.Path))}
		copy(route.Path, r.route.Path)
		snap.Route = &route
	}
	return snap
}
