package walk

import "fmt"

// RunState represents the current stage of a pipeline run.
type RunState string

const (
	StateIdle             RunState = "idle"
	StateExtractingPlaces RunState = "extracting_places"
	StateGeocoding        RunState = "geocoding"
	StateRouting          RunState = "routing"
	StateHaltedTooLong    RunState = "halted_too_long"
	StateRendering        RunState = "rendering"
	StateFetchingImagery  RunState = "fetching_imagery"
	StateExplaining       RunState = "explaining"
	StateDone             RunState = "done"
	StateError            RunState = "error"
	StateSuperseded       RunState = "superseded"
)

// validTransitions defines the state machine for pipeline runs. Error and
// Superseded are reachable from every non-terminal state; Done,
// HaltedTooLong, Error and Superseded are terminal.
var validTransitions = map[RunState][]RunState{
	StateIdle:             {StateExtractingPlaces, StateError, StateSuperseded},
	StateExtractingPlaces: {StateGeocoding, StateError, StateSuperseded},
	StateGeocoding:        {StateRouting, StateError, StateSuperseded},
	StateRouting:          {StateRendering, StateHaltedTooLong, StateError, StateSuperseded},
	StateRendering:        {StateFetchingImagery, StateError, StateSuperseded},
	StateFetchingImagery:  {StateExplaining, StateError, StateSuperseded},
	StateExplaining:       {StateDone, StateError, StateSuperseded},
	StateHaltedTooLong:    {},
	StateDone:             {},
	StateError:            {},
	StateSuperseded:       {},
}

// IsValid returns true if the state is a recognized run state.
func (s RunState) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this state to the target is allowed.
func (s RunState) CanTransitionTo(target RunState) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this state.
func (s RunState) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// String returns the string representation of the state.
func (s RunState) String() string {
	return string(s)
}

// ParseRunState converts a string to a RunState, returning an error if invalid.
func ParseRunState(s string) (RunState, error) {
	state := RunState(s)
	if !state.IsValid() {
		return "", fmt.Errorf("invalid run state: %s", s)
	}
	return state, nil
}
