package walk

import "context"

// PlaceExtractor is the language service that pulls a departure and a
// destination out of free text. The raw output is validated by the
// orchestrator, not here.
type PlaceExtractor interface {
	// ExtractPlaces returns the service's raw output for the request text.
	ExtractPlaces(ctx context.Context, text string) (string, error)
}

// Geocoder resolves a place name to a position.
type Geocoder interface {
	// Geocode returns the first-ranked candidate for place, or a
	// NotFoundError when the candidate list is empty.
	Geocode(ctx context.Context, place string) (Coordinate, error)
}

// RoutePlanner resolves an origin/destination pair to a walking trip.
type RoutePlanner interface {
	// PlanRoute returns the trip duration plus the encoded leg geometry, or
	// a RouteNotFoundError when the engine has no usable leg.
	PlanRoute(ctx context.Context, origin, destination Coordinate) (Trip, error)
}

// ImageryResolver turns a route geometry into transportable imagery.
type ImageryResolver interface {
	// ResolveImage derives an imagery request bounding the path, fetches it
	// and returns the encoded result.
	ResolveImage(ctx context.Context, path []Coordinate) (EncodedImage, error)
}

// SceneExplainer is the vision service that narrates the surroundings of a
// route from its satellite imagery.
type SceneExplainer interface {
	// ExplainScene returns the narration, or an empty string when the
	// service has nothing to say (not an error).
	ExplainScene(ctx context.Context, text string, image EncodedImage) (string, error)
}
