package walk

// Trip is the routing engine's answer for an origin/destination pair: the
// walking duration plus the leg geometry still in its encoded form.
type Trip struct {
	DurationSeconds float64
	Shape           string
}

// Route is the fully materialized walking route. Immutable once computed.
type Route struct {
	DurationSeconds float64      `json:"duration_seconds"`
	Path            []Coordinate `json:"path"`
}

// EncodedImage is a transportable form of fetched imagery: base64 payload
// plus the corrected media type.
type EncodedImage struct {
	MediaType string
	Data      string
}
