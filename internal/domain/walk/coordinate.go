package walk

import "fmt"

// Coordinate is a WGS84 position in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewCoordinate validates the WGS84 range. Values outside it indicate an
// upstream bug and are rejected rather than clamped; the error is neutral
// so each caller classifies the failure for its own stage.
func NewCoordinate(lat, lon float64) (Coordinate, error) {
	if lat < -90 || lat > 90 {
		return Coordinate{}, fmt.Errorf("latitude %f out of range", lat)
	}
	if lon < -180 || lon > 180 {
		return Coordinate{}, fmt.Errorf("longitude %f out of range", lon)
	}
	return Coordinate{Lat: lat, Lon: lon}, nil
}

// Key returns a deterministic serialization used for cache keys. Six decimal
// places match the precision of the routing engine's polyline encoding.
func (c Coordinate) Key() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}
