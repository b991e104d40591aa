package geo

import (
	"github.com/strollscribe/service-walkroute/internal/domain/walk"
)

// Bounds is an axis-aligned bounding box in WGS84 degrees.
type Bounds struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// BoundsOf returns the bounding box of path. A path with fewer than two
// distinct points has no area to bound and is a GeometryError.
func BoundsOf(path []walk.Coordinate) (Bounds, error) {
	if len(path) < 2 {
		return Bounds{}, walk.NewGeometryError("route geometry needs at least 2 points")
	}

	distinct := false
	b := Bounds{MinLon: path[0].Lon, MinLat: path[0].Lat, MaxLon: path[0].Lon, MaxLat: path[0].Lat}
	for _, c := range path[1:] {
		if c.Lat != path[0].Lat || c.Lon != path[0].Lon {
			distinct = true
		}
		if c.Lon < b.MinLon {
			b.MinLon = c.Lon
		}
		if c.Lon > b.MaxLon {
			b.MaxLon = c.Lon
		}
		if c.Lat < b.MinLat {
			b.MinLat = c.Lat
		}
		if c.Lat > b.MaxLat {
			b.MaxLat = c.Lat
		}
	}
	if !distinct {
		return Bounds{}, walk.NewGeometryError("route geometry collapses to a single point")
	}
	return b, nil
}

// Pad grows the box by ratio of its own span on every side, so imagery shows
// context around the route rather than cropping at its exact extent.
func (b Bounds) Pad(ratio float64) Bounds {
	padLon := (b.MaxLon - b.MinLon) * ratio
	padLat := (b.MaxLat - b.MinLat) * ratio
	return Bounds{
		MinLon: b.MinLon - padLon,
		MinLat: b.MinLat - padLat,
		MaxLon: b.MaxLon + padLon,
		MaxLat: b.MaxLat + padLat,
	}
}
