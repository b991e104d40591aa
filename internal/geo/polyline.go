// Package geo holds the pure geometry helpers of the route pipeline: the
// routing engine's polyline encoding and bounding-box derivation.
package geo

import (
	"fmt"
	"math"
	"strings"

	"github.com/strollscribe/service-walkroute/internal/domain/walk"
)

// polylinePrecision is the coordinate scale of the routing engine's encoded
// shapes (six decimal places).
const polylinePrecision = 1e6

// DecodePolyline decodes an encoded polyline into an ordered coordinate
// sequence. Decoding is deterministic and stateless. A token stream that
// ends mid-value or yields an out-of-range position is a DecodeError; the
// decode never silently truncates.
func DecodePolyline(encoded string) ([]walk.Coordinate, error) {
	if encoded == "" {
		return nil, walk.NewDecodeError("empty polyline")
	}

	var path []walk.Coordinate
	var lat, lon int64
	i := 0
	for i < len(encoded) {
		dLat, next, err := decodeValue(encoded, i)
		if err != nil {
			return nil, err
		}
		dLon, next, err := decodeValue(encoded, next)
		if err != nil {
			return nil, err
		}
		i = next

		lat += dLat
		lon += dLon
		c, err := walk.NewCoordinate(float64(lat)/polylinePrecision, float64(lon)/polylinePrecision)
		if err != nil {
			return nil, walk.NewDecodeError(err.Error())
		}
		path = append(path, c)
	}

	if len(path) < 2 {
		return nil, walk.NewDecodeError(fmt.Sprintf("polyline has %d point(s), need at least 2", len(path)))
	}
	return path, nil
}

// decodeValue reads one zigzag-encoded delta starting at offset i and
// returns the delta plus the offset of the next value.
func decodeValue(encoded string, i int) (int64, int, error) {
	var result int64
	var shift uint
	for {
		if i >= len(encoded) {
			return 0, 0, walk.NewDecodeError("polyline ends mid-value")
		}
		b := int64(encoded[i]) - 63
		if b < 0 {
			return 0, 0, walk.NewDecodeError(fmt.Sprintf("invalid polyline byte %q", encoded[i]))
		}
		i++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
		if shift > 35 {
			return 0, 0, walk.NewDecodeError("polyline delta overflows")
		}
	}
	if result&1 != 0 {
		return ^(result >> 1), i, nil
	}
	return result >> 1, i, nil
}

// EncodePolyline is the inverse of DecodePolyline, used when a shape has to
// be handed back to an engine-compatible consumer.
func EncodePolyline(path []walk.Coordinate) string {
	var sb strings.Builder
	var prevLat, prevLon int64
	for _, c := range path {
		lat := int64(math.Round(c.Lat * polylinePrecision))
		lon := int64(math.Round(c.Lon * polylinePrecision))
		encodeValue(&sb, lat-prevLat)
		encodeValue(&sb, lon-prevLon)
		prevLat, prevLon = lat, lon
	}
	return sb.String()
}

func encodeValue(sb *strings.Builder, v int64) {
	v <<= 1
	if v < 0 {
		v = ^v
	}
	for v >= 0x20 {
		sb.WriteByte(byte((0x20 | (v & 0x1f)) + 63))
		v >>= 5
	}
	sb.WriteByte(byte(v + 63))
}
