package client

import (
	"context"

	"go.uber.org/zap"
	"googlemaps.github.io/maps"

	"github.com/strollscribe/service-walkroute/internal/cache"
	"github.com/strollscribe/service-walkroute/internal/domain/walk"
)

// GoogleGeocoder is the alternative geocoding provider, backed by the Google
// Maps Geocoding API. It honors the same first-candidate policy and cache
// contract as the default provider.
type GoogleGeocoder struct {
	client *maps.Client
	cache  *cache.Cache[walk.Coordinate]
	logger *zap.Logger
}

// NewGoogleGeocoder creates a geocoder using the given API key.
func NewGoogleGeocoder(apiKey string, c *cache.Cache[walk.Coordinate], logger *zap.Logger) (*GoogleGeocoder, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, walk.NewServiceError("create maps client", err)
	}
	return &GoogleGeocoder{client: client, cache: c, logger: logger}, nil
}

// Geocode returns the first-ranked candidate for place.
func (g *GoogleGeocoder) Geocode(ctx context.Context, place string) (walk.Coordinate, error) {
	key := NormalizePlace(place)
	return g.cache.Get(ctx, key, func(ctx context.Context) (walk.Coordinate, error) {
		results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: place})
		if err != nil {
			return walk.Coordinate{}, walk.NewServiceError("geocoding request failed", err)
		}
		if len(results) == 0 {
			return walk.Coordinate{}, walk.NewNotFoundError(place)
		}
		loc := results[0].Geometry.Location
		coord, err := walk.NewCoordinate(loc.Lat, loc.Lng)
		if err != nil {
			return walk.Coordinate{}, walk.NewServiceError("geocoder returned an invalid coordinate", err)
		}
		g.logger.Debug("geocoded place",
			zap.String("place", place),
			zap.Float64("lat", coord.Lat),
			zap.Float64("lon", coord.Lon),
		)
		return coord, nil
	})
}
