// Package client holds the upstream service clients the pipeline composes:
// geocoding, routing, satellite imagery and the language/vision service.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/strollscribe/service-walkroute/internal/cache"
	"github.com/strollscribe/service-walkroute/internal/domain/walk"
)

// geocodeLimit caps the candidate list requested from the upstream service.
// Only the first-ranked candidate is ever used.
const geocodeLimit = 1

// NominatimGeocoder resolves place names against a Nominatim-style search
// endpoint, memoizing results per normalized place name.
type NominatimGeocoder struct {
	baseURL string
	http    *http.Client
	cache   *cache.Cache[walk.Coordinate]
	logger  *zap.Logger
}

// NewNominatimGeocoder creates a geocoder backed by the given endpoint.
func NewNominatimGeocoder(baseURL string, httpClient *http.Client, c *cache.Cache[walk.Coordinate], logger *zap.Logger) *NominatimGeocoder {
	return &NominatimGeocoder{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		cache:   c,
		logger:  logger,
	}
}

// Geocode returns the first-ranked candidate for place.
func (g *NominatimGeocoder) Geocode(ctx context.Context, place string) (walk.Coordinate, error) {
	key := NormalizePlace(place)
	return g.cache.Get(ctx, key, func(ctx context.Context) (walk.Coordinate, error) {
		return g.lookup(ctx, place)
	})
}

func (g *NominatimGeocoder) lookup(ctx context.Context, place string) (walk.Coordinate, error) {
	q := url.Values{}
	q.Set("q", place)
	q.Set("format", "json")
	q.Set("limit", fmt.Sprintf("%d", geocodeLimit))

	reqURL := g.baseURL + "/search?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return walk.Coordinate{}, walk.NewServiceError("build geocoding request", err)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return walk.Coordinate{}, walk.NewServiceError("geocoding request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return walk.Coordinate{}, walk.NewServiceError(fmt.Sprintf("geocoding returned status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return walk.Coordinate{}, walk.NewServiceError("read geocoding response", err)
	}

	if !gjson.ValidBytes(body) {
		return walk.Coordinate{}, walk.NewServiceError("geocoding response is not valid JSON", nil)
	}

	candidates := gjson.GetBytes(body, "@this")
	if !candidates.IsArray() || len(candidates.Array()) == 0 {
		return walk.Coordinate{}, walk.NewNotFoundError(place)
	}

	// Nominatim serializes lat/lon as strings; gjson's Float handles both.
	first := candidates.Array()[0]
	coord, err := walk.NewCoordinate(first.Get("lat").Float(), first.Get("lon").Float())
	if err != nil {
		return walk.Coordinate{}, walk.NewServiceError("geocoder returned an invalid coordinate", err)
	}

	g.logger.Debug("geocoded place",
		zap.String("place", place),
		zap.Float64("lat", coord.Lat),
		zap.Float64("lon", coord.Lon),
	)
	return coord, nil
}

// NormalizePlace canonicalizes a place name for cache keying so that casing
// and stray whitespace do not cause duplicate upstream lookups.
func NormalizePlace(place string) string {
	return strings.ToLower(strings.Join(strings.Fields(place), " "))
}
