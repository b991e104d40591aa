package client

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/strollscribe/service-walkroute/internal/domain/walk"
	"github.com/strollscribe/service-walkroute/internal/geo"
)

// fallbackMediaType replaces upstream content types that are missing or not
// image types. The imagery service is known to mislabel PNG payloads as
// application/octet-stream.
const fallbackMediaType = "image/png"

// SatelliteImagery fetches satellite imagery bounding a route geometry and
// converts it to a base64-embeddable form.
type SatelliteImagery struct {
	baseURL  string
	width    int
	height   int
	padRatio float64
	http     *http.Client
	logger   *zap.Logger
}

// NewSatelliteImagery creates an imagery resolver for the given endpoint.
func NewSatelliteImagery(baseURL string, width, height int, padRatio float64, httpClient *http.Client, logger *zap.Logger) *SatelliteImagery {
	return &SatelliteImagery{
		baseURL:  strings.TrimRight(baseURL, "/"),
		width:    width,
		height:   height,
		padRatio: padRatio,
		http:     httpClient,
		logger:   logger,
	}
}

// ResolveImage derives the imagery request URL bounding path, fetches the
// image and returns it base64-encoded with a corrected media type.
func (s *SatelliteImagery) ResolveImage(ctx context.Context, path []walk.Coordinate) (walk.EncodedImage, error) {
	bounds, err := geo.BoundsOf(path)
	if err != nil {
		return walk.EncodedImage{}, err
	}
	reqURL := s.requestURL(bounds.Pad(s.padRatio))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return walk.EncodedImage{}, walk.NewFetchError("build imagery request", err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return walk.EncodedImage{}, walk.NewFetchError("imagery request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return walk.EncodedImage{}, walk.NewFetchError(fmt.Sprintf("imagery returned status %d", resp.StatusCode), nil)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return walk.EncodedImage{}, walk.NewFetchError("read imagery response", err)
	}

	mediaType := normalizeMediaType(resp.Header.Get("Content-Type"))
	s.logger.Debug("fetched route imagery",
		zap.String("url", reqURL),
		zap.Int("bytes", len(raw)),
		zap.String("media_type", mediaType),
	)

	return walk.EncodedImage{
		MediaType: mediaType,
		Data:      base64.StdEncoding.EncodeToString(raw),
	}, nil
}

func (s *SatelliteImagery) requestURL(b geo.Bounds) string {
	q := url.Values{}
	q.Set("bbox", fmt.Sprintf("%f,%f,%f,%f", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat))
	q.Set("width", fmt.Sprintf("%d", s.width))
	q.Set("height", fmt.Sprintf("%d", s.height))
	return s.baseURL + "?" + q.Encode()
}

// normalizeMediaType corrects the declared content type to an image type
// before the payload is handed to the scene explainer.
func normalizeMediaType(contentType string) string {
	mediaType := contentType
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = mediaType[:i]
	}
	mediaType = strings.TrimSpace(mediaType)
	if !strings.HasPrefix(mediaType, "image/") {
		return fallbackMediaType
	}
	return mediaType
}
