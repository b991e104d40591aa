package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/strollscribe/service-walkroute/internal/cache"
	"github.com/strollscribe/service-walkroute/internal/domain/walk"
)

// ValhallaPlanner resolves coordinate pairs against a Valhalla-style routing
// engine, memoizing trips per direction-sensitive coordinate pair.
type ValhallaPlanner struct {
	baseURL string
	costing string
	http    *http.Client
	cache   *cache.Cache[walk.Trip]
	logger  *zap.Logger
}

// NewValhallaPlanner creates a planner backed by the given endpoint.
func NewValhallaPlanner(baseURL, costing string, httpClient *http.Client, c *cache.Cache[walk.Trip], logger *zap.Logger) *ValhallaPlanner {
	return &ValhallaPlanner{
		baseURL: strings.TrimRight(baseURL, "/"),
		costing: costing,
		http:    httpClient,
		cache:   c,
		logger:  logger,
	}
}

type valhallaLocation struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Type string  `json:"type"`
}

type valhallaRequest struct {
	Locations []valhallaLocation `json:"locations"`
	Costing   string             `json:"costing"`
}

type valhallaResponse struct {
	Trip struct {
		Summary struct {
			Time float64 `json:"time"`
		} `json:"summary"`
		Legs []struct {
			Shape string `json:"shape"`
		} `json:"legs"`
	} `json:"trip"`
}

// PlanRoute returns the walking trip between origin and destination. The
// cache key keeps origin and destination order, so A→B and B→A are separate
// trips.
func (p *ValhallaPlanner) PlanRoute(ctx context.Context, origin, destination walk.Coordinate) (walk.Trip, error) {
	key := origin.Key() + "->" + destination.Key()
	return p.cache.Get(ctx, key, func(ctx context.Context) (walk.Trip, error) {
		return p.plan(ctx, origin, destination)
	})
}

func (p *ValhallaPlanner) plan(ctx context.Context, origin, destination walk.Coordinate) (walk.Trip, error) {
	payload, err := json.Marshal(valhallaRequest{
		Locations: []valhallaLocation{
			{Lat: origin.Lat, Lon: origin.Lon, Type: "break"},
			{Lat: destination.Lat, Lon: destination.Lon, Type: "break"},
		},
		Costing: p.costing,
	})
	if err != nil {
		return walk.Trip{}, walk.NewServiceError("encode routing request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/route", bytes.NewReader(payload))
	if err != nil {
		return walk.Trip{}, walk.NewServiceError("build routing request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return walk.Trip{}, walk.NewServiceError("routing request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return walk.Trip{}, walk.NewServiceError(fmt.Sprintf("routing returned status %d", resp.StatusCode), nil)
	}

	var vr valhallaResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return walk.Trip{}, walk.NewServiceError("decode routing response", err)
	}

	if len(vr.Trip.Legs) == 0 || vr.Trip.Legs[0].Shape == "" {
		return walk.Trip{}, walk.NewRouteNotFoundError("routing response has no usable leg")
	}
	if vr.Trip.Summary.Time < 0 {
		return walk.Trip{}, walk.NewRouteNotFoundError(fmt.Sprintf("routing response has negative duration %f", vr.Trip.Summary.Time))
	}

	p.logger.Debug("planned route",
		zap.String("origin", origin.Key()),
		zap.String("destination", destination.Key()),
		zap.Float64("duration_seconds", vr.Trip.Summary.Time),
	)
	return walk.Trip{DurationSeconds: vr.Trip.Summary.Time, Shape: vr.Trip.Legs[0].Shape}, nil
}
