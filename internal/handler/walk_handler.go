package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/strollscribe/service-walkroute/internal/application"
	"github.com/strollscribe/service-walkroute/internal/domain/walk"
)

// WalkHandler handles HTTP requests for the walk-route pipeline.
type WalkHandler struct {
	service *application.WalkService
}

// NewWalkHandler creates a new WalkHandler.
func NewWalkHandler(service *application.WalkService) *WalkHandler {
	return &WalkHandler{service: service}
}

// RegisterRoutes registers all walk routes on the given router group.
func (h *WalkHandler) RegisterRoutes(r *gin.RouterGroup) {
	walks := r.Group("/api/v1/walks")
	{
		walks.POST("", h.SubmitWalk)
		walks.GET("/current", h.GetCurrentWalk)
	}
}

// SubmitWalkRequest is the body for POST /api/v1/walks.
type SubmitWalkRequest struct {
	Text string `json:"text" binding:"required"`
}

// SubmitWalkResponse acknowledges an accepted run.
type SubmitWalkResponse struct {
	RunID uuid.UUID `json:"run_id"`
}

// lineString is a GeoJSON-shaped geometry for the presentation layer.
type lineString struct {
	Type        string       `json:"type"`
	Coordinates [][2]float64 `json:"coordinates"`
}

// RouteView is the renderable form of a computed route.
type RouteView struct {
	DurationSeconds float64    `json:"duration_seconds"`
	Geometry        lineString `json:"geometry"`
}

// WalkView is the read-only presentation of the current run.
type WalkView struct {
	RunID           uuid.UUID          `json:"run_id"`
	State           string             `json:"state"`
	Text            string             `json:"text"`
	DepartureName   string             `json:"departure_name,omitempty"`
	DestinationName string             `json:"destination_name,omitempty"`
	Departure       *walk.Coordinate   `json:"departure,omitempty"`
	Destination     *walk.Coordinate   `json:"destination,omitempty"`
	Route           *RouteView         `json:"route,omitempty"`
	Scene           string             `json:"scene,omitempty"`
	Failure         string             `json:"failure,omitempty"`
	Events          []walk.StatusEvent `json:"events"`
}

// SubmitWalk handles POST /api/v1/walks.
func (h *WalkHandler) SubmitWalk(c *gin.Context) {
	var req SubmitWalkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	runID, err := h.service.Submit(req.Text)
	if err != nil {
		Error(c, err)
		return
	}

	Accepted(c, SubmitWalkResponse{RunID: runID})
}

// GetCurrentWalk handles GET /api/v1/walks/current.
func (h *WalkHandler) GetCurrentWalk(c *gin.Context) {
	snap, ok := h.service.Current()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no walk submitted yet"})
		return
	}
	Success(c, toWalkView(snap))
}

func toWalkView(snap walk.RunSnapshot) WalkView {
	view := WalkView{
		RunID:           snap.ID,
		State:           snap.State.String(),
		Text:            snap.Text,
		DepartureName:   snap.DepartureName,
		DestinationName: snap.DestinationName,
		Departure:       snap.Departure,
		Destination:     snap.Destination,
		Scene:           snap.Scene,
		Failure:         string(snap.Failure),
		Events:          snap.Events,
	}
	if snap.Route != nil {
		coords := make([][2]float64, len(snap.Route.Path))
		for i, c := range snap.Route.Path {
			coords[i] = [2]float64{c.Lon, c.Lat}
		}
		view.Route = &RouteView{
			DurationSeconds: snap.Route.DurationSeconds,
			Geometry:        lineString{Type: "LineString", Coordinates: coords},
		}
	}
	return view
}
