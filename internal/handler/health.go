package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/strollscribe/service-walkroute/internal/config"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	cfg *config.ServiceConfig
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(cfg *config.ServiceConfig) *HealthHandler {
	return &HealthHandler{cfg: cfg}
}

// RegisterRoutes registers the probe endpoints.
func (h *HealthHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", h.Live)
	r.GET("/readyz", h.Ready)
}

// Live handles GET /healthz.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "service-walkroute"})
}

// Ready handles GET /readyz. The service is ready when the upstreams it
// needs are configured; it holds no connections of its own.
func (h *HealthHandler) Ready(c *gin.Context) {
	missing := []string{}
	if h.cfg.Vision.APIKey == "" {
		missing = append(missing, "vision.api_key")
	}
	if h.cfg.Routing.ValhallaBaseURL == "" {
		missing = append(missing, "routing.valhalla_url")
	}
	if h.cfg.Imagery.BaseURL == "" {
		missing = append(missing, "imagery.url")
	}
	if len(missing) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "missing": missing})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
