package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/powerwolf1/bigData/infrastructure/database"
	"github.com/powerwolf1/bigData/pkg/logging"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	client    *database.Client
	logger    *logging.Logger
	version   string
	startedAt time.Time
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(client *database.Client, logger *logging.Logger, version string) *HealthHandler {
	return &HealthHandler{
		client:    client,
		logger:    logger.WithComponent("health_handler"),
		version:   version,
		startedAt: time.Now(),
	}
}

// HealthResponse is the health probe payload.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Uptime  string            `json:"uptime"`
	Checks  map[string]string `json:"checks"`
}

// Health reports overall service health, including database reachability.
func (h *HealthHandler) Health(c *gin.Context) {
	checks := map[string]string{"mongodb": "healthy"}
	status := "healthy"
	code := http.StatusOK

	if !h.client.Health(c.Request.Context()) {
		checks["mongodb"] = "unhealthy"
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, HealthResponse{
		Status:  status,
		Version: h.version,
		Uptime:  time.Since(h.startedAt).String(),
		Checks:  checks,
	})
}

// Ready reports whether the service can accept traffic.
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.client.Health(c.Request.Context()) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
