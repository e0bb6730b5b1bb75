package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports process liveness.
type HealthHandler struct {
	startedAt time.Time
	version   string
	storage   string
}

// NewHealthHandler creates a new health handler. storage names the active
// persistence backend (postgres or memory).
func NewHealthHandler(version, storage string) *HealthHandler {
	return &HealthHandler{
		startedAt: time.Now(),
		version:   version,
		storage:   storage,
	}
}

// HealthResponse is the health check body.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Storage       string `json:"storage"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// Health godoc
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:        "ok",
		Version:       h.version,
		Storage:       h.storage,
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
	})
}
