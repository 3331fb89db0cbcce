package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/nxbridge/pkg/api/types"
	"github.com/urmzd/nxbridge/pkg/device"
)

// linkReporter is implemented by controllers with a session and a fatal link error.
type linkReporter interface {
	SessionID() string
	Err() error
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	controller device.Controller
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(controller device.Controller) *HealthHandler {
	return &HealthHandler{controller: controller}
}

// Health handles GET /health
// @Summary      Health check
// @Description  Returns the health of the API and the panel link
// @Tags         health
// @Produce      json
// @Success      200  {object}  types.HealthResponse  "Panel link is running"
// @Failure      503  {object}  types.HealthResponse  "Panel link is down"
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	resp := types.HealthResponse{
		Status:     "healthy",
		Controller: "connected",
		Timestamp:  time.Now(),
	}
	httpStatus := http.StatusOK

	if !h.controller.IsConnected() {
		resp.Status = "degraded"
		resp.Controller = "disconnected"
		httpStatus = http.StatusServiceUnavailable
	}

	if lr, ok := h.controller.(linkReporter); ok {
		resp.Session = lr.SessionID()
		if err := lr.Err(); err != nil {
			resp.LinkError = err.Error()
		}
	}

	c.JSON(httpStatus, resp)
}
