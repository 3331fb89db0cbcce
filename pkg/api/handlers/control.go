package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/nxbridge/pkg/api/types"
	"github.com/urmzd/nxbridge/pkg/device"
	"github.com/urmzd/nxbridge/pkg/device/schema"
)

// maxCommandBody bounds POST /commands bodies.
const maxCommandBody = 4 << 10

// ControlHandler handles attribute queries and panel commands
type ControlHandler struct {
	controller device.Controller
	validator  *schema.Validator
}

// NewControlHandler creates a new control handler
func NewControlHandler(controller device.Controller, validator *schema.Validator) *ControlHandler {
	return &ControlHandler{controller: controller, validator: validator}
}

// QueryAttribute handles GET /devices/:kind/:id/attributes/:attribute
// @Summary      Query an attribute
// @Description  Returns the last reported value of one status flag
// @Tags         devices
// @Produce      json
// @Param        kind       path      string  true  "zone or partition"
// @Param        id         path      int     true  "Device number"
// @Param        attribute  path      string  true  "Attribute name, e.g. fault or armed"
// @Success      200        {object}  types.AttributeResponse
// @Failure      400        {object}  types.ErrorResponse  "Invalid kind or id"
// @Failure      404        {object}  types.ErrorResponse  "Unknown device or attribute"
// @Failure      503        {object}  types.ErrorResponse  "Panel not connected"
// @Router       /devices/{kind}/{id}/attributes/{attribute} [get]
func (h *ControlHandler) QueryAttribute(c *gin.Context) {
	kind, id, ok := deviceRef(c)
	if !ok {
		return
	}

	attr, err := h.controller.Query(c.Request.Context(), kind, id, c.Param("attribute"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.AttributeResponse{Kind: kind, ID: id, Attribute: attr})
}

// SendCommand handles POST /commands
// @Summary      Send a keypad command
// @Description  Queues a function key (stay, exit, chime...) or a 4 or 6 digit user code
// @Tags         commands
// @Accept       json
// @Produce      json
// @Param        request  body      types.CommandRequest  true  "Command to send"
// @Success      202      {object}  types.CommandResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid command"
// @Failure      503      {object}  types.ErrorResponse  "Panel not connected"
// @Failure      504      {object}  types.ErrorResponse  "Command queue full"
// @Router       /commands [post]
func (h *ControlHandler) SendCommand(c *gin.Context) {
	var req map[string]any
	if err := json.NewDecoder(io.LimitReader(c.Request.Body, maxCommandBody)).Decode(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return
	}

	command, err := h.validator.ValidateCommand(req)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := h.controller.SendCommand(c.Request.Context(), command); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, types.CommandResponse{
		Status:    "queued",
		Timestamp: time.Now(),
	})
}
