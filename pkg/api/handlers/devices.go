package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/nxbridge/pkg/api/types"
	"github.com/urmzd/nxbridge/pkg/db"
	"github.com/urmzd/nxbridge/pkg/device"
)

// DevicesHandler serves zone and partition snapshots with their labels.
type DevicesHandler struct {
	controller device.Controller
	labels     db.LabelStore
}

// NewDevicesHandler creates a new devices handler. labels may be nil.
func NewDevicesHandler(controller device.Controller, labels db.LabelStore) *DevicesHandler {
	return &DevicesHandler{controller: controller, labels: labels}
}

// ListDevices handles GET /devices
// @Summary      List devices
// @Description  Returns every tracked zone and partition with its attributes
// @Tags         devices
// @Produce      json
// @Param        kind  query     string  false  "zone or partition"
// @Success      200   {object}  types.ListDevicesResponse
// @Failure      400   {object}  types.ErrorResponse  "Unknown kind"
// @Failure      500   {object}  types.ErrorResponse  "Controller error"
// @Router       /devices [get]
func (h *DevicesHandler) ListDevices(c *gin.Context) {
	ctx := c.Request.Context()

	var kind device.Kind
	if q := c.Query("kind"); q != "" {
		k, err := device.ParseKind(q)
		if err != nil {
			writeError(c, err)
			return
		}
		kind = k
	}

	devices, err := h.controller.ListDevices(ctx, kind)
	if err != nil {
		writeError(c, err)
		return
	}

	if h.labels != nil {
		labels, err := h.labels.List(ctx, kind)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to load device labels")
		}
		names := make(map[device.Kind]map[int]string)
		for _, l := range labels {
			if names[l.Kind] == nil {
				names[l.Kind] = make(map[int]string)
			}
			names[l.Kind][l.ID] = l.Name
		}
		for i := range devices {
			devices[i].Name = names[devices[i].Kind][devices[i].ID]
		}
	}

	c.JSON(http.StatusOK, types.ListDevicesResponse{
		Devices: devices,
		Count:   len(devices),
	})
}

// GetDevice handles GET /devices/:kind/:id
// @Summary      Get device details
// @Description  Returns one zone or partition with all of its attributes
// @Tags         devices
// @Produce      json
// @Param        kind  path      string  true  "zone or partition"
// @Param        id    path      int     true  "Device number"
// @Success      200   {object}  types.DeviceResponse
// @Failure      400   {object}  types.ErrorResponse  "Invalid kind or id"
// @Failure      404   {object}  types.ErrorResponse  "Device not tracked"
// @Router       /devices/{kind}/{id} [get]
func (h *DevicesHandler) GetDevice(c *gin.Context) {
	kind, id, ok := deviceRef(c)
	if !ok {
		return
	}

	d, err := h.controller.GetDevice(c.Request.Context(), kind, id)
	if err != nil {
		writeError(c, err)
		return
	}
	d.Name = h.label(c, kind, id)

	c.JSON(http.StatusOK, types.DeviceResponse{Device: *d})
}

// RenameDevice handles PATCH /devices/:kind/:id
// @Summary      Rename a device
// @Description  Stores a friendly name for a zone or partition
// @Tags         devices
// @Accept       json
// @Produce      json
// @Param        kind     path      string                     true  "zone or partition"
// @Param        id       path      int                        true  "Device number"
// @Param        request  body      types.RenameDeviceRequest  true  "New name"
// @Success      200      {object}  types.DeviceResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid request"
// @Failure      404      {object}  types.ErrorResponse  "Device not tracked"
// @Failure      503      {object}  types.ErrorResponse  "No label store configured"
// @Router       /devices/{kind}/{id} [patch]
func (h *DevicesHandler) RenameDevice(c *gin.Context) {
	kind, id, ok := deviceRef(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var req types.RenameDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "name is required",
		})
		return
	}

	if h.labels == nil {
		c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{
			Error:   "storage_unavailable",
			Message: "Device labels are not stored",
		})
		return
	}

	d, err := h.controller.GetDevice(ctx, kind, id)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := h.labels.Set(ctx, kind, id, req.Name); err != nil {
		writeError(c, err)
		return
	}
	d.Name = h.label(c, kind, id)

	c.JSON(http.StatusOK, types.DeviceResponse{Device: *d})
}

func (h *DevicesHandler) label(c *gin.Context, kind device.Kind, id int) string {
	if h.labels == nil {
		return ""
	}
	l, err := h.labels.Get(c.Request.Context(), kind, id)
	if err != nil {
		if !errors.Is(err, db.ErrLabelNotFound) {
			log.Warn().Err(err).Str("kind", string(kind)).Int("id", id).Msg("Failed to load device label")
		}
		return ""
	}
	return l.Name
}
