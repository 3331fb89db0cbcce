package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/nxbridge/pkg/api/types"
	"github.com/urmzd/nxbridge/pkg/db"
	"github.com/urmzd/nxbridge/pkg/device"
)

// writeError maps controller and store errors to HTTP responses.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, device.ErrNotFound),
		errors.Is(err, device.ErrOutOfRange),
		errors.Is(err, device.ErrUnknownAttribute),
		errors.Is(err, db.ErrLabelNotFound):
		c.JSON(http.StatusNotFound, types.ErrorResponse{Error: "not_found", Message: err.Error()})
	case errors.Is(err, device.ErrUnknownKind),
		errors.Is(err, device.ErrInvalidCommand),
		errors.Is(err, db.ErrInvalidLabel):
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "invalid_request", Message: err.Error()})
	case errors.Is(err, device.ErrValidation):
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "validation_error", Message: err.Error()})
	case errors.Is(err, device.ErrNotConnected):
		c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{Error: "controller_disconnected", Message: err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, types.ErrorResponse{
			Error:   "timeout",
			Message: "Request timed out waiting for the command queue",
		})
	default:
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "controller_error", Message: err.Error()})
	}
}

// deviceRef parses the :kind and :id path parameters, replying 400 on failure.
func deviceRef(c *gin.Context) (device.Kind, int, bool) {
	kind, err := device.ParseKind(c.Param("kind"))
	if err != nil {
		writeError(c, err)
		return "", 0, false
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "id must be an integer",
		})
		return "", 0, false
	}
	return kind, id, true
}
