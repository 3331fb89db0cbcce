package types

import (
	"time"

	"github.com/urmzd/nxbridge/pkg/db"
	"github.com/urmzd/nxbridge/pkg/device"
)

// --- Request DTOs ---

// RenameDeviceRequest is the request body for PATCH /devices/:kind/:id
type RenameDeviceRequest struct {
	Name string `json:"name" binding:"required"`
}

// CommandRequest documents the body of POST /commands.
// The handler validates the raw body against schema.CommandSchema.
type CommandRequest struct {
	Command string `json:"command" example:"stay"`
}

// --- Response DTOs ---

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned from GET /health
type HealthResponse struct {
	Status     string    `json:"status"`
	Controller string    `json:"controller"`
	Session    string    `json:"session,omitempty"`
	LinkError  string    `json:"link_error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// ListDevicesResponse is returned from GET /devices
type ListDevicesResponse struct {
	Devices []device.Device `json:"devices"`
	Count   int             `json:"count"`
}

// DeviceResponse is returned from GET/PATCH /devices/:kind/:id
type DeviceResponse struct {
	Device device.Device `json:"device"`
}

// AttributeResponse is returned from GET /devices/:kind/:id/attributes/:attribute
type AttributeResponse struct {
	Kind device.Kind `json:"kind"`
	ID   int         `json:"id"`
	device.Attribute
}

// CommandResponse is returned from POST /commands
type CommandResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ListEventsResponse is returned from GET /events
type ListEventsResponse struct {
	Events []*db.EventRecord `json:"events"`
	Count  int               `json:"count"`
}
