package mcp

import (
	"github.com/urmzd/nxbridge/pkg/db"
	"github.com/urmzd/nxbridge/pkg/device"
)

// GetHealthOutput is the output for the get_health tool
type GetHealthOutput struct {
	Status     string `json:"status" jsonschema:"description=Overall health status (healthy or unhealthy)"`
	Controller string `json:"controller" jsonschema:"description=Panel link status"`
	Session    string `json:"session,omitempty" jsonschema:"description=Current panel session id"`
	Timestamp  string `json:"timestamp" jsonschema:"description=ISO8601 timestamp"`
}

// ListDevicesOutput is the output for the list_devices tool
type ListDevicesOutput struct {
	Devices []device.Device `json:"devices" jsonschema:"description=Tracked zones and partitions"`
	Count   int             `json:"count" jsonschema:"description=Total number of devices"`
}

// GetDeviceOutput is the output for the get_device tool
type GetDeviceOutput struct {
	Device device.Device `json:"device" jsonschema:"description=Device with all status flags"`
}

// QueryAttributeOutput is the output for the query_attribute tool
type QueryAttributeOutput struct {
	Kind      device.Kind      `json:"kind"`
	ID        int              `json:"id"`
	Attribute device.Attribute `json:"attribute"`
}

// SendCommandOutput is the output for the send_command tool
type SendCommandOutput struct {
	Success bool   `json:"success" jsonschema:"description=Whether the command was queued"`
	Message string `json:"message" jsonschema:"description=Status message"`
}

// RenameDeviceOutput is the output for the rename_device tool
type RenameDeviceOutput struct {
	Success bool   `json:"success" jsonschema:"description=Whether the rename succeeded"`
	Message string `json:"message" jsonschema:"description=Status message"`
}

// ListEventsOutput is the output for the list_events tool
type ListEventsOutput struct {
	Events []*db.EventRecord `json:"events" jsonschema:"description=Recorded status changes"`
	Count  int               `json:"count"`
}
