package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/urmzd/nxbridge/pkg/db"
	"github.com/urmzd/nxbridge/pkg/device"
)

func (s *Server) handleGetHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out := GetHealthOutput{
		Status:     "healthy",
		Controller: "connected",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	if !s.controller.IsConnected() {
		out.Status = "unhealthy"
		out.Controller = "disconnected"
	}
	if sr, ok := s.controller.(interface{ SessionID() string }); ok {
		out.Session = sr.SessionID()
	}

	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleListDevices(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var kind device.Kind
	if v, ok := request.GetArguments()["kind"].(string); ok && v != "" {
		k, err := device.ParseKind(v)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		kind = k
	}

	devices, err := s.controller.ListDevices(ctx, kind)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list devices: %s", err)), nil
	}

	for i := range devices {
		devices[i].Name = s.label(ctx, devices[i].Kind, devices[i].ID)
	}

	out := ListDevicesOutput{
		Devices: devices,
		Count:   len(devices),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleGetDevice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, id, err := deviceArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	d, err := s.controller.GetDevice(ctx, kind, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("device not found: %s", err)), nil
	}
	d.Name = s.label(ctx, kind, id)

	return mcp.NewToolResultText(formatJSON(GetDeviceOutput{Device: *d})), nil
}

func (s *Server) handleQueryAttribute(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, id, err := deviceArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := requiredString(request, "attribute")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	attr, err := s.controller.Query(ctx, kind, id, name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %s", err)), nil
	}

	out := QueryAttributeOutput{Kind: kind, ID: id, Attribute: attr}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleSendCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	command, err := s.validator.ValidateCommand(map[string]any{"command": request.GetArguments()["command"]})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.controller.SendCommand(ctx, command); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to send command: %s", err)), nil
	}

	out := SendCommandOutput{
		Success: true,
		Message: "Command queued for the panel",
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleRenameDevice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.labels == nil {
		return mcp.NewToolResultError("device labels are not stored"), nil
	}
	kind, id, err := deviceArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := requiredString(request, "name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if _, err := s.controller.GetDevice(ctx, kind, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("device not found: %s", err)), nil
	}
	if err := s.labels.Set(ctx, kind, id, name); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to rename device: %s", err)), nil
	}

	out := RenameDeviceOutput{
		Success: true,
		Message: fmt.Sprintf("%s %d renamed to %q", kind, id, name),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleListEvents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.history == nil {
		return mcp.NewToolResultError("event history is not stored"), nil
	}

	args := request.GetArguments()
	var filter db.EventFilter
	if v, ok := args["kind"].(string); ok && v != "" {
		kind, err := device.ParseKind(v)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		filter.Kind = kind
	}
	if v, ok := args["id"].(float64); ok {
		filter.ID = int(v)
	}
	if v, ok := args["attribute"].(string); ok {
		filter.Attribute = v
	}
	if v, ok := args["limit"].(float64); ok {
		filter.Limit = int(v)
	}
	if v, ok := args["since"].(string); ok && v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("since must be an RFC 3339 timestamp: %s", err)), nil
		}
		filter.Since = since
	}

	events, err := s.history.List(ctx, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list events: %s", err)), nil
	}
	if events == nil {
		events = []*db.EventRecord{}
	}

	return mcp.NewToolResultText(formatJSON(ListEventsOutput{Events: events, Count: len(events)})), nil
}

// label returns the stored name of a device, or "" when none is stored.
func (s *Server) label(ctx context.Context, kind device.Kind, id int) string {
	if s.labels == nil {
		return ""
	}
	l, err := s.labels.Get(ctx, kind, id)
	if err != nil {
		return ""
	}
	return l.Name
}

func deviceArgs(request mcp.CallToolRequest) (device.Kind, int, error) {
	k, err := requiredString(request, "kind")
	if err != nil {
		return "", 0, err
	}
	kind, err := device.ParseKind(k)
	if err != nil {
		return "", 0, err
	}
	id, err := requiredInt(request, "id")
	if err != nil {
		return "", 0, err
	}
	return kind, id, nil
}

func requiredString(request mcp.CallToolRequest, key string) (string, error) {
	args := request.GetArguments()
	v, ok := args[key]
	if !ok || v == nil {
		return "", fmt.Errorf("required parameter %q is missing", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("parameter %q must be a non-empty string", key)
	}
	return s, nil
}

// requiredInt accepts JSON numbers, which arrive as float64.
func requiredInt(request mcp.CallToolRequest, key string) (int, error) {
	v, ok := request.GetArguments()[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("required parameter %q is missing", key)
	}
	switch n := v.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("parameter %q must be a whole number", key)
		}
		return int(n), nil
	case int:
		return n, nil
	}
	return 0, fmt.Errorf("parameter %q must be a number", key)
}

func formatJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal response: %s"}`, err)
	}
	return string(b)
}
