package mcp

import "github.com/mark3labs/mcp-go/mcp"

// registerTools registers all MCP tools with the server
func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("get_health",
			mcp.WithDescription("Check whether nxbridge is connected to the alarm panel"),
		),
		s.handleGetHealth,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_devices",
			mcp.WithDescription("List zones and partitions with their labels and current status flags"),
			mcp.WithString("kind",
				mcp.Description("Only list this kind of device"),
				mcp.Enum("zone", "partition"),
			),
		),
		s.handleListDevices,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_device",
			mcp.WithDescription("Get every status flag of one zone or partition"),
			mcp.WithString("kind",
				mcp.Required(),
				mcp.Enum("zone", "partition"),
			),
			mcp.WithNumber("id",
				mcp.Required(),
				mcp.Description("Zone or partition number, starting at 1"),
			),
		),
		s.handleGetDevice,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("query_attribute",
			mcp.WithDescription("Get one status flag of a zone (fault, tamper, bypass...) or partition (ready, armed, siren...)"),
			mcp.WithString("kind",
				mcp.Required(),
				mcp.Enum("zone", "partition"),
			),
			mcp.WithNumber("id",
				mcp.Required(),
				mcp.Description("Zone or partition number, starting at 1"),
			),
			mcp.WithString("attribute",
				mcp.Required(),
				mcp.Description("Status flag name"),
			),
		),
		s.handleQueryAttribute,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("send_command",
			mcp.WithDescription("Send a keypad function (stay, exit, chime, bypass, fire, medical...) or a 4 or 6 digit user code to the panel"),
			mcp.WithString("command",
				mcp.Required(),
				mcp.Description("Function name or user code"),
			),
		),
		s.handleSendCommand,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("rename_device",
			mcp.WithDescription("Set the friendly name of a zone or partition"),
			mcp.WithString("kind",
				mcp.Required(),
				mcp.Enum("zone", "partition"),
			),
			mcp.WithNumber("id",
				mcp.Required(),
				mcp.Description("Zone or partition number, starting at 1"),
			),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("New friendly name"),
			),
		),
		s.handleRenameDevice,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_events",
			mcp.WithDescription("List recorded status changes, newest first"),
			mcp.WithString("kind",
				mcp.Enum("zone", "partition"),
			),
			mcp.WithNumber("id",
				mcp.Description("Zone or partition number"),
			),
			mcp.WithString("attribute",
				mcp.Description("Status flag name"),
			),
			mcp.WithString("since",
				mcp.Description("Only events at or after this RFC 3339 timestamp"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of events (default 100)"),
			),
		),
		s.handleListEvents,
	)
}
