package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/urmzd/nxbridge/pkg/db"
	"github.com/urmzd/nxbridge/pkg/device"
	"github.com/urmzd/nxbridge/pkg/device/schema"
	"github.com/urmzd/nxbridge/pkg/version"
)

const instructions = `Tools for an alarm panel reached through an NX-587E module.
Zones are sensor points and partitions are armable groups; both are numbered from 1.
Attribute values are booleans and "known" is false until the panel has reported them.
send_command accepts keypad function names (stay, exit, chime, ...) or a 4 or 6 digit user code.`

// Server exposes the alarm panel to MCP clients
type Server struct {
	mcpServer  *server.MCPServer
	controller device.Controller
	validator  *schema.Validator
	labels     db.LabelStore
	history    db.EventStore
}

// NewServer creates a new MCP server for the panel. labels and history may
// be nil, in which case the tools that need them report an error.
func NewServer(controller device.Controller, validator *schema.Validator, labels db.LabelStore, history db.EventStore) *Server {
	s := &Server{
		controller: controller,
		validator:  validator,
		labels:     labels,
		history:    history,
	}

	s.mcpServer = server.NewMCPServer(
		"nxbridge",
		version.Short(),
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	s.registerTools()

	return s
}

// ServeStdio starts the MCP server using stdio transport
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
