// Package mcp exposes droidloop over the Model Context Protocol so agent
// frontends can trigger replays and inspect tool support.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/droidloop/droidloop/internal/logger"
	"github.com/droidloop/droidloop/pkg/dispatch"
	"github.com/droidloop/droidloop/pkg/execution"
)

// Deps carries the collaborators the MCP handlers need.
type Deps struct {
	Automator dispatch.Automator
	Defaults  execution.Config
	Log       logger.Logger
}

// NewServer creates an MCP server with the droidloop tools registered.
func NewServer(version string, deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"droidloop",
		version,
		server.WithToolCapabilities(true),
	)

	h := &handlers{deps: deps}

	s.AddTool(
		mcp.NewTool("replay_scenario",
			mcp.WithDescription("Replay a recorded scenario from a JSON file"),
			mcp.WithString("scenario_file", mcp.Required(), mcp.Description("Path to the scenario JSON file")),
			mcp.WithString("device_id", mcp.Description("Specific device serial (default: device recorded in the scenario)")),
			mcp.WithNumber("speed_multiplier", mcp.Description("Delay scaling; >1 replays faster, <1 slower")),
			mcp.WithBoolean("stop_on_error", mcp.Description("Halt at the first failed action")),
		),
		h.HandleReplay,
	)

	s.AddTool(
		mcp.NewTool("validate_scenario",
			mcp.WithDescription("Validate a scenario JSON file against the scenario schema"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the scenario JSON file")),
		),
		h.HandleValidate,
	)

	s.AddTool(
		mcp.NewTool("list_tools",
			mcp.WithDescription("List the replayable tool catalog and which tools the connected automator supports"),
		),
		h.HandleListTools,
	)

	return s
}
