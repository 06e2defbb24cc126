package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/droidloop/droidloop/pkg/dispatch"
	"github.com/droidloop/droidloop/pkg/player"
	"github.com/droidloop/droidloop/pkg/scenario"
)

type handlers struct {
	deps Deps
}

// HandleReplay implements the replay_scenario MCP tool.
func (h *handlers) HandleReplay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["scenario_file"].(string)
	if path == "" {
		return errorResult("scenario_file argument is required"), nil
	}

	cfg := h.deps.Defaults
	if mult, ok := args["speed_multiplier"].(float64); ok && mult > 0 {
		cfg.SpeedMultiplier = mult
	}
	if stop, ok := args["stop_on_error"].(bool); ok {
		cfg.StopOnError = stop
	}
	deviceID, _ := args["device_id"].(string)

	p, err := player.New(h.deps.Automator, deviceID, cfg, h.deps.Log)
	if err != nil {
		return errorResult("invalid replay configuration: " + err.Error()), nil
	}

	summary := p.Replay(path)
	data, _ := json.MarshalIndent(summary, "", "  ")
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(data))},
		IsError: !summary.Success,
	}, nil
}

// HandleValidate implements the validate_scenario MCP tool.
func (h *handlers) HandleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}

	issues := scenario.ValidateFile(path)
	if len(issues) > 0 {
		msgs := make([]string, len(issues))
		for i, issue := range issues {
			msgs[i] = issue.Error()
		}
		return errorResult(strings.Join(msgs, "; ")), nil
	}
	return textResult("scenario is valid"), nil
}

// HandleListTools implements the list_tools MCP tool.
func (h *handlers) HandleListTools(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d := dispatch.NewDispatcher(h.deps.Automator, h.deps.Log)

	type entry struct {
		Name      string `json:"name"`
		Category  string `json:"category"`
		Signature string `json:"signature"`
		Supported bool   `json:"supported"`
	}
	var out []entry
	for _, e := range dispatch.CatalogEntries() {
		out = append(out, entry{
			Name:      e.Name,
			Category:  e.Category,
			Signature: d.Signature(e.Name),
			Supported: d.IsSupported(e.Name),
		})
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	return textResult(string(data)), nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(text)},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(msg)},
		IsError: true,
	}
}
