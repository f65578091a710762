package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
)

// Version is reported to MCP clients during initialization.
const Version = "0.1.0"

// NewMCPServer creates a configured MCP server with all twin tools registered.
func NewMCPServer(cfg Config) *server.MCPServer {
	return newMCPServer(NewHandlers(NewProxyClient(cfg)))
}

func newMCPServer(h *Handlers) *server.MCPServer {
	s := server.NewMCPServer("digitaltwin", Version)

	s.AddTool(ToolDeriveTwin, h.HandleDeriveTwin)
	s.AddTool(ToolListPresets, h.HandleListPresets)
	s.AddTool(ToolExplainChange, h.HandleExplainChange)
	s.AddTool(ToolGeneratePersona, h.HandleGeneratePersona)

	return s
}
