package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/relaydb/mysql-mcp/pkg/registry"
)

type healthResult struct {
	Status      string               `json:"status"`
	Version     string               `json:"version"`
	Connections []registry.PoolStats `json:"connections"`
}

// RegisterHealthTool adds a health check tool returning server status,
// version, and per-connection pool counters.
func RegisterHealthTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"health",
		mcp.WithDescription("Returns server health status, version, and connection pool counters"),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(healthResult{
			Status:      "ok",
			Version:     deps.Version,
			Connections: deps.Registry.Stats(),
		})
	})
}
