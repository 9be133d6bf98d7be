// Package tools defines the MCP tool surface of mysql-mcp. Every tool is a
// thin adapter: parameter extraction, one dispatcher or registry call, result
// shaping. All validation and execution lives behind the dispatcher.
package tools

import (
	"go.uber.org/zap"

	"github.com/mark3labs/mcp-go/server"

	"github.com/relaydb/mysql-mcp/pkg/registry"
	"github.com/relaydb/mysql-mcp/pkg/services"
)

// Deps contains the collaborators shared by all tools.
type Deps struct {
	Dispatcher *services.Dispatcher
	Registry   *registry.Registry
	Logger     *zap.Logger
	Version    string
}

// RegisterAll adds every tool to the MCP server.
func RegisterAll(s *server.MCPServer, deps *Deps) {
	RegisterConnectionTools(s, deps)
	RegisterStatementTools(s, deps)
	RegisterDDLTools(s, deps)
	RegisterSchemaTools(s, deps)
	RegisterHealthTool(s, deps)
}
