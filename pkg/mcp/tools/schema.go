package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterSchemaTools adds read-only schema inspection tools: describe and
// list_tables.
func RegisterSchemaTools(s *server.MCPServer, deps *Deps) {
	registerDescribeTool(s, deps)
	registerListTablesTool(s, deps)
}

func registerDescribeTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"describe",
		mcp.WithDescription(
			"Describe a table: column names, data types, maximum lengths, defaults, and nullability, "+
				"in ordinal order.",
		),
		mcp.WithString("conn_id", mcp.Required(), mcp.Description("Connection id")),
		mcp.WithString("table", mcp.Required(), mcp.Description("Table name in the connection's current schema")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		connID, err := req.RequireString("conn_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		table, err := req.RequireString("table")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		result, err := deps.Dispatcher.Describe(ctx, connID, table)
		if err != nil {
			if IsUserError(err) {
				return errorResult(err), nil
			}
			return nil, fmt.Errorf("describe failed: %w", err)
		}
		return jsonResult(result)
	})
}

func registerListTablesTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"list_tables",
		mcp.WithDescription(
			"List base tables of a schema. Uses the connection's current schema when schema is omitted.",
		),
		mcp.WithString("conn_id", mcp.Required(), mcp.Description("Connection id")),
		mcp.WithString("schema", mcp.Description("Schema name (default: connection's current schema)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		connID, err := req.RequireString("conn_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		schema := optionalString(req, "schema")

		result, err := deps.Dispatcher.ListTables(ctx, connID, schema)
		if err != nil {
			if IsUserError(err) {
				return errorResult(err), nil
			}
			return nil, fmt.Errorf("list_tables failed: %w", err)
		}
		return jsonResult(result)
	})
}
