package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/relaydb/mysql-mcp/pkg/services"
)

// RegisterDDLTools adds schema-change tools: create_table, drop_table,
// create_index, drop_index, create_schema.
func RegisterDDLTools(s *server.MCPServer, deps *Deps) {
	registerCreateTableTool(s, deps)
	registerDropTableTool(s, deps)
	registerCreateIndexTool(s, deps)
	registerDropIndexTool(s, deps)
	registerCreateSchemaTool(s, deps)
}

func registerCreateTableTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"create_table",
		mcp.WithDescription("Create a new table from a single CREATE TABLE statement."),
		mcp.WithString("conn_id", mcp.Required(), mcp.Description("Connection id")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Single SQL CREATE TABLE statement")),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		connID, err := req.RequireString("conn_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		sqlText, err := req.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		result, err := deps.Dispatcher.CreateTable(ctx, connID, sqlText)
		if err != nil {
			if IsUserError(err) {
				return errorResult(err), nil
			}
			return nil, fmt.Errorf("create_table failed: %w", err)
		}
		return jsonResult(result)
	})
}

func registerDropTableTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"drop_table",
		mcp.WithDescription(
			"Drop a table by name. Format: table or schema.table; the current schema is used when unqualified.",
		),
		mcp.WithString("conn_id", mcp.Required(), mcp.Description("Connection id")),
		mcp.WithString("table", mcp.Required(), mcp.Description("Table name, optionally schema-qualified")),
		mcp.WithDestructiveHintAnnotation(true),
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

		result, err := deps.Dispatcher.DropTable(ctx, connID, table)
		if err != nil {
			if IsUserError(err) {
				return errorResult(err), nil
			}
			return nil, fmt.Errorf("drop_table failed: %w", err)
		}
		return jsonResult(result)
	})
}

func registerCreateIndexTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"create_index",
		mcp.WithDescription("Create an index from a single CREATE INDEX statement."),
		mcp.WithString("conn_id", mcp.Required(), mcp.Description("Connection id")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Single SQL CREATE INDEX statement")),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		connID, err := req.RequireString("conn_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		sqlText, err := req.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		result, err := deps.Dispatcher.CreateIndex(ctx, connID, sqlText)
		if err != nil {
			if IsUserError(err) {
				return errorResult(err), nil
			}
			return nil, fmt.Errorf("create_index failed: %w", err)
		}
		return jsonResult(result)
	})
}

func registerDropIndexTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"drop_index",
		mcp.WithDescription(
			"Drop an index. Provide index and table names, or a single DROP INDEX statement via query.",
		),
		mcp.WithString("conn_id", mcp.Required(), mcp.Description("Connection id")),
		mcp.WithString("index", mcp.Description("Index name")),
		mcp.WithString("table", mcp.Description("Table name, optionally schema-qualified")),
		mcp.WithString("query", mcp.Description("Single SQL DROP INDEX statement (alternative to index/table)")),
		mcp.WithDestructiveHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		connID, err := req.RequireString("conn_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		dropReq := services.DropIndexRequest{
			SQL:   optionalString(req, "query"),
			Index: optionalString(req, "index"),
			Table: optionalString(req, "table"),
		}
		if dropReq.SQL == "" && (dropReq.Index == "" || dropReq.Table == "") {
			return mcp.NewToolResultError("either query or both index and table are required"), nil
		}

		result, err := deps.Dispatcher.DropIndex(ctx, connID, dropReq)
		if err != nil {
			if IsUserError(err) {
				return errorResult(err), nil
			}
			return nil, fmt.Errorf("drop_index failed: %w", err)
		}
		return jsonResult(result)
	})
}

func registerCreateSchemaTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"create_schema",
		mcp.WithDescription("Create a new database schema by name."),
		mcp.WithString("conn_id", mcp.Required(), mcp.Description("Connection id")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Schema name")),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		connID, err := req.RequireString("conn_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		name, err := req.RequireString("name")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		result, err := deps.Dispatcher.CreateSchema(ctx, connID, name)
		if err != nil {
			if IsUserError(err) {
				return errorResult(err), nil
			}
			return nil, fmt.Errorf("create_schema failed: %w", err)
		}
		return jsonResult(result)
	})
}
