package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterStatementTools adds the free-SQL statement tools: query, insert,
// update, delete.
func RegisterStatementTools(s *server.MCPServer, deps *Deps) {
	registerQueryTool(s, deps)
	registerInsertTool(s, deps)
	registerUpdateTool(s, deps)
	registerDeleteTool(s, deps)
}

func registerQueryTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"query",
		mcp.WithDescription(
			"Execute a single SELECT query. Results are capped at the server's configured row limit; "+
				"add your own LIMIT clause to control result size.",
		),
		mcp.WithString("conn_id", mcp.Required(), mcp.Description("Connection id")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Single SQL SELECT statement")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
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

		result, err := deps.Dispatcher.Query(ctx, connID, sqlText)
		if err != nil {
			if IsUserError(err) {
				return errorResult(err), nil
			}
			return nil, fmt.Errorf("query failed: %w", err)
		}
		return jsonResult(result)
	})
}

func registerInsertTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"insert",
		mcp.WithDescription(
			"Execute a single INSERT statement. Multiple rows for the same table are allowed in one statement.",
		),
		mcp.WithString("conn_id", mcp.Required(), mcp.Description("Connection id")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Single SQL INSERT statement")),
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

		result, err := deps.Dispatcher.Insert(ctx, connID, sqlText)
		if err != nil {
			if IsUserError(err) {
				return errorResult(err), nil
			}
			return nil, fmt.Errorf("insert failed: %w", err)
		}
		return jsonResult(result)
	})
}

func registerUpdateTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"update",
		mcp.WithDescription(
			"Execute a single UPDATE statement. Statements without a WHERE clause are rejected "+
				"unless allow_unbounded is set to true.",
		),
		mcp.WithString("conn_id", mcp.Required(), mcp.Description("Connection id")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Single SQL UPDATE statement")),
		mcp.WithBoolean("allow_unbounded", mcp.Description("Confirm an UPDATE that affects every row (default: false)")),
		mcp.WithDestructiveHintAnnotation(true),
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
		allowUnbounded, _ := optionalBool(req, "allow_unbounded")

		result, err := deps.Dispatcher.Update(ctx, connID, sqlText, allowUnbounded)
		if err != nil {
			if IsUserError(err) {
				return errorResult(err), nil
			}
			return nil, fmt.Errorf("update failed: %w", err)
		}
		return jsonResult(result)
	})
}

func registerDeleteTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"delete",
		mcp.WithDescription(
			"Execute a single DELETE statement. Statements without a WHERE clause are rejected "+
				"unless allow_unbounded is set to true.",
		),
		mcp.WithString("conn_id", mcp.Required(), mcp.Description("Connection id")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Single SQL DELETE statement")),
		mcp.WithBoolean("allow_unbounded", mcp.Description("Confirm a DELETE that affects every row (default: false)")),
		mcp.WithDestructiveHintAnnotation(true),
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
		allowUnbounded, _ := optionalBool(req, "allow_unbounded")

		result, err := deps.Dispatcher.Delete(ctx, connID, sqlText, allowUnbounded)
		if err != nil {
			if IsUserError(err) {
				return errorResult(err), nil
			}
			return nil, fmt.Errorf("delete failed: %w", err)
		}
		return jsonResult(result)
	})
}
