package tools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// jsonResult marshals v into a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// optionalBool extracts an optional boolean parameter from the request.
func optionalBool(req mcp.CallToolRequest, key string) (bool, bool) {
	if args, ok := req.Params.Arguments.(map[string]any); ok {
		if val, ok := args[key].(bool); ok {
			return val, true
		}
	}
	return false, false
}

// optionalString extracts an optional string parameter from the request.
func optionalString(req mcp.CallToolRequest, key string) string {
	if args, ok := req.Params.Arguments.(map[string]any); ok {
		if val, ok := args[key].(string); ok {
			return val
		}
	}
	return ""
}
