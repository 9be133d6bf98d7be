package tools

import (
	"encoding/json"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/relaydb/mysql-mcp/pkg/apperrors"
	"github.com/relaydb/mysql-mcp/pkg/logging"
)

// ErrorResponse represents a structured error in tool results. Returning
// errors as tool results keeps the detail visible to the agent, instead of
// being swallowed as an opaque MCP protocol error.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorResult creates a tool result containing a structured error.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	resp := ErrorResponse{Error: true, Code: code, Message: message}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// errorResult maps an error from the registry or dispatcher onto a structured
// tool result. Every taxonomy kind keeps its own code so the agent can react
// to the specific failure; messages are credential-sanitized.
func errorResult(err error) *mcp.CallToolResult {
	return NewErrorResult(errorCode(err), logging.SanitizeError(err))
}

// errorCode resolves the machine-readable code for an error.
func errorCode(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrInvalidDescriptor):
		return "invalid_descriptor"
	case errors.Is(err, apperrors.ErrConnectFailed):
		return "connect_failed"
	case errors.Is(err, apperrors.ErrConnectionNotFound):
		return "connection_not_found"
	case errors.Is(err, apperrors.ErrParse):
		return "parse_error"
	case errors.Is(err, apperrors.ErrCategoryMismatch):
		return "category_mismatch"
	case errors.Is(err, apperrors.ErrUnsupported):
		return "unsupported_statement"
	case errors.Is(err, apperrors.ErrUnbounded):
		return "unbounded_statement"
	case errors.Is(err, apperrors.ErrInvalidIdentifier):
		return "invalid_identifier"
	case errors.Is(err, apperrors.ErrExecution):
		return executionErrorCode(err)
	default:
		return "internal_error"
	}
}

// executionErrorCode refines an execution error using the server's error
// number when the driver surfaced one.
func executionErrorCode(err error) string {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return "execution_error"
	}
	return mapMySQLNumberToCode(myErr.Number)
}

// mapMySQLNumberToCode maps a MySQL server error number to a readable code.
func mapMySQLNumberToCode(number uint16) string {
	switch number {
	case 1044, 1045, 1142, 1143: // access denied variants
		return "access_denied"
	case 1046: // no database selected
		return "no_database_selected"
	case 1049: // unknown database
		return "unknown_database"
	case 1050: // table already exists
		return "table_exists"
	case 1051, 1146: // unknown/missing table
		return "unknown_table"
	case 1054: // unknown column
		return "unknown_column"
	case 1061: // duplicate key name
		return "duplicate_key_name"
	case 1062: // duplicate entry
		return "unique_violation"
	case 1064: // parse error on the server
		return "syntax_error"
	case 1091: // can't drop index/column
		return "drop_target_missing"
	case 1048, 1364: // column cannot be null / no default
		return "not_null_violation"
	case 1365: // division by zero
		return "division_by_zero"
	case 1366: // incorrect value for column
		return "invalid_value"
	case 1406: // data too long
		return "value_too_long"
	case 1451, 1452: // foreign key violations
		return "foreign_key_violation"
	case 1205: // lock wait timeout
		return "lock_wait_timeout"
	case 1213: // deadlock
		return "deadlock"
	}
	return "execution_error"
}

// IsUserError reports whether the error is actionable by the caller (bad
// SQL, missing table, constraint violation, validation failure) rather than
// a server-side failure. User errors become structured tool results; the
// rest propagate as Go errors.
func IsUserError(err error) bool {
	switch {
	case errors.Is(err, apperrors.ErrInvalidDescriptor),
		errors.Is(err, apperrors.ErrConnectFailed),
		errors.Is(err, apperrors.ErrConnectionNotFound),
		errors.Is(err, apperrors.ErrParse),
		errors.Is(err, apperrors.ErrCategoryMismatch),
		errors.Is(err, apperrors.ErrUnsupported),
		errors.Is(err, apperrors.ErrUnbounded),
		errors.Is(err, apperrors.ErrInvalidIdentifier):
		return true
	}
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr)
}
