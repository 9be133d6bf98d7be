// Package apperrors defines the sentinel errors shared across mysql-mcp.
// Callers wrap these with %w and match with errors.Is so every failure kind
// stays distinguishable at the tool boundary.
package apperrors

import "errors"

var (
	// ErrInvalidDescriptor indicates a malformed connection URI at register time.
	ErrInvalidDescriptor = errors.New("invalid connection descriptor")

	// ErrConnectFailed indicates the database was unreachable or rejected
	// authentication at register time.
	ErrConnectFailed = errors.New("connection failed")

	// ErrConnectionNotFound indicates an unknown or already-unregistered
	// connection id.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrParse indicates the SQL text did not parse as exactly one statement.
	ErrParse = errors.New("SQL parse failed")

	// ErrCategoryMismatch indicates the statement's category is not permitted
	// for the invoked operation.
	ErrCategoryMismatch = errors.New("statement category not allowed for operation")

	// ErrUnsupported indicates the statement parsed but uses a construct the
	// server does not execute.
	ErrUnsupported = errors.New("unsupported statement")

	// ErrUnbounded indicates a destructive statement lacks a restricting
	// WHERE clause and the caller did not confirm it.
	ErrUnbounded = errors.New("unbounded destructive statement")

	// ErrInvalidIdentifier indicates a caller-supplied table, index, or schema
	// name failed identifier validation.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrExecution indicates the database rejected or failed the statement at
	// runtime.
	ErrExecution = errors.New("execution failed")
)
