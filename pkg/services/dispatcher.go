// Package services implements the command dispatcher: the single entry
// surface through which every database operation flows. Each request is
// resolved against the registry, validated by the statement safety gate, and
// only then executed against the pooled handle.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/relaydb/mysql-mcp/pkg/apperrors"
	"github.com/relaydb/mysql-mcp/pkg/logging"
	sqlgate "github.com/relaydb/mysql-mcp/pkg/sql"
)

// Resolver looks up the pooled handle for a connection id. The registry
// implements it; tests substitute stubs.
type Resolver interface {
	Resolve(id string) (*sql.DB, error)
}

// DefaultMaxRows caps query results when no limit is configured.
const DefaultMaxRows = 1000

// Dispatcher validates and executes operations against registered
// connections. Handles are borrowed per operation and never retained.
//
// No operation retries automatically: statements may have side effects that
// must not be silently duplicated, so failures are reported to the caller as
// the terminal outcome.
type Dispatcher struct {
	resolver Resolver
	maxRows  int
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher. maxRows bounds query results; zero
// selects DefaultMaxRows.
func NewDispatcher(resolver Resolver, maxRows int, logger *zap.Logger) *Dispatcher {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{resolver: resolver, maxRows: maxRows, logger: logger}
}

// validate runs the statement safety gate: classify, then authorize for the
// invoked operation. The database is never touched on a validation failure.
// allowUnbounded downgrades the missing-WHERE guard when the caller
// explicitly confirmed a full-table statement.
func (d *Dispatcher) validate(op sqlgate.OperationKind, sqlText string, allowUnbounded bool) error {
	c, err := sqlgate.Classify(sqlText)
	if err != nil {
		return err
	}
	if err := sqlgate.Authorize(op, c); err != nil {
		if allowUnbounded && errors.Is(err, apperrors.ErrUnbounded) {
			d.logger.Warn("unbounded statement confirmed by caller",
				zap.String("operation", string(op)),
				zap.String("sql", logging.SanitizeQuery(sqlText)),
			)
			return nil
		}
		return err
	}
	return nil
}

// resolve looks up the connection, logging the failure once per request.
func (d *Dispatcher) resolve(op sqlgate.OperationKind, connID string) (*sql.DB, error) {
	db, err := d.resolver.Resolve(connID)
	if err != nil {
		d.logger.Debug("resolve failed",
			zap.String("operation", string(op)),
			zap.String("conn_id", connID),
		)
		return nil, err
	}
	return db, nil
}

// Query runs a single SELECT statement and returns rows as field-named
// objects, bounded by the configured row cap.
func (d *Dispatcher) Query(ctx context.Context, connID, sqlText string) (*QueryResult, error) {
	db, err := d.resolve(sqlgate.OpQuery, connID)
	if err != nil {
		return nil, err
	}
	if err := d.validate(sqlgate.OpQuery, sqlText, false); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrExecution, err)
	}
	defer rows.Close()

	result, err := d.collectRows(rows)
	if err != nil {
		return nil, err
	}

	d.logger.Debug("query completed",
		zap.String("conn_id", connID),
		zap.String("sql", logging.SanitizeQuery(sqlText)),
		zap.Int("rows", result.RowCount),
		zap.Bool("truncated", result.Truncated),
	)
	return result, nil
}

// Insert runs a single INSERT statement and reports affected rows.
func (d *Dispatcher) Insert(ctx context.Context, connID, sqlText string) (*ExecResult, error) {
	return d.execStatement(ctx, sqlgate.OpInsert, connID, sqlText, false)
}

// Update runs a single UPDATE statement. Statements without a WHERE clause
// are rejected unless allowUnbounded is set.
func (d *Dispatcher) Update(ctx context.Context, connID, sqlText string, allowUnbounded bool) (*ExecResult, error) {
	return d.execStatement(ctx, sqlgate.OpUpdate, connID, sqlText, allowUnbounded)
}

// Delete runs a single DELETE statement. Statements without a WHERE clause
// are rejected unless allowUnbounded is set.
func (d *Dispatcher) Delete(ctx context.Context, connID, sqlText string, allowUnbounded bool) (*ExecResult, error) {
	return d.execStatement(ctx, sqlgate.OpDelete, connID, sqlText, allowUnbounded)
}

func (d *Dispatcher) execStatement(ctx context.Context, op sqlgate.OperationKind, connID, sqlText string, allowUnbounded bool) (*ExecResult, error) {
	db, err := d.resolve(op, connID)
	if err != nil {
		return nil, err
	}
	if err := d.validate(op, sqlText, allowUnbounded); err != nil {
		return nil, err
	}

	res, err := db.ExecContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrExecution, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrExecution, err)
	}

	d.logger.Debug("statement executed",
		zap.String("operation", string(op)),
		zap.String("conn_id", connID),
		zap.String("sql", logging.SanitizeQuery(sqlText)),
		zap.Int64("rows_affected", affected),
	)
	return &ExecResult{Status: "success", RowsAffected: affected}, nil
}

// CreateTable runs a single CREATE TABLE statement.
func (d *Dispatcher) CreateTable(ctx context.Context, connID, sqlText string) (*StatusResult, error) {
	return d.execDDL(ctx, sqlgate.OpCreateTable, connID, sqlText)
}

// CreateIndex runs a single CREATE INDEX statement.
func (d *Dispatcher) CreateIndex(ctx context.Context, connID, sqlText string) (*StatusResult, error) {
	return d.execDDL(ctx, sqlgate.OpCreateIndex, connID, sqlText)
}

// DropTable drops the named table. The name may be schema-qualified. The
// generated statement still passes through the safety gate before executing.
func (d *Dispatcher) DropTable(ctx context.Context, connID, table string) (*StatusResult, error) {
	db, err := d.resolve(sqlgate.OpDropTable, connID)
	if err != nil {
		return nil, err
	}
	if err := sqlgate.ValidateTableName(table); err != nil {
		return nil, err
	}
	sqlText := "DROP TABLE IF EXISTS " + sqlgate.QuoteIdentifier(table)
	return d.execValidatedDDL(ctx, sqlgate.OpDropTable, db, connID, sqlText)
}

// DropIndexRequest carries the input of a drop_index operation: either a raw
// DROP INDEX statement, or the index and table names to build one from.
type DropIndexRequest struct {
	SQL   string
	Index string
	Table string
}

// DropIndex drops an index. When raw SQL is supplied it must classify as a
// drop-index statement; otherwise the statement is generated from the
// validated index and table names.
func (d *Dispatcher) DropIndex(ctx context.Context, connID string, req DropIndexRequest) (*StatusResult, error) {
	db, err := d.resolve(sqlgate.OpDropIndex, connID)
	if err != nil {
		return nil, err
	}

	sqlText := req.SQL
	if sqlText == "" {
		if err := sqlgate.ValidateIdentifier(req.Index); err != nil {
			return nil, err
		}
		if err := sqlgate.ValidateTableName(req.Table); err != nil {
			return nil, err
		}
		sqlText = "DROP INDEX " + sqlgate.QuoteIdentifier(req.Index) + " ON " + sqlgate.QuoteIdentifier(req.Table)
	}
	return d.execValidatedDDL(ctx, sqlgate.OpDropIndex, db, connID, sqlText)
}

// CreateSchema creates a database schema with the given name. The generated
// statement still passes through the safety gate before executing.
func (d *Dispatcher) CreateSchema(ctx context.Context, connID, name string) (*StatusResult, error) {
	db, err := d.resolve(sqlgate.OpCreateSchema, connID)
	if err != nil {
		return nil, err
	}
	if err := sqlgate.ValidateIdentifier(name); err != nil {
		return nil, err
	}
	sqlText := "CREATE DATABASE IF NOT EXISTS " + sqlgate.QuoteIdentifier(name)
	return d.execValidatedDDL(ctx, sqlgate.OpCreateSchema, db, connID, sqlText)
}

func (d *Dispatcher) execDDL(ctx context.Context, op sqlgate.OperationKind, connID, sqlText string) (*StatusResult, error) {
	db, err := d.resolve(op, connID)
	if err != nil {
		return nil, err
	}
	return d.execValidatedDDL(ctx, op, db, connID, sqlText)
}

// execValidatedDDL gates and executes a DDL statement, including statements
// this process generated itself.
func (d *Dispatcher) execValidatedDDL(ctx context.Context, op sqlgate.OperationKind, db *sql.DB, connID, sqlText string) (*StatusResult, error) {
	if err := d.validate(op, sqlText, false); err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, sqlText); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrExecution, err)
	}
	d.logger.Debug("ddl executed",
		zap.String("operation", string(op)),
		zap.String("conn_id", connID),
		zap.String("sql", logging.SanitizeQuery(sqlText)),
	)
	return &StatusResult{Status: "success"}, nil
}

// describeColumnsQuery lists column metadata in ordinal order for one table
// of the connection's current schema.
const describeColumnsQuery = `
SELECT
  COLUMN_NAME,
  CAST(DATA_TYPE AS CHAR),
  CHARACTER_MAXIMUM_LENGTH,
  CAST(COLUMN_DEFAULT AS CHAR),
  IS_NULLABLE
FROM information_schema.columns
WHERE table_schema = DATABASE() AND table_name = ?
ORDER BY ordinal_position`

// Describe returns column metadata for the named table. The name is bound as
// a parameter, never interpolated.
func (d *Dispatcher) Describe(ctx context.Context, connID, table string) (*DescribeResult, error) {
	db, err := d.resolve(sqlgate.OpDescribe, connID)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, describeColumnsQuery, table)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrExecution, err)
	}
	defer rows.Close()

	result := &DescribeResult{Table: table, Columns: []ColumnDescription{}}
	for rows.Next() {
		var (
			col     ColumnDescription
			maxLen  sql.NullInt64
			colDflt sql.NullString
		)
		if err := rows.Scan(&col.ColumnName, &col.DataType, &maxLen, &colDflt, &col.IsNullable); err != nil {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrExecution, err)
		}
		if maxLen.Valid {
			col.CharacterMaximumLength = &maxLen.Int64
		}
		if colDflt.Valid {
			col.ColumnDefault = &colDflt.String
		}
		result.Columns = append(result.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrExecution, err)
	}
	return result, nil
}

// listTablesQuery lists base tables of a schema; views are excluded.
const listTablesQuery = `
SELECT TABLE_NAME
FROM information_schema.tables
WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
ORDER BY TABLE_NAME`

// listTablesCurrentQuery is the same for the connection's current schema.
const listTablesCurrentQuery = `
SELECT TABLE_NAME
FROM information_schema.tables
WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE'
ORDER BY TABLE_NAME`

// ListTables returns the base tables of the named schema, or of the
// connection's current schema when schema is empty.
func (d *Dispatcher) ListTables(ctx context.Context, connID, schema string) (*ListTablesResult, error) {
	db, err := d.resolve(sqlgate.OpListTables, connID)
	if err != nil {
		return nil, err
	}

	var rows *sql.Rows
	if schema == "" {
		rows, err = db.QueryContext(ctx, listTablesCurrentQuery)
	} else {
		rows, err = db.QueryContext(ctx, listTablesQuery, schema)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrExecution, err)
	}
	defer rows.Close()

	result := &ListTablesResult{Schema: schema, Tables: []TableInfo{}}
	for rows.Next() {
		var t TableInfo
		if err := rows.Scan(&t.TableName); err != nil {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrExecution, err)
		}
		result.Tables = append(result.Tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrExecution, err)
	}
	return result, nil
}

// collectRows scans a generic result set into field-named row objects,
// stopping at the configured row cap.
func (d *Dispatcher) collectRows(rows *sql.Rows) (*QueryResult, error) {
	columnNames, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrExecution, err)
	}
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrExecution, err)
	}

	columns := make([]ColumnInfo, len(columnNames))
	for i, name := range columnNames {
		columns[i] = ColumnInfo{Name: name, Type: columnTypes[i].DatabaseTypeName()}
	}

	result := &QueryResult{Columns: columns, Rows: make([]map[string]any, 0)}
	for rows.Next() {
		if len(result.Rows) >= d.maxRows {
			result.Truncated = true
			break
		}

		values := make([]any, len(columnNames))
		valuePtrs := make([]any, len(columnNames))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrExecution, err)
		}

		rowMap := make(map[string]any, len(columnNames))
		for i, name := range columnNames {
			val := values[i]
			// The driver hands back []byte for text-ish columns; convert so
			// JSON output carries strings instead of base64.
			if b, ok := val.([]byte); ok && isTextualType(columnTypes[i].DatabaseTypeName()) {
				val = string(b)
			}
			rowMap[name] = val
		}
		result.Rows = append(result.Rows, rowMap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrExecution, err)
	}

	result.RowCount = len(result.Rows)
	return result, nil
}

// isTextualType reports whether a MySQL column type should surface as a JSON
// string. Binary types stay as raw bytes.
func isTextualType(dbType string) bool {
	switch dbType {
	case "CHAR", "VARCHAR", "TEXT", "TINYTEXT", "MEDIUMTEXT", "LONGTEXT",
		"ENUM", "SET", "JSON", "DECIMAL", "TIME", "YEAR":
		return true
	}
	return false
}
