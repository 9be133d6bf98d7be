package services

// ColumnInfo describes one result column of a query.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// QueryResult is the shaped output of a query operation. Rows are
// field-named objects so the transport can serialize them without knowing
// the statement.
type QueryResult struct {
	Columns   []ColumnInfo     `json:"columns"`
	Rows      []map[string]any `json:"rows"`
	RowCount  int              `json:"row_count"`
	Truncated bool             `json:"truncated,omitempty"`
}

// ExecResult is the shaped output of insert/update/delete operations.
type ExecResult struct {
	Status       string `json:"status"`
	RowsAffected int64  `json:"rows_affected"`
}

// StatusResult is the shaped output of DDL operations.
type StatusResult struct {
	Status string `json:"status"`
}

// ColumnDescription is one row of a describe operation, sourced from
// information_schema.columns.
type ColumnDescription struct {
	ColumnName             string  `json:"column_name"`
	DataType               string  `json:"data_type"`
	CharacterMaximumLength *int64  `json:"character_maximum_length"`
	ColumnDefault          *string `json:"column_default"`
	IsNullable             string  `json:"is_nullable"`
}

// DescribeResult is the shaped output of a describe operation.
type DescribeResult struct {
	Table   string              `json:"table"`
	Columns []ColumnDescription `json:"columns"`
}

// TableInfo is one row of a list_tables operation.
type TableInfo struct {
	TableName string `json:"table_name"`
}

// ListTablesResult is the shaped output of a list_tables operation.
type ListTablesResult struct {
	Schema string      `json:"schema,omitempty"`
	Tables []TableInfo `json:"tables"`
}
