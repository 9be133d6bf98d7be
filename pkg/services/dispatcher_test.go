package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	_ "github.com/go-sql-driver/mysql" // lazy handles for stub resolvers
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydb/mysql-mcp/pkg/apperrors"
)

// stubResolver hands out a lazy, never-dialed handle. Validation failures
// must surface before the handle is ever used, so these tests need no
// database.
type stubResolver struct {
	db  *sql.DB
	err error
}

func (s *stubResolver) Resolve(id string) (*sql.DB, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.db, nil
}

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()

	db, err := sql.Open("mysql", "u:p@tcp(127.0.0.1:3306)/testdb")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewDispatcher(&stubResolver{db: db}, 10, nil)
}

func TestQueryRejectsNonSelect(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		sql      string
		sentinel error
	}{
		{
			name:     "insert via query",
			sql:      "INSERT INTO users (name) VALUES ('alice')",
			sentinel: apperrors.ErrCategoryMismatch,
		},
		{
			name:     "delete via query",
			sql:      "DELETE FROM users WHERE id = 1",
			sentinel: apperrors.ErrCategoryMismatch,
		},
		{
			name:     "drop table via query",
			sql:      "DROP TABLE users",
			sentinel: apperrors.ErrCategoryMismatch,
		},
		{
			name:     "multi-statement",
			sql:      "SELECT 1; SELECT 2",
			sentinel: apperrors.ErrParse,
		},
		{
			name:     "unparseable",
			sql:      "SELEKT 1",
			sentinel: apperrors.ErrParse,
		},
		{
			name:     "truncate",
			sql:      "TRUNCATE TABLE users",
			sentinel: apperrors.ErrUnsupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Query(ctx, "conn-1", tt.sql)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), "expected %v, got %v", tt.sentinel, err)
			assert.False(t, errors.Is(err, apperrors.ErrExecution), "gate must fire before execution")
		})
	}
}

func TestInsertRejectsMismatch(t *testing.T) {
	d := newTestDispatcher(t)

	_, err := d.Insert(context.Background(), "conn-1", "SELECT * FROM users")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrCategoryMismatch))

	_, err = d.Insert(context.Background(), "conn-1", "REPLACE INTO users (id) VALUES (1)")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnsupported))
}

func TestUpdateUnboundedGuard(t *testing.T) {
	d := newTestDispatcher(t)

	_, err := d.Update(context.Background(), "conn-1", "UPDATE users SET active = 0", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnbounded), "expected ErrUnbounded, got %v", err)
}

func TestDeleteUnboundedGuard(t *testing.T) {
	d := newTestDispatcher(t)

	_, err := d.Delete(context.Background(), "conn-1", "DELETE FROM users", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnbounded), "expected ErrUnbounded, got %v", err)
}

// The confirmation flag only downgrades the missing-WHERE guard; every other
// rejection is unaffected.
func TestAllowUnboundedDoesNotBypassOtherChecks(t *testing.T) {
	d := newTestDispatcher(t)

	_, err := d.Delete(context.Background(), "conn-1", "UPDATE users SET active = 0", true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrCategoryMismatch))

	_, err = d.Update(context.Background(), "conn-1", "SELECT 1; SELECT 2", true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrParse))
}

func TestCreateTableRejectsMismatch(t *testing.T) {
	d := newTestDispatcher(t)

	_, err := d.CreateTable(context.Background(), "conn-1", "DROP TABLE users")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrCategoryMismatch))
}

func TestCreateIndexRejectsDropIndex(t *testing.T) {
	d := newTestDispatcher(t)

	_, err := d.CreateIndex(context.Background(), "conn-1", "DROP INDEX idx ON users")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrCategoryMismatch))
}

// drop_index given a CREATE INDEX statement must fail as a mismatch, not
// silently create an index.
func TestDropIndexRejectsCreateIndexSQL(t *testing.T) {
	d := newTestDispatcher(t)

	_, err := d.DropIndex(context.Background(), "conn-1", DropIndexRequest{
		SQL: "CREATE INDEX idx_name ON users (name)",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrCategoryMismatch), "expected ErrCategoryMismatch, got %v", err)
}

func TestDropIndexValidatesNames(t *testing.T) {
	d := newTestDispatcher(t)

	tests := []struct {
		name string
		req  DropIndexRequest
	}{
		{name: "injection in index", req: DropIndexRequest{Index: "idx`; DROP TABLE users; --", Table: "users"}},
		{name: "injection in table", req: DropIndexRequest{Index: "idx_name", Table: "users; --"}},
		{name: "empty index", req: DropIndexRequest{Index: "", Table: "users"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.DropIndex(context.Background(), "conn-1", tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidIdentifier), "expected ErrInvalidIdentifier, got %v", err)
		})
	}
}

func TestDropTableValidatesName(t *testing.T) {
	d := newTestDispatcher(t)

	tests := []string{
		"users; DROP TABLE accounts",
		"users`",
		"a.b.c",
		"",
	}
	for _, table := range tests {
		_, err := d.DropTable(context.Background(), "conn-1", table)
		require.Error(t, err, "table %q", table)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidIdentifier), "table %q: got %v", table, err)
	}
}

func TestCreateSchemaValidatesName(t *testing.T) {
	d := newTestDispatcher(t)

	_, err := d.CreateSchema(context.Background(), "conn-1", "analytics; DROP DATABASE prod")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidIdentifier))

	_, err = d.CreateSchema(context.Background(), "conn-1", "analytics.events")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidIdentifier), "schema names cannot be qualified")
}

func TestResolverFailurePropagates(t *testing.T) {
	sentinel := fmt.Errorf("%w: conn-gone", apperrors.ErrConnectionNotFound)
	d := NewDispatcher(&stubResolver{err: sentinel}, 10, nil)

	_, err := d.Query(context.Background(), "conn-gone", "SELECT 1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConnectionNotFound))

	_, err = d.Describe(context.Background(), "conn-gone", "users")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConnectionNotFound))

	_, err = d.ListTables(context.Background(), "conn-gone", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConnectionNotFound))
}

func TestNewDispatcherDefaults(t *testing.T) {
	d := NewDispatcher(&stubResolver{}, 0, nil)
	assert.Equal(t, DefaultMaxRows, d.maxRows)
	assert.NotNil(t, d.logger)
}

func TestIsTextualType(t *testing.T) {
	assert.True(t, isTextualType("VARCHAR"))
	assert.True(t, isTextualType("JSON"))
	assert.True(t, isTextualType("DECIMAL"))
	assert.False(t, isTextualType("BLOB"))
	assert.False(t, isTextualType("BINARY"))
	assert.False(t, isTextualType("BIGINT"))
}
