package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/relaydb/mysql-mcp/pkg/apperrors"
	"github.com/relaydb/mysql-mcp/pkg/registry"
	"github.com/relaydb/mysql-mcp/pkg/testhelpers"
)

// setupLiveDispatcher registers a real connection against the shared test
// MySQL and returns a dispatcher bound to it.
func setupLiveDispatcher(t *testing.T) (*Dispatcher, *registry.Registry, string) {
	t.Helper()

	mysqlC := testhelpers.GetTestMySQL(t)

	reg := registry.New(registry.Config{
		MaxOpenConns:    4,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
		ConnectTimeout:  10 * time.Second,
	}, zap.NewNop())
	t.Cleanup(func() { _ = reg.Close() })

	connID, err := reg.Register(context.Background(), mysqlC.URI)
	require.NoError(t, err)

	return NewDispatcher(reg, 1000, zap.NewNop()), reg, connID
}

func TestDispatcherLifecycleIntegration(t *testing.T) {
	d, reg, connID := setupLiveDispatcher(t)
	ctx := context.Background()

	table := fmt.Sprintf("it_users_%d", time.Now().UnixNano())

	// create table
	status, err := d.CreateTable(ctx, connID, fmt.Sprintf(
		"CREATE TABLE %s (id INT PRIMARY KEY AUTO_INCREMENT, name VARCHAR(50) NOT NULL, age INT)", table))
	require.NoError(t, err)
	assert.Equal(t, "success", status.Status)

	// insert
	ins, err := d.Insert(ctx, connID, fmt.Sprintf(
		"INSERT INTO %s (name, age) VALUES ('alice', 30), ('bob', 25)", table))
	require.NoError(t, err)
	assert.EqualValues(t, 2, ins.RowsAffected)

	// query
	res, err := d.Query(ctx, connID, fmt.Sprintf("SELECT id, name, age FROM %s ORDER BY id", table))
	require.NoError(t, err)
	require.Equal(t, 2, res.RowCount)
	assert.False(t, res.Truncated)
	assert.Equal(t, "alice", res.Rows[0]["name"])
	require.Len(t, res.Columns, 3)
	assert.Equal(t, "id", res.Columns[0].Name)

	// update with WHERE
	upd, err := d.Update(ctx, connID, fmt.Sprintf("UPDATE %s SET age = 31 WHERE name = 'alice'", table), false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, upd.RowsAffected)

	// unbounded update requires confirmation
	_, err = d.Update(ctx, connID, fmt.Sprintf("UPDATE %s SET age = 0", table), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnbounded))

	upd, err = d.Update(ctx, connID, fmt.Sprintf("UPDATE %s SET age = age + 1", table), true)
	require.NoError(t, err)
	assert.EqualValues(t, 2, upd.RowsAffected)

	// delete with WHERE
	del, err := d.Delete(ctx, connID, fmt.Sprintf("DELETE FROM %s WHERE name = 'bob'", table), false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, del.RowsAffected)

	// describe
	desc, err := d.Describe(ctx, connID, table)
	require.NoError(t, err)
	require.Len(t, desc.Columns, 3)
	assert.Equal(t, "id", desc.Columns[0].ColumnName)
	assert.Equal(t, "name", desc.Columns[1].ColumnName)
	assert.Equal(t, "varchar", desc.Columns[1].DataType)
	require.NotNil(t, desc.Columns[1].CharacterMaximumLength)
	assert.EqualValues(t, 50, *desc.Columns[1].CharacterMaximumLength)
	assert.Equal(t, "NO", desc.Columns[1].IsNullable)
	assert.Equal(t, "YES", desc.Columns[2].IsNullable)

	// list tables in current schema
	lst, err := d.ListTables(ctx, connID, "")
	require.NoError(t, err)
	found := false
	for _, ti := range lst.Tables {
		if ti.TableName == table {
			found = true
		}
	}
	assert.True(t, found, "expected %s in table list", table)

	// index lifecycle
	_, err = d.CreateIndex(ctx, connID, fmt.Sprintf("CREATE INDEX idx_it_name ON %s (name)", table))
	require.NoError(t, err)

	_, err = d.DropIndex(ctx, connID, DropIndexRequest{Index: "idx_it_name", Table: table})
	require.NoError(t, err)

	// dropping the same index again surfaces the server error
	_, err = d.DropIndex(ctx, connID, DropIndexRequest{Index: "idx_it_name", Table: table})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrExecution))

	// drop table; IF EXISTS makes a second drop succeed
	_, err = d.DropTable(ctx, connID, table)
	require.NoError(t, err)
	_, err = d.DropTable(ctx, connID, table)
	require.NoError(t, err)

	// unregister, then operations fail with connection_not_found
	require.NoError(t, reg.Unregister(connID))
	_, err = d.Query(ctx, connID, "SELECT 1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConnectionNotFound))

	err = reg.Unregister(connID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConnectionNotFound))
}

func TestQueryTruncationIntegration(t *testing.T) {
	mysqlC := testhelpers.GetTestMySQL(t)

	reg := registry.New(registry.Config{
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
		ConnectTimeout:  10 * time.Second,
	}, zap.NewNop())
	t.Cleanup(func() { _ = reg.Close() })

	connID, err := reg.Register(context.Background(), mysqlC.URI)
	require.NoError(t, err)

	d := NewDispatcher(reg, 3, zap.NewNop())
	ctx := context.Background()

	table := fmt.Sprintf("it_trunc_%d", time.Now().UnixNano())
	_, err = d.CreateTable(ctx, connID, fmt.Sprintf("CREATE TABLE %s (id INT PRIMARY KEY)", table))
	require.NoError(t, err)
	defer func() { _, _ = d.DropTable(ctx, connID, table) }()

	_, err = d.Insert(ctx, connID, fmt.Sprintf("INSERT INTO %s (id) VALUES (1), (2), (3), (4), (5)", table))
	require.NoError(t, err)

	res, err := d.Query(ctx, connID, fmt.Sprintf("SELECT id FROM %s ORDER BY id", table))
	require.NoError(t, err)
	assert.Equal(t, 3, res.RowCount)
	assert.True(t, res.Truncated)
}

func TestExecutionErrorsCarryServerDetail(t *testing.T) {
	d, _, connID := setupLiveDispatcher(t)
	ctx := context.Background()

	_, err := d.Query(ctx, connID, "SELECT * FROM table_that_does_not_exist_xyz")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrExecution))
}
