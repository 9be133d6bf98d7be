package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver for direct test connections
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// MySQLTestImage is the MySQL image used for integration tests.
const MySQLTestImage = "mysql:8.4"

const (
	testUser     = "relay"
	testPassword = "test_password"
	testDatabase = "test_data"
)

// TestMySQL holds a shared test MySQL container and its coordinates.
type TestMySQL struct {
	Container testcontainers.Container
	// URI is the mysql:// descriptor accepted by the connection registry.
	URI string
	// DSN is the go-sql-driver DSN for direct database/sql access.
	DSN string
}

var (
	sharedTestMySQL     *TestMySQL
	sharedTestMySQLOnce sync.Once
	sharedTestMySQLErr  error
)

// GetTestMySQL returns a shared MySQL container for integration tests.
// The container is created once and reused across all tests in the run.
func GetTestMySQL(t *testing.T) *TestMySQL {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedTestMySQLOnce.Do(func() {
		sharedTestMySQL, sharedTestMySQLErr = setupTestMySQL()
	})

	if sharedTestMySQLErr != nil {
		t.Fatalf("Failed to setup test MySQL: %v", sharedTestMySQLErr)
	}

	return sharedTestMySQL
}

func setupTestMySQL() (*TestMySQL, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        MySQLTestImage,
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_DATABASE":             testDatabase,
			"MYSQL_USER":                 testUser,
			"MYSQL_PASSWORD":             testPassword,
			"MYSQL_RANDOM_ROOT_PASSWORD": "yes",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").
			WithStartupTimeout(120 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "3306")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	uri := fmt.Sprintf("mysql://%s:%s@%s:%s/%s",
		testUser, testPassword, host, port.Port(), testDatabase)
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		testUser, testPassword, host, port.Port(), testDatabase)

	// Verify connectivity with retry; the wait log fires slightly before the
	// server accepts external connections on some hosts.
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open verification connection: %w", err)
	}
	defer db.Close()

	for i := 0; i < 20; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		return nil, fmt.Errorf("test MySQL never became reachable: %w", err)
	}

	return &TestMySQL{
		Container: container,
		URI:       uri,
		DSN:       dsn,
	}, nil
}

// ExecSQL runs a statement directly against the test database, bypassing the
// safety gate. Intended for test fixtures and cleanup.
func (m *TestMySQL) ExecSQL(t *testing.T, stmt string, args ...any) {
	t.Helper()

	db, err := sql.Open("mysql", m.DSN)
	if err != nil {
		t.Fatalf("Failed to open fixture connection: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(stmt, args...); err != nil {
		t.Fatalf("Fixture statement failed: %v", err)
	}
}
