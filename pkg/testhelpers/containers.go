package testhelpers

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ekaya-inc/pcb-lookup/pkg/config"
	"github.com/ekaya-inc/pcb-lookup/pkg/models"
)

// PostgresTestImage is the stock image the lookup integration tests run against.
const PostgresTestImage = "postgres:16-alpine"

const (
	testDBName     = "Atomberg_Electrolyte"
	testDBUser     = "pcb"
	testDBPassword = "test_password"
)

// TestDB holds a shared PostgreSQL container seeded with SampleRows.
type TestDB struct {
	Container testcontainers.Container
	Pool      *pgxpool.Pool
	ConnStr   string
	Config    config.DatabaseConfig
}

var (
	sharedTestDB     *TestDB
	sharedTestDBOnce sync.Once
	sharedTestDBErr  error
)

// GetTestDB returns a shared PostgreSQL container for integration tests.
// The container is created once and reused across all tests in the run.
func GetTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedTestDBOnce.Do(func() {
		sharedTestDB, sharedTestDBErr = setupTestDB()
	})

	if sharedTestDBErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedTestDBErr)
	}

	return sharedTestDB
}

func setupTestDB() (*TestDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        PostgresTestImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       testDBName,
			"POSTGRES_USER":     testDBUser,
			"POSTGRES_PASSWORD": testDBPassword,
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
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

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	portNum, err := strconv.Atoi(port.Port())
	if err != nil {
		return nil, fmt.Errorf("invalid mapped port %q: %w", port.Port(), err)
	}

	dbCfg := config.DatabaseConfig{
		Host:           host,
		Port:           portNum,
		User:           testDBUser,
		Password:       testDBPassword,
		Database:       testDBName,
		SSLMode:        "disable",
		MaxConnections: 5,
		MaxConnIdle:    30 * time.Second,
		ConnectTimeout: 5 * time.Second,
	}
	connStr := dbCfg.ConnectionString()

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection with retry
	for i := 0; i < 10; i++ {
		if err = pool.Ping(ctx); err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		return nil, fmt.Errorf("test database never became reachable: %w", err)
	}

	if err := seed(ctx, pool, SampleRows()); err != nil {
		return nil, err
	}

	return &TestDB{
		Container: container,
		Pool:      pool,
		ConnStr:   connStr,
		Config:    dbCfg,
	}, nil
}

func seed(ctx context.Context, pool *pgxpool.Pool, rows []RepairRow) error {
	if _, err := pool.Exec(ctx, CreateTableSQL); err != nil {
		return fmt.Errorf("failed to create manufacturing_data: %w", err)
	}

	values := make([][]any, len(rows))
	for i, r := range rows {
		values[i] = r.Values()
	}
	if _, err := pool.CopyFrom(ctx, pgx.Identifier{"manufacturing_data"}, models.SourceColumns, pgx.CopyFromRows(values)); err != nil {
		return fmt.Errorf("failed to seed manufacturing_data: %w", err)
	}
	return nil
}
