//go:build database

package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestRiskdashWithMySQL runs the CLI against a MySQL backend.
func TestRiskdashWithMySQL(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "riskdash",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/riskdash?parseTime=true", host, port.Port())
	runBackendScenario(t, "mysql", connStr)
}

// TestRiskdashWithPostgres runs the CLI against a PostgreSQL backend.
func TestRiskdashWithPostgres(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port())
	runBackendScenario(t, "postgresql", connStr)
}

// runBackendScenario scores the test corpus twice with run tracking and exports the history.
func runBackendScenario(t *testing.T, backend, connStr string) {
	t.Helper()
	env := []string{
		"RISKDASH_CACHE_BACKEND=" + backend,
		"RISKDASH_CACHE_DB_CONNECT=" + connStr,
		"RISKDASH_ANALYSIS_BACKEND=" + backend,
		"RISKDASH_ANALYSIS_DB_CONNECT=" + connStr,
	}
	corpus := corpusPath(t)

	_, err := runRiskdash(t, env, "cache", "clear")
	require.NoError(t, err)
	_, err = runRiskdash(t, env, "analysis", "clear")
	require.NoError(t, err)

	for range 2 {
		out, err := runRiskdash(t, env, "score", "--corpus", corpus, "--limit", "2", "--output", "csv")
		require.NoError(t, err)
		assert.Contains(t, out, "101")
	}

	out, err := runRiskdash(t, env, "analysis", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "2")

	_, err = runRiskdash(t, env, "cache", "status")
	require.NoError(t, err)

	exportBase := filepath.Join(t.TempDir(), "history")
	_, err = runRiskdash(t, env, "analysis", "export", "--output-file", exportBase)
	require.NoError(t, err)
	for _, suffix := range []string{".risk_runs.parquet", ".risk_records.parquet"} {
		info, err := os.Stat(exportBase + suffix)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	_, err = runRiskdash(t, env, "analysis", "migrate", "--target-version", "0")
	require.NoError(t, err)
	_, err = runRiskdash(t, env, "analysis", "migrate")
	require.NoError(t, err)
}
