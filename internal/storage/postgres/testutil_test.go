package postgres

import (
	"context"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Relative to the package directory, where go test runs.
const migrationsGlob = "../migrations/postgres/*.sql"

// newTestPool starts a throwaway PostgreSQL container with the schema
// loaded as init scripts. The container is terminated when t finishes.
func newTestPool(t *testing.T) *Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	scripts, err := filepath.Glob(migrationsGlob)
	require.NoError(t, err)
	require.NotEmpty(t, scripts, "no migrations matched %s", migrationsGlob)
	sort.Strings(scripts)

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("dashboard"),
		postgres.WithUsername("dashboard"),
		postgres.WithPassword("dashboard"),
		postgres.WithInitScripts(scripts...),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "connect to postgres container")
	t.Cleanup(pool.Close)
	return pool
}
