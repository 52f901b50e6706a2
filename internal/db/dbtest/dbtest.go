package dbtest

import (
	"context"
	"testing"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/stretchr/testify/require"

	"github.com/stellar/anchor-demo/internal/db"
)

// OpenWithoutMigrations opens an empty in-memory database that is closed when the test ends.
func OpenWithoutMigrations(t *testing.T) db.ConnectionPool {
	t.Helper()

	pool, err := db.OpenDBConnectionPool(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, pool.Close())
	})

	return pool
}

// Open opens an in-memory database with every migration applied.
func Open(t *testing.T) db.ConnectionPool {
	t.Helper()

	pool := OpenWithoutMigrations(t)
	_, err := db.Migrate(context.Background(), pool, migrate.Up, 0)
	require.NoError(t, err)

	return pool
}
