package cmd

import (
	"context"
	"path/filepath"
	"testing"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellar/anchor-demo/internal/data"
	"github.com/stellar/anchor-demo/internal/db"
)

func TestExecuteMigrations(t *testing.T) {
	ctx := context.Background()
	databaseURL := filepath.Join(t.TempDir(), "history.db")

	require.NoError(t, executeMigrations(ctx, databaseURL, migrate.Up, 0))
	// applying them again is a no-op
	require.NoError(t, executeMigrations(ctx, databaseURL, migrate.Up, 0))

	dbConnectionPool, err := db.OpenDBConnectionPool(databaseURL)
	require.NoError(t, err)
	models, err := data.NewModels(dbConnectionPool)
	require.NoError(t, err)
	runs, err := models.Runs.List(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, runs)
	require.NoError(t, dbConnectionPool.Close())

	err = executeMigrations(ctx, "", migrate.Up, 0)
	assert.EqualError(t, err, "database-url cannot be empty")
}

func TestMigrationDirectionStr(t *testing.T) {
	assert.Equal(t, "up", migrationDirectionStr(migrate.Up))
	assert.Equal(t, "down", migrationDirectionStr(migrate.Down))
}
