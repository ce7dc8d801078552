package main

import (
	"testing"

	"github.com/cloudemu/engine/internal/testutil"
	"github.com/cloudemu/engine/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrationsOnSQLite(t *testing.T) {
	db := testutil.NewDB(t)

	require.NoError(t, runMigrations(db, database.DriverSQLite))
	// Idempotent.
	require.NoError(t, runMigrations(db, database.DriverSQLite))

	for _, idx := range []string{"idx_instances_created_at", "idx_db_instances_created_at"} {
		var n int64
		require.NoError(t, db.Raw(`SELECT count(*) FROM sqlite_master WHERE type = 'index' AND name = ?`, idx).Scan(&n).Error)
		assert.Equal(t, int64(1), n, idx)
	}
}
