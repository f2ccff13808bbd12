package iocache

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/statdash/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateRuns_NoneBackend(t *testing.T) {
	err := MigrateRuns(schema.NoneBackend, "", -1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "migrations are not supported for NoneBackend")
}

func TestMigrateRuns_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test_migration.db")

	// Latest version
	require.NoError(t, MigrateRuns(schema.SQLiteBackend, dbPath, -1))

	_, err := os.Stat(dbPath)
	assert.NoError(t, err)
	assert.True(t, indexExists(t, dbPath), "index should exist at the latest version")

	// No-op
	assert.NoError(t, MigrateRuns(schema.SQLiteBackend, dbPath, -1))

	// Step down to version 2 drops the index
	require.NoError(t, MigrateRuns(schema.SQLiteBackend, dbPath, 2))
	assert.False(t, indexExists(t, dbPath))

	// Roll back everything
	require.NoError(t, MigrateRuns(schema.SQLiteBackend, dbPath, 0))

	// And back up
	assert.NoError(t, MigrateRuns(schema.SQLiteBackend, dbPath, 3))
	assert.True(t, indexExists(t, dbPath))
}

func TestMigrateRuns_SQLiteInMemory(t *testing.T) {
	require.NoError(t, MigrateRuns(schema.SQLiteBackend, ":memory:", -1))
}

func TestMigrateRuns_CompatibleWithStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	require.NoError(t, MigrateRuns(schema.SQLiteBackend, dbPath, -1))

	// Tables created by migrations are reused by the store
	store, err := NewRunStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, _, err = store.BeginRun(testNow, "align", "", nil)
	assert.NoError(t, err)
}

func TestMigrationsEmbedded(t *testing.T) {
	for _, backend := range []string{"sqlite", "mysql", "postgresql"} {
		t.Run(backend, func(t *testing.T) {
			entries, err := migrationsFS.ReadDir("migrations/" + backend)
			require.NoError(t, err)
			assert.Len(t, entries, 6, "three versions with up and down files")
		})
	}
}

func indexExists(t *testing.T, dbPath string) bool {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var count int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = 'idx_run_series_series_id'`).Scan(&count)
	require.NoError(t, err)
	return count > 0
}
