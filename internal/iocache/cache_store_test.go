package iocache

import (
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/statdash/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCacheStore(t *testing.T) *CacheStoreImpl {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	store, err := NewCacheStore(seriesTable, schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store.(*CacheStoreImpl)
}

func TestCacheStore_SQLite(t *testing.T) {
	t.Run("get missing key", func(t *testing.T) {
		store := newTestCacheStore(t)
		_, _, _, err := store.Get("missing")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("set then get", func(t *testing.T) {
		store := newTestCacheStore(t)
		ts := time.Now().Unix()
		require.NoError(t, store.Set("k1", []byte(`{"id":"GDP"}`), 1, ts))

		value, version, gotTs, err := store.Get("k1")
		require.NoError(t, err)
		assert.Equal(t, `{"id":"GDP"}`, string(value))
		assert.Equal(t, 1, version)
		assert.Equal(t, ts, gotTs)
	})

	t.Run("set overwrites", func(t *testing.T) {
		store := newTestCacheStore(t)
		require.NoError(t, store.Set("k1", []byte("old"), 1, 100))
		require.NoError(t, store.Set("k1", []byte("new"), 2, 200))

		value, version, ts, err := store.Get("k1")
		require.NoError(t, err)
		assert.Equal(t, "new", string(value))
		assert.Equal(t, 2, version)
		assert.Equal(t, int64(200), ts)
	})

	t.Run("delete", func(t *testing.T) {
		store := newTestCacheStore(t)
		require.NoError(t, store.Set("k1", []byte("v"), 1, 100))
		require.NoError(t, store.Delete("k1"))

		_, _, _, err := store.Get("k1")
		assert.ErrorIs(t, err, sql.ErrNoRows)

		// Deleting again is not an error
		assert.NoError(t, store.Delete("k1"))
	})

	t.Run("status", func(t *testing.T) {
		store := newTestCacheStore(t)

		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.Equal(t, "sqlite", status.Backend)
		assert.True(t, status.Connected)
		assert.Equal(t, 0, status.TotalEntries)

		require.NoError(t, store.Set("a", []byte("1"), 1, 1000))
		require.NoError(t, store.Set("b", []byte("2"), 1, 3000))

		status, err = store.GetStatus()
		require.NoError(t, err)
		assert.Equal(t, 2, status.TotalEntries)
		assert.Equal(t, time.Unix(3000, 0), status.LastEntryTime)
		assert.Equal(t, time.Unix(1000, 0), status.OldestEntryTime)
		assert.Greater(t, status.TableSizeBytes, int64(0))
	})

	t.Run("concurrent writes", func(t *testing.T) {
		store := newTestCacheStore(t)
		var wg sync.WaitGroup
		for i := range 20 {
			wg.Go(func() {
				key := string(rune('a' + i))
				assert.NoError(t, store.Set(key, []byte(key), 1, int64(i)))
			})
		}
		wg.Wait()

		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.Equal(t, 20, status.TotalEntries)
	})
}

func TestCacheStore_NoneBackend(t *testing.T) {
	store, err := NewCacheStore("test_table", schema.NoneBackend, "")
	require.NoError(t, err)

	_, _, _, err = store.Get("test_key")
	assert.Error(t, err, "Expected error from Get on none backend")

	assert.NoError(t, store.Set("test_key", []byte("test_value"), 1, 123456789))
	assert.NoError(t, store.Delete("test_key"))

	_, _, _, err = store.Get("test_key")
	assert.Error(t, err, "Expected error from Get after Set on none backend")

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "none", status.Backend)
	assert.False(t, status.Connected)

	assert.NoError(t, store.Close())
}

func TestNewCacheStore_Errors(t *testing.T) {
	t.Run("invalid table name", func(t *testing.T) {
		_, err := NewCacheStore("bad-name", schema.SQLiteBackend, ":memory:")
		assert.Error(t, err)
	})

	t.Run("unsupported backend", func(t *testing.T) {
		_, err := NewCacheStore(seriesTable, schema.DatabaseBackend("oracle"), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported backend")
	})
}

func TestGetCreateTableQuery(t *testing.T) {
	tests := []struct {
		backend  schema.DatabaseBackend
		contains []string
	}{
		{schema.SQLiteBackend, []string{`"series_cache"`, "BLOB", "INTEGER"}},
		{schema.MySQLBackend, []string{"`series_cache`", "LONGBLOB", "VARCHAR(255)"}},
		{schema.PostgreSQLBackend, []string{`"series_cache"`, "BYTEA", "BIGINT"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			query := getCreateTableQuery(seriesTable, tt.backend)
			for _, part := range tt.contains {
				assert.Contains(t, query, part)
			}
		})
	}
}

func TestGetUpsertQuery(t *testing.T) {
	tests := []struct {
		backend  schema.DatabaseBackend
		contains string
	}{
		{schema.SQLiteBackend, "INSERT OR REPLACE"},
		{schema.MySQLBackend, "ON DUPLICATE KEY UPDATE"},
		{schema.PostgreSQLBackend, "ON CONFLICT (cache_key) DO UPDATE"},
	}

	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			store := &CacheStoreImpl{tableName: seriesTable, backend: tt.backend}
			assert.Contains(t, store.getUpsertQuery(), tt.contains)
		})
	}
}
