package iocache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/statdash/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func resetGlobals(t *testing.T) {
	t.Helper()
	initOnce = sync.Once{}
	closeOnce = sync.Once{}
	Manager = &CacheStoreManager{}
	t.Cleanup(CloseCaching)
}

func TestInitStores(t *testing.T) {
	t.Run("single setup", func(t *testing.T) {
		resetGlobals(t)
		dir := t.TempDir()
		cachePath := filepath.Join(dir, "cache.db")
		runsPath := filepath.Join(dir, "runs.db")

		err := InitStores(schema.SQLiteBackend, cachePath, schema.SQLiteBackend, runsPath)
		require.NoError(t, err)

		assert.NotNil(t, Manager.GetSeriesStore(), "Series store should not be nil")
		assert.NotNil(t, Manager.GetRunStore(), "Run store should not be nil")

		for _, path := range []string{cachePath, runsPath} {
			_, err = os.Stat(path)
			assert.NoError(t, err, "Database file should be created")
		}
	})

	t.Run("idempotent setup", func(t *testing.T) {
		resetGlobals(t)
		cachePath := filepath.Join(t.TempDir(), "cache.db")

		// Multiple initializations should be safe (sync.Once)
		assert.NoError(t, InitStores(schema.SQLiteBackend, cachePath, "", ""))
		assert.NoError(t, InitStores(schema.SQLiteBackend, cachePath, "", ""))

		// Multiple closes should be safe (sync.Once)
		CloseCaching()
		CloseCaching()
	})

	t.Run("disabled stores", func(t *testing.T) {
		resetGlobals(t)
		require.NoError(t, InitStores("", "", "", ""))
		assert.Nil(t, Manager.GetSeriesStore())
		assert.Nil(t, Manager.GetRunStore())
	})

	t.Run("none backend", func(t *testing.T) {
		resetGlobals(t)
		require.NoError(t, InitStores(schema.NoneBackend, "", schema.NoneBackend, ""))

		store := Manager.GetSeriesStore()
		require.NotNil(t, store)
		_, _, _, err := store.Get("anything")
		assert.Error(t, err)
	})

	t.Run("bad runs backend closes series store", func(t *testing.T) {
		resetGlobals(t)
		cachePath := filepath.Join(t.TempDir(), "cache.db")
		err := InitStores(schema.SQLiteBackend, cachePath, schema.DatabaseBackend("oracle"), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to initialize run store")
		assert.Nil(t, Manager.GetSeriesStore())
	})
}

func TestClearCache(t *testing.T) {
	t.Run("sqlite removes file", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "cache.db")
		store, err := NewCacheStore(seriesTable, schema.SQLiteBackend, dbPath)
		require.NoError(t, err)
		require.NoError(t, store.Set("k", []byte("v"), 1, 1))
		require.NoError(t, store.Close())

		require.NoError(t, ClearCache(schema.SQLiteBackend, dbPath, ""))
		_, err = os.Stat(dbPath)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("sqlite missing file is fine", func(t *testing.T) {
		assert.NoError(t, ClearCache(schema.SQLiteBackend, filepath.Join(t.TempDir(), "nope.db"), ""))
	})

	t.Run("sqlite requires path", func(t *testing.T) {
		assert.Error(t, ClearCache(schema.SQLiteBackend, "", ""))
	})

	t.Run("none backend", func(t *testing.T) {
		assert.NoError(t, ClearCache(schema.NoneBackend, "", ""))
	})

	t.Run("unsupported backend", func(t *testing.T) {
		assert.Error(t, ClearCache(schema.DatabaseBackend("oracle"), "", ""))
	})
}

func TestClearRuns(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	store, err := NewRunStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	_, _, err = store.BeginRun(testNow, "align", "", nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, ClearRuns(schema.SQLiteBackend, dbPath, ""))
	_, err = os.Stat(dbPath)
	assert.True(t, os.IsNotExist(err))
}

func TestCacheStoreManager(t *testing.T) {
	series := &MockCacheStore{}
	runs := &MockRunStore{}
	mgr := NewCacheStoreManager(series, runs)

	assert.Same(t, series, mgr.GetSeriesStore())
	assert.Same(t, runs, mgr.GetRunStore())
}
