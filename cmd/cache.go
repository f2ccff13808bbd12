package cmd

import (
	"fmt"

	"github.com/huangsam/statdash/core"
	"github.com/huangsam/statdash/internal/contract"
	"github.com/huangsam/statdash/internal/iocache"
	"github.com/huangsam/statdash/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get cache-related config values
	backend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	connStr := viper.GetString("cache-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// Initialize caching with the loaded config (no run tracking for cache commands)
	if err := iocache.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	cacheManager = iocache.Manager

	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands use minimal initialization (cacheSetup) instead of
// the full sharedSetup used by page commands. This avoids API and page
// validation for simple cache operations.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the series cache (avoids refetching)",
	Long: `Manage the cache of fetched series that speeds up repeated page renders.

statdash caches every successfully fetched series, keyed by series id and filters.
Entries expire after --cache-ttl (24h by default).

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status     - Show cache statistics and connection info
  clear      - Remove all cached data
  invalidate - Remove cached copies of specific series

Examples:
  # Check cache status
  statdash cache status

  # Refetch one series on the next render
  statdash cache invalidate CES0000000001`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached series",
	Long: `Delete all cached series from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table

Examples:
  # Clear SQLite cache (default)
  statdash cache clear

  # Clear MySQL cache (set connection string via env variable)
  STATDASH_CACHE_BACKEND=mysql STATDASH_CACHE_DB_CONNECT="..." statdash cache clear`,
	Run: func(_ *cobra.Command, _ []string) {
		if err := loadConfigFile(); err != nil {
			contract.LogFatal("Failed to load config", err)
		}
		backend := schema.DatabaseBackend(viper.GetString("cache-backend"))
		connStr := viper.GetString("cache-db-connect")
		dbFilePath := contract.GetCacheDBFilePath()
		if backend == schema.SQLiteBackend && connStr != "" {
			dbFilePath = connStr
		}
		if err := iocache.ClearCache(backend, dbFilePath, connStr); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show detailed information about the series cache.

Displays:
- Backend type and connection status
- Total number of cached series
- Last and oldest cache entry timestamps
- Cache database size

Examples:
  # Check cache status
  statdash cache status`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetSeriesStore()
		if store == nil {
			contract.LogFatal("Failed to get cache status", fmt.Errorf("cache backend is not configured"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(status)
	},
}

// cacheInvalidateCmd removes specific series from the cache.
var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate SERIES_ID...",
	Short: "Remove cached copies of specific series",
	Long: `Remove the cached copy of each series under the given --filter values,
so the next render fetches it again. Other filter combinations stay cached.

Examples:
  statdash cache invalidate CES0000000001
  statdash cache invalidate LAUS-LF --filter area=ST0600000000000`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		filters, err := contract.ParseFilters(viper.GetString("filter"))
		if err != nil {
			contract.LogFatal("Invalid --filter", err)
		}
		for _, id := range args {
			if err := core.InvalidateSeries(cacheManager, id, filters); err != nil {
				contract.LogFatal("Failed to invalidate cache", err)
			}
		}
		fmt.Printf("Invalidated %d series.\n", len(args))
	},
}
