package cmd

import (
	"fmt"

	"github.com/huangsam/statdash/internal/contract"
	"github.com/huangsam/statdash/internal/iocache"
	"github.com/huangsam/statdash/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runsBackendFromConfig reads and validates the run store settings.
// An empty backend means run tracking is disabled.
func runsBackendFromConfig() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	// Handle empty backend as NoneBackend
	backend := schema.NoneBackend
	if backendStr := viper.GetString("runs-backend"); backendStr != "" {
		backend = schema.DatabaseBackend(backendStr)
	}
	connStr := viper.GetString("runs-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// runsSetup loads minimal configuration needed for run store operations.
// This is used by commands that need run access without full shared setup.
func runsSetup() error {
	backend, connStr, err := runsBackendFromConfig()
	if err != nil {
		return err
	}

	// Initialize stores with the loaded config (no series cache for runs commands)
	if err := iocache.InitStores("", "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize run store: %w", err)
	}

	cfg.RunsBackend = backend
	cfg.RunsDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")

	return nil
}

// runsSetupWrapper wraps runsSetup to provide PreRunE for runs commands.
func runsSetupWrapper(_ *cobra.Command, _ []string) error {
	return runsSetup()
}

// runsMigrateSetup loads minimal configuration needed for migrate operations.
// This is a specialized setup that does NOT initialize stores or create tables,
// allowing migrations to run on a fresh database.
func runsMigrateSetup() error {
	backend, connStr, err := runsBackendFromConfig()
	if err != nil {
		return err
	}

	cfg.RunsBackend = backend
	cfg.RunsDBConnect = connStr
	return nil
}

// runsMigrateSetupWrapper wraps runsMigrateSetup to provide PreRunE for migrate command.
func runsMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return runsMigrateSetup()
}

// runsCmd focused on run history management.
//
// Note: Runs subcommands use minimal initialization (runsSetup) instead of
// the full sharedSetup used by page commands.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage the history of align and page runs",
	Long: `Manage the history of align and page runs.

When --runs-backend is set, statdash records every align and page run:
- Run metadata (run key, command, page, timestamps, configuration, duration)
- Per-series fetch outcome (points, first and last period, cached or failed)

Aligned values are never stored; only run metadata is.

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, the default)

Subcommands:
  status  - Show run tracking statistics
  export  - Export run history to Parquet
  clear   - Remove all run history
  migrate - Run database schema migrations

Examples:
  # Track runs in SQLite
  statdash page employment --runs-backend sqlite

  # Export for analysis in DuckDB
  statdash runs export --runs-backend sqlite --output-file runs`,
}

// runsClearCmd clears the run history.
var runsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all run history",
	Long: `Delete all stored runs and per-series fetch records.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  statdash runs export --output-file backup
  statdash runs clear`,
	Run: func(_ *cobra.Command, _ []string) {
		backend, connStr, err := runsBackendFromConfig()
		if err != nil {
			contract.LogFatal("Failed to load run store config", err)
		}
		dbFilePath := contract.GetRunsDBFilePath()
		if backend == schema.SQLiteBackend && connStr != "" {
			dbFilePath = connStr
		}
		if err := iocache.ClearRuns(backend, dbFilePath, connStr); err != nil {
			contract.LogFatal("Failed to clear run history", err)
		}
		fmt.Println("Run history cleared successfully.")
	},
}

// runsStatusCmd shows run store status.
var runsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run tracking statistics and connection details",
	Long: `Show detailed information about run tracking.

Displays:
- Backend type and connection status
- Total number of runs stored
- Last and oldest run timestamps
- Total series fetched and failed across all runs
- Database table sizes

Examples:
  statdash runs status --runs-backend sqlite`,
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetRunStore()
		if store == nil {
			contract.LogFatal("Failed to get run status", fmt.Errorf("runs backend is not configured"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get run status", err)
		}
		iocache.PrintRunStatus(status)
	},
}

// runsExportCmd exports the run history to Parquet files.
var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run history to Parquet for BI tools and analytics",
	Long: `Export all stored runs to Parquet format for use with analytics tools.

Exports two datasets next to --output-file:
- <output-file>.runs.parquet - metadata about each run
- <output-file>.run_series.parquet - fetch outcome per series per run

An s3://bucket/key output file uploads both datasets to S3 using the default
AWS credential chain.

Examples:
  # Export all data
  statdash runs export --output-file statdash-runs

  # Query with DuckDB
  duckdb -c "SELECT * FROM read_parquet('statdash-runs.runs.parquet') LIMIT 10"`,
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteRunsExport(rootCtx, iocache.Manager.GetRunStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export run history", err)
		}
	},
}

// runsMigrateCmd runs database migrations for the run store.
var runsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  statdash runs migrate --runs-backend sqlite

  # Migrate to specific version
  statdash runs migrate --target-version 2

  # Rollback to initial state
  statdash runs migrate --target-version 0`,
	PreRunE: runsMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateRuns(cfg.RunsBackend, cfg.RunsDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
