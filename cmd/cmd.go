// Package cmd defines the command-line interface for statdash.
package cmd

import (
	"github.com/huangsam/statdash/internal/contract"
	"github.com/huangsam/statdash/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(alignCmd)
	rootCmd.AddCommand(pageCmd)
	rootCmd.AddCommand(pagesCmd)
	rootCmd.AddCommand(dimensionsCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(formatCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsClearCmd)
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet or png")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path or s3://bucket/key to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for change columns")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent series fetches")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored changes in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Print diagnostic logs to stderr")
	rootCmd.PersistentFlags().String("api-url", contract.DefaultAPIURL, "Base URL of the statistics API")
	rootCmd.PersistentFlags().String("api-key", "", "API key sent with every request (prefer STATDASH_API_KEY)")
	rootCmd.PersistentFlags().String("timeout", contract.DefaultTimeout.String(), "Timeout per API request")
	rootCmd.PersistentFlags().Float64("rate-limit", contract.DefaultRateLimit, "Maximum API requests per second (0 = unlimited)")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("cache-ttl", contract.DefaultCacheTTL.String(), "How long cached series stay fresh (0 = forever)")
	rootCmd.PersistentFlags().String("runs-backend", "", "Run tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("runs-db-connect", "", "Database connection string for run tracking (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("granularity", "", "Series granularity: annual or quarterly or monthly (overrides the page)")
	rootCmd.PersistentFlags().String("lookback", "", "Lookback: 'all' or a number of calendar years (overrides the page)")
	rootCmd.PersistentFlags().String("filter", "", "Dimension filters as key=value pairs separated by commas")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of pageCmd to Viper
	pageCmd.Flags().Bool("watch", false, "Re-render the page when the config file changes")
	if err := viper.BindPFlags(pageCmd.Flags()); err != nil {
		contract.LogFatal("Error binding page flags", err)
	}

	// Bind all flags of snapshotCmd to Viper
	snapshotCmd.Flags().String("period", "", "Period of the snapshot (defaults to the latest)")
	if err := viper.BindPFlags(snapshotCmd.Flags()); err != nil {
		contract.LogFatal("Error binding snapshot flags", err)
	}

	// Flags of formatCmd are read directly since they are not configuration
	formatCmd.Flags().String("unit", "", "Unit of the value (dollars, percent, index, persons, ...)")
	formatCmd.Flags().Int("unit-scale", 0, "Power of ten the value is expressed in (9 for billions)")

	// Bind all flags of runsMigrateCmd to Viper
	runsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(runsMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding runs migrate flags", err)
	}
}
