package contract

import (
	"fmt"
	"maps"
	"net/url"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/statdash/schema"
)

// Default values for configuration.
const (
	DefaultAPIURL    = "http://localhost:8080/api/v1"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10.0
	DefaultCacheTTL  = 24 * time.Hour
	DefaultPrecision = 1
	MaxPrecision     = 4
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for a command.
// This struct remains the "final, validated" config.
type Config struct {
	Granularity schema.Granularity // Empty means "use the page's granularity"
	Lookback    *schema.Lookback   // Nil means "use the page's lookback"
	Filters     schema.Filters
	Period      string
	Watch       bool

	Workers    int
	Precision  int
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool
	Verbose    bool

	APIURL    string
	APIKey    string // Please use env var as this is plaintext
	Timeout   time.Duration
	RateLimit float64 // Requests per second, 0 = unlimited

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext
	CacheTTL       time.Duration

	RunsBackend   schema.DatabaseBackend
	RunsDBConnect string // Please use env var as this is plaintext

	// Pages are the user-defined pages from the config file. Built-in pages
	// are merged in by the pages package.
	Pages []schema.PageDefinition

	// ConfigFile is the config file viper read, if any. Used by page --watch.
	ConfigFile string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	Output         string  `mapstructure:"output"`
	OutputFile     string  `mapstructure:"output-file"`
	Precision      int     `mapstructure:"precision"`
	Workers        int     `mapstructure:"workers"`
	Color          string  `mapstructure:"color"`
	Width          int     `mapstructure:"width"`
	Verbose        bool    `mapstructure:"verbose"`
	APIURL         string  `mapstructure:"api-url"`
	APIKey         string  `mapstructure:"api-key"`
	Timeout        string  `mapstructure:"timeout"`
	RateLimit      float64 `mapstructure:"rate-limit"`
	CacheBackend   string  `mapstructure:"cache-backend"`
	CacheDBConnect string  `mapstructure:"cache-db-connect"`
	CacheTTL       string  `mapstructure:"cache-ttl"`
	RunsBackend    string  `mapstructure:"runs-backend"`
	RunsDBConnect  string  `mapstructure:"runs-db-connect"`

	// --- Fields from alignCmd and pageCmd flags ---
	Granularity string `mapstructure:"granularity"`
	Lookback    string `mapstructure:"lookback"`
	Filter      string `mapstructure:"filter"`
	Watch       bool   `mapstructure:"watch"`

	// --- Fields from snapshotCmd.Flags() ---
	Period string `mapstructure:"period"`

	// --- Page definitions from config file ---
	Pages []schema.PageDefinition `mapstructure:"pages"`

	// This is set manually from viper, so no tag
	ConfigFile string
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Filters != nil {
		clone.Filters = maps.Clone(c.Filters)
	}
	if c.Lookback != nil {
		lookback := *c.Lookback
		clone.Lookback = &lookback
	}
	if c.Pages != nil {
		clone.Pages = slices.Clone(c.Pages)
	}
	return &clone
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateAPIInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processAlignInputs(cfg, input); err != nil {
		return err
	}
	if err := processPages(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ParseLookback parses "all" or a non-negative number of years.
// An empty string returns nil so that page defaults apply.
func ParseLookback(s string) (*schema.Lookback, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return nil, nil
	}
	if s == "all" {
		lookback := schema.AllPeriods()
		return &lookback, nil
	}
	years, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("invalid lookback '%s'. must be 'all' or a number of years", s)
	}
	if years < 0 {
		return nil, fmt.Errorf("lookback years cannot be negative (received %d)", years)
	}
	lookback := schema.LastYears(years)
	return &lookback, nil
}

// ParseFilters parses "key=value,key=value" into Filters.
func ParseFilters(s string) (schema.Filters, error) {
	filters := schema.Filters{}
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter '%s', expected 'key=value'", part)
		}
		filters[key] = strings.TrimSpace(value)
	}
	return filters, nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// validateSimpleInputs processes and validates the output and concurrency fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Verbose = input.Verbose
	cfg.ConfigFile = input.ConfigFile

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 2. Precision and Output Validation ---
	if input.Precision < 0 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 0 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet, png", input.Output)
	}
	if cfg.Output == schema.ParquetOut || cfg.Output == schema.PNGOut {
		if cfg.OutputFile == "" {
			return fmt.Errorf("--output-file is required for %s output", cfg.Output)
		}
	}

	return nil
}

// validateAPIInputs validates how the statistics API is reached.
func validateAPIInputs(cfg *Config, input *ConfigRawInput) error {
	raw := strings.TrimRight(strings.TrimSpace(input.APIURL), "/")
	if raw == "" {
		raw = DefaultAPIURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid api url '%s': %w", input.APIURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api url must be an absolute http(s) URL (received %q)", input.APIURL)
	}
	cfg.APIURL = raw
	cfg.APIKey = input.APIKey

	cfg.Timeout = DefaultTimeout
	if input.Timeout != "" {
		timeout, err := time.ParseDuration(input.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout: %w", err)
		}
		if timeout <= 0 {
			return fmt.Errorf("timeout must be greater than 0 (received %s)", input.Timeout)
		}
		cfg.Timeout = timeout
	}

	if input.RateLimit < 0 {
		return fmt.Errorf("rate limit cannot be negative (received %.2f)", input.RateLimit)
	}
	cfg.RateLimit = input.RateLimit

	return nil
}

// validateBackendConfigs validates cache and run store backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	cfg.CacheTTL = DefaultCacheTTL
	if input.CacheTTL != "" {
		ttl, err := time.ParseDuration(input.CacheTTL)
		if err != nil {
			return fmt.Errorf("invalid cache ttl: %w", err)
		}
		if ttl < 0 {
			return fmt.Errorf("cache ttl cannot be negative (received %s)", input.CacheTTL)
		}
		cfg.CacheTTL = ttl
	}

	// --- Runs Backend Validation ---
	cfg.RunsBackend = schema.DatabaseBackend(strings.ToLower(input.RunsBackend))
	if cfg.RunsBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.RunsBackend]; !ok {
		return fmt.Errorf("invalid runs backend '%s'. must be sqlite, mysql, postgresql, none", input.RunsBackend)
	}
	cfg.RunsDBConnect = input.RunsDBConnect
	if err := ValidateDatabaseConnectionString(cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
		return err
	}

	// Validate that cache and runs use different databases
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.RunsBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		runsDBPath := cfg.RunsDBConnect
		if runsDBPath == "" {
			runsDBPath = GetRunsDBFilePath()
		}
		if cacheDBPath == runsDBPath {
			return fmt.Errorf("cache and run storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}

	return nil
}

// processAlignInputs handles granularity, lookback and filters shared by align and page.
func processAlignInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.Granularity = schema.Granularity(strings.ToLower(strings.TrimSpace(input.Granularity)))
	if cfg.Granularity != "" {
		if _, ok := schema.ValidGranularities[cfg.Granularity]; !ok {
			return fmt.Errorf("invalid granularity '%s'. must be annual, quarterly, monthly", input.Granularity)
		}
	}

	lookback, err := ParseLookback(input.Lookback)
	if err != nil {
		return err
	}
	cfg.Lookback = lookback

	filters, err := ParseFilters(input.Filter)
	if err != nil {
		return fmt.Errorf("invalid --filter: %w", err)
	}
	cfg.Filters = filters

	cfg.Period = strings.TrimSpace(input.Period)
	cfg.Watch = input.Watch
	return nil
}

// processPages validates page definitions from the config file.
func processPages(cfg *Config, input *ConfigRawInput) error {
	seen := make(map[string]struct{}, len(input.Pages))
	for i, page := range input.Pages {
		if err := ValidatePage(page); err != nil {
			return fmt.Errorf("invalid page #%d: %w", i+1, err)
		}
		if _, ok := seen[page.Name]; ok {
			return fmt.Errorf("duplicate page name '%s'", page.Name)
		}
		seen[page.Name] = struct{}{}
	}
	cfg.Pages = input.Pages
	return nil
}

// ValidatePage checks that a page definition can be rendered.
func ValidatePage(page schema.PageDefinition) error {
	if strings.TrimSpace(page.Name) == "" {
		return fmt.Errorf("page name cannot be empty")
	}
	if _, ok := schema.ValidGranularities[page.Granularity]; !ok {
		return fmt.Errorf("page '%s' has invalid granularity '%s'", page.Name, page.Granularity)
	}
	if page.LookbackYears != nil && *page.LookbackYears < 0 {
		return fmt.Errorf("page '%s' lookback_years cannot be negative (received %d)", page.Name, *page.LookbackYears)
	}
	if len(page.Series) == 0 {
		return fmt.Errorf("page '%s' must list at least one series", page.Name)
	}
	for _, ref := range page.Series {
		if strings.TrimSpace(ref.ID) == "" {
			return fmt.Errorf("page '%s' has a series without an id", page.Name)
		}
	}
	return nil
}
