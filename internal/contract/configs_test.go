package contract

import (
	"testing"
	"time"

	"github.com/huangsam/statdash/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		Output:       "text",
		Precision:    1,
		Workers:      4,
		Color:        "yes",
		CacheBackend: "sqlite",
		Timeout:      "30s",
		CacheTTL:     "24h",
		RateLimit:    10,
	}
}

func intPtr(n int) *int { return &n }

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
	}{
		{
			name:   "valid minimal config",
			mutate: func(*ConfigRawInput) {},
		},
		{
			name:        "invalid output",
			mutate:      func(in *ConfigRawInput) { in.Output = "xml" },
			expectError: true,
		},
		{
			name:        "parquet without output file",
			mutate:      func(in *ConfigRawInput) { in.Output = "parquet" },
			expectError: true,
		},
		{
			name: "png with output file",
			mutate: func(in *ConfigRawInput) {
				in.Output = "png"
				in.OutputFile = "chart.png"
			},
		},
		{
			name:        "zero workers",
			mutate:      func(in *ConfigRawInput) { in.Workers = 0 },
			expectError: true,
		},
		{
			name:        "precision too large",
			mutate:      func(in *ConfigRawInput) { in.Precision = 9 },
			expectError: true,
		},
		{
			name:        "invalid color",
			mutate:      func(in *ConfigRawInput) { in.Color = "maybe" },
			expectError: true,
		},
		{
			name:        "relative api url",
			mutate:      func(in *ConfigRawInput) { in.APIURL = "stats.local/api" },
			expectError: true,
		},
		{
			name:        "bad timeout",
			mutate:      func(in *ConfigRawInput) { in.Timeout = "soon" },
			expectError: true,
		},
		{
			name:        "negative rate limit",
			mutate:      func(in *ConfigRawInput) { in.RateLimit = -1 },
			expectError: true,
		},
		{
			name:        "invalid granularity",
			mutate:      func(in *ConfigRawInput) { in.Granularity = "weekly" },
			expectError: true,
		},
		{
			name:        "negative lookback",
			mutate:      func(in *ConfigRawInput) { in.Lookback = "-2" },
			expectError: true,
		},
		{
			name:        "malformed filter",
			mutate:      func(in *ConfigRawInput) { in.Filter = "area" },
			expectError: true,
		},
		{
			name:        "invalid cache backend",
			mutate:      func(in *ConfigRawInput) { in.CacheBackend = "redis" },
			expectError: true,
		},
		{
			name: "mysql cache without tcp",
			mutate: func(in *ConfigRawInput) {
				in.CacheBackend = "mysql"
				in.CacheDBConnect = "user:pass@localhost/db"
			},
			expectError: true,
		},
		{
			name: "cache and runs share a sqlite file",
			mutate: func(in *ConfigRawInput) {
				in.RunsBackend = "sqlite"
				in.CacheDBConnect = "/tmp/statdash.db"
				in.RunsDBConnect = "/tmp/statdash.db"
			},
			expectError: true,
		},
		{
			name: "duplicate page names",
			mutate: func(in *ConfigRawInput) {
				page := schema.PageDefinition{
					Name:        "employment",
					Granularity: schema.MonthlyGranularity,
					Series:      []schema.SeriesRef{{ID: "CES0000000001"}},
				}
				in.Pages = []schema.PageDefinition{page, page}
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)

			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestProcessAndValidateFillsConfig(t *testing.T) {
	input := validInput()
	input.APIURL = "https://stats.example.org/api/"
	input.APIKey = "secret"
	input.Timeout = "5s"
	input.CacheTTL = "1h"
	input.Granularity = "Monthly"
	input.Lookback = "5"
	input.Filter = "area=US, table=T1"
	input.Period = " 2023-06 "
	input.RunsBackend = "none"

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, "https://stats.example.org/api", cfg.APIURL)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, schema.MonthlyGranularity, cfg.Granularity)
	require.NotNil(t, cfg.Lookback)
	assert.Equal(t, schema.LastYears(5), *cfg.Lookback)
	assert.Equal(t, schema.Filters{"area": "US", "table": "T1"}, cfg.Filters)
	assert.Equal(t, "2023-06", cfg.Period)
	assert.Equal(t, schema.NoneBackend, cfg.RunsBackend)
	assert.True(t, cfg.UseColors)
}

func TestProcessAndValidateDefaults(t *testing.T) {
	input := validInput()
	input.Timeout = ""
	input.CacheTTL = ""

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultCacheTTL, cfg.CacheTTL)
	assert.Nil(t, cfg.Lookback)
	assert.Empty(t, cfg.Granularity)
}

func TestParseLookback(t *testing.T) {
	tests := []struct {
		input       string
		want        *schema.Lookback
		expectError bool
	}{
		{"", nil, false},
		{"all", &schema.Lookback{All: true}, false},
		{"ALL", &schema.Lookback{All: true}, false},
		{"0", &schema.Lookback{Years: 0}, false},
		{"10", &schema.Lookback{Years: 10}, false},
		{"-1", nil, true},
		{"ten", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLookback(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFilters(t *testing.T) {
	got, err := ParseFilters("")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = ParseFilters("area=US,,category = durable goods")
	require.NoError(t, err)
	assert.Equal(t, schema.Filters{"area": "US", "category": "durable goods"}, got)

	got, err = ParseFilters("table=")
	require.NoError(t, err)
	assert.Equal(t, schema.Filters{"table": ""}, got)

	_, err = ParseFilters("=US")
	assert.Error(t, err)
}

func TestValidatePage(t *testing.T) {
	valid := schema.PageDefinition{
		Name:        "trade",
		Granularity: schema.MonthlyGranularity,
		Series:      []schema.SeriesRef{{ID: "EXP"}, {ID: "IMP"}},
	}
	assert.NoError(t, ValidatePage(valid))

	tests := []struct {
		name   string
		mutate func(*schema.PageDefinition)
	}{
		{"empty name", func(p *schema.PageDefinition) { p.Name = " " }},
		{"bad granularity", func(p *schema.PageDefinition) { p.Granularity = "daily" }},
		{"negative lookback", func(p *schema.PageDefinition) { p.LookbackYears = intPtr(-3) }},
		{"no series", func(p *schema.PageDefinition) { p.Series = nil }},
		{"blank series id", func(p *schema.PageDefinition) { p.Series = []schema.SeriesRef{{ID: ""}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := valid
			page.Series = append([]schema.SeriesRef(nil), valid.Series...)
			tt.mutate(&page)
			assert.Error(t, ValidatePage(page))
		})
	}
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name        string
		backend     schema.DatabaseBackend
		connStr     string
		expectError bool
	}{
		{"sqlite ignores connection", schema.SQLiteBackend, "", false},
		{"none ignores connection", schema.NoneBackend, "", false},
		{"mysql valid", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/statdash", false},
		{"mysql empty", schema.MySQLBackend, "", true},
		{"mysql missing db", schema.MySQLBackend, "user:pass@tcp(localhost:3306)", true},
		{"postgres valid", schema.PostgreSQLBackend, "host=localhost port=5432 user=u dbname=statdash", false},
		{"postgres missing host", schema.PostgreSQLBackend, "dbname=statdash", true},
		{"postgres missing dbname", schema.PostgreSQLBackend, "host=localhost", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.connStr)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	lookback := schema.LastYears(3)
	cfg := &Config{
		Filters:  schema.Filters{"area": "US"},
		Lookback: &lookback,
		Pages:    []schema.PageDefinition{{Name: "a"}},
	}

	clone := cfg.Clone()
	clone.Filters["area"] = "CA"
	clone.Lookback.Years = 9
	clone.Pages[0].Name = "b"

	assert.Equal(t, "US", cfg.Filters["area"])
	assert.Equal(t, 3, cfg.Lookback.Years)
	assert.Equal(t, "a", cfg.Pages[0].Name)
}

func FuzzParseFilters(f *testing.F) {
	for _, seed := range []string{"", "a=b", "a=b,c=d", "=", ",,,", "a==b", "k=v=w"} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, s string) {
		filters, err := ParseFilters(s)
		if err != nil {
			return
		}
		for k := range filters {
			if k == "" {
				t.Fatalf("empty key parsed from %q", s)
			}
		}
	})
}
