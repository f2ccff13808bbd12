package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching and run tracking.
	DatabaseBackend string

	// Granularity represents the reporting frequency of a series.
	Granularity string

	// FetchStatus represents the outcome of fetching a single series.
	FetchStatus string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
	PNGOut     OutputMode = "png"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All granularities supported.
const (
	AnnualGranularity    Granularity = "annual"
	QuarterlyGranularity Granularity = "quarterly"
	MonthlyGranularity   Granularity = "monthly"
)

// All fetch outcomes.
const (
	FetchedStatus FetchStatus = "fetched"
	CachedStatus  FetchStatus = "cached"
	FailedStatus  FetchStatus = "failed"
)

// Units with special formatting rules.
const (
	PercentUnit = "percent"
	IndexUnit   = "index"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
	PNGOut:     {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidGranularities lists all valid granularities.
var ValidGranularities = map[Granularity]struct{}{
	AnnualGranularity:    {},
	QuarterlyGranularity: {},
	MonthlyGranularity:   {},
}

// YearOverYearOffset returns how many points back the same period of the
// previous year sits in a series of this granularity. Zero means unknown.
func (g Granularity) YearOverYearOffset() int {
	switch g {
	case AnnualGranularity:
		return 1
	case QuarterlyGranularity:
		return 4
	case MonthlyGranularity:
		return 12
	default:
		return 0
	}
}
