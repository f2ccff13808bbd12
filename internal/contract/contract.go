// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/statdash/schema"
)

// SeriesClient defines the operations needed from the statistics API.
// This allows the core logic to be tested without a live server.
type SeriesClient interface {
	// FetchSeries returns one time series under the given filters.
	FetchSeries(ctx context.Context, seriesID string, filters schema.Filters) (schema.Series, error)

	// FetchDimensions returns the selectable values of a filter kind (tables, categories, areas).
	FetchDimensions(ctx context.Context, kind string, filters schema.Filters) (schema.DimensionList, error)

	// FetchSnapshot returns every category of a table at one period.
	FetchSnapshot(ctx context.Context, table string, period string, filters schema.Filters) (schema.Snapshot, error)
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetSeriesStore() CacheStore
	GetRunStore() RunStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	Delete(key string) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// RunStore defines the interface for tracking align and page runs.
type RunStore interface {
	// BeginRun creates a new run and returns its numeric ID and sortable run key
	BeginRun(startTime time.Time, command string, page string, configParams map[string]any) (int64, string, error)

	// RecordSeries stores the fetch outcome of one series within a run
	RecordSeries(runID int64, seriesID string, stat schema.RunSeriesStat) error

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, seriesCount int, failedCount int) error

	// GetStatus returns status information about the run store
	GetStatus() (schema.RunStatus, error)

	// GetAllRuns returns every recorded run ordered by ID
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllRunSeries returns every per-series record ordered by run and series
	GetAllRunSeries() ([]schema.RunSeriesRecord, error)

	// Close closes the underlying connection
	Close() error
}
