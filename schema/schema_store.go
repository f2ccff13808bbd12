package schema

import "time"

// RunSeriesStat is what gets recorded about one series during a run.
type RunSeriesStat struct {
	FetchTime   time.Time
	PointCount  int
	FirstPeriod string
	LastPeriod  string
	Status      FetchStatus
	ErrorText   string
}

// RunRecord represents a row from the statdash_runs table.
type RunRecord struct {
	RunID         int64
	RunKey        string
	Command       string
	Page          *string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int64
	SeriesCount   int32
	FailedCount   int32
	ConfigParams  *string
}

// RunSeriesRecord represents a row from the statdash_run_series table.
type RunSeriesRecord struct {
	RunID       int64
	SeriesID    string
	FetchTime   time.Time
	PointCount  int32
	FirstPeriod *string
	LastPeriod  *string
	Status      string
	ErrorText   *string
}
