// Package parquet provides data structures and functions for exporting statdash
// runs and aligned tables to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/huangsam/statdash/schema"
	"github.com/parquet-go/parquet-go"
)

// Run represents a single align or page execution with metadata.
// This struct maps to the statdash_runs database table.
type Run struct {
	// RunID is the numeric identifier assigned by the store
	RunID int64 `parquet:"run_id,snappy"`

	// RunKey is the sortable ULID of the run
	RunKey string `parquet:"run_key,snappy"`

	// Command is either "align" or "page"
	Command string `parquet:"command,snappy"`

	// Page is the rendered page name (nullable for ad-hoc alignments)
	Page *string `parquet:"page,optional,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int64 `parquet:"run_duration_ms,optional,snappy"`

	SeriesCount int32 `parquet:"series_count,snappy"`
	FailedCount int32 `parquet:"failed_count,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// RunSeries represents the fetch outcome of one series within a run.
// This struct maps to the statdash_run_series database table.
type RunSeries struct {
	RunID       int64     `parquet:"run_id,snappy"`
	SeriesID    string    `parquet:"series_id,snappy"`
	FetchTime   time.Time `parquet:"fetch_time,snappy"`
	PointCount  int32     `parquet:"point_count,snappy"`
	FirstPeriod *string   `parquet:"first_period,optional,snappy"`
	LastPeriod  *string   `parquet:"last_period,optional,snappy"`
	Status      string    `parquet:"status,snappy"`
	ErrorText   *string   `parquet:"error_text,optional,snappy"`
}

// AlignedValue is one cell of an aligned table in long format: a single
// series at a single period.
type AlignedValue struct {
	Period    string   `parquet:"period,snappy"`
	SeriesID  string   `parquet:"series_id,snappy"`
	Value     *float64 `parquet:"value,optional,snappy"`
	MoMChange *float64 `parquet:"mom_change,optional,snappy"`
	MoMPct    *float64 `parquet:"mom_pct,optional,snappy"`
	YoYChange *float64 `parquet:"yoy_change,optional,snappy"`
	YoYPct    *float64 `parquet:"yoy_pct,optional,snappy"`
}

// WriteRows writes records to w with a schema inferred from T's struct tags.
func WriteRows[T any](w io.Writer, data []T) error {
	writer := parquet.NewGenericWriter[T](w)

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// writeFile creates outputPath and writes records to it.
func writeFile[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return WriteRows(file, data)
}

// WriteRunsParquet writes a slice of Run structs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteRunSeriesParquet writes a slice of RunSeries structs to a Parquet file.
func WriteRunSeriesParquet(data []RunSeries, outputPath string) error {
	return writeFile(data, outputPath)
}

// ConvertRunRecords converts schema.RunRecord to Run for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:         record.RunID,
			RunKey:        record.RunKey,
			Command:       record.Command,
			Page:          record.Page,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			SeriesCount:   record.SeriesCount,
			FailedCount:   record.FailedCount,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertRunSeriesRecords converts schema.RunSeriesRecord to RunSeries for Parquet export.
func ConvertRunSeriesRecords(records []schema.RunSeriesRecord) []RunSeries {
	result := make([]RunSeries, len(records))
	for i, record := range records {
		result[i] = RunSeries{
			RunID:       record.RunID,
			SeriesID:    record.SeriesID,
			FetchTime:   record.FetchTime,
			PointCount:  record.PointCount,
			FirstPeriod: record.FirstPeriod,
			LastPeriod:  record.LastPeriod,
			Status:      record.Status,
			ErrorText:   record.ErrorText,
		}
	}
	return result
}

// ConvertAlignedRows flattens aligned rows into one record per period and
// series. Series without an explicit order are emitted sorted by ID.
func ConvertAlignedRows(rows []schema.AlignedRow, seriesOrder []string) []AlignedValue {
	result := make([]AlignedValue, 0, len(rows)*len(seriesOrder))
	for _, row := range rows {
		ids := seriesOrder
		if len(ids) == 0 {
			ids = make([]string, 0, len(row.ValuesByID))
			for id := range row.ValuesByID {
				ids = append(ids, id)
			}
			sort.Strings(ids)
		}
		for _, id := range ids {
			change := row.ValuesByID[id]
			result = append(result, AlignedValue{
				Period:    row.Period,
				SeriesID:  id,
				Value:     change.Value,
				MoMChange: change.MoMChange,
				MoMPct:    change.MoMPct,
				YoYChange: change.YoYChange,
				YoYPct:    change.YoYPct,
			})
		}
	}
	return result
}
