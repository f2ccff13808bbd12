package parquet

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/statdash/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func s(v string) *string { return &v }

func sampleRuns() []Run {
	now := time.Now()
	start1 := now.Add(-2 * time.Hour)
	end1 := start1.Add(1500 * time.Millisecond)
	duration1 := end1.Sub(start1).Milliseconds()

	return []Run{
		{
			RunID:         1,
			RunKey:        "01HZX3J5Q0V7T6K2M4N8P9R1S2",
			Command:       "page",
			Page:          s("employment"),
			StartTime:     start1,
			EndTime:       &end1,
			RunDurationMs: &duration1,
			SeriesCount:   3,
			FailedCount:   1,
			ConfigParams:  s(`{"granularity":"monthly"}`),
		},
		{
			RunID:     2,
			RunKey:    "01HZX3J5Q0V7T6K2M4N8P9R1S3",
			Command:   "align",
			StartTime: now.Add(-10 * time.Minute),
			// Still running: end time, duration and config are nil
		},
	}
}

func readAll[T any](t *testing.T, path string) []T {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[T](file)
	defer func() { _ = reader.Close() }()

	out := make([]T, reader.NumRows())
	n, err := reader.Read(out)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	return out[:n]
}

func TestStructTags(t *testing.T) {
	tests := []struct {
		name    string
		model   any
		columns []string
	}{
		{"Run", new(Run), []string{"run_id", "run_key", "command", "page", "start_time", "end_time", "run_duration_ms", "series_count", "failed_count", "config_params"}},
		{"RunSeries", new(RunSeries), []string{"run_id", "series_id", "fetch_time", "point_count", "first_period", "last_period", "status", "error_text"}},
		{"AlignedValue", new(AlignedValue), []string{"period", "series_id", "value", "mom_change", "mom_pct", "yoy_change", "yoy_pct"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sch := parquet.SchemaOf(tt.model)
			require.NotNil(t, sch)
			for _, col := range tt.columns {
				_, ok := sch.Lookup(col)
				assert.True(t, ok, "Column %s should exist in schema", col)
			}
		})
	}
}

func TestWriteRunsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "runs.parquet")
	data := sampleRuns()

	require.NoError(t, WriteRunsParquet(data, outputPath))

	got := readAll[Run](t, outputPath)
	require.Len(t, got, len(data))
	for i := range data {
		assert.Equal(t, data[i].RunID, got[i].RunID)
		assert.Equal(t, data[i].RunKey, got[i].RunKey)
		assert.Equal(t, data[i].Command, got[i].Command)
		assert.Equal(t, data[i].Page, got[i].Page)
		assert.Equal(t, data[i].RunDurationMs, got[i].RunDurationMs)
		assert.WithinDuration(t, data[i].StartTime, got[i].StartTime, time.Microsecond)
		if data[i].EndTime == nil {
			assert.Nil(t, got[i].EndTime)
		} else {
			require.NotNil(t, got[i].EndTime)
			assert.WithinDuration(t, *data[i].EndTime, *got[i].EndTime, time.Microsecond)
		}
	}
}

func TestWriteRunSeriesParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "run_series.parquet")
	data := []RunSeries{
		{RunID: 1, SeriesID: "PAYEMS", FetchTime: time.Now(), PointCount: 24, FirstPeriod: s("2023-01"), LastPeriod: s("2024-12"), Status: "fetched"},
		{RunID: 1, SeriesID: "BROKEN", FetchTime: time.Now(), Status: "failed", ErrorText: s("HTTP 500")},
	}

	require.NoError(t, WriteRunSeriesParquet(data, outputPath))

	got := readAll[RunSeries](t, outputPath)
	require.Len(t, got, 2)
	assert.Equal(t, "PAYEMS", got[0].SeriesID)
	assert.Equal(t, s("2023-01"), got[0].FirstPeriod)
	assert.Nil(t, got[0].ErrorText)
	assert.Nil(t, got[1].FirstPeriod)
	assert.Equal(t, s("HTTP 500"), got[1].ErrorText)
}

func TestWriteParquet_EmptyData(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "empty.parquet")
	require.NoError(t, WriteRunsParquet([]Run{}, outputPath))

	info, err := os.Stat(outputPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0), "Even empty files carry a schema footer")
	assert.Empty(t, readAll[Run](t, outputPath))
}

func TestWriteParquet_InvalidPath(t *testing.T) {
	err := WriteRunSeriesParquet(nil, "/nonexistent/directory/file.parquet")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create output file")
}

func TestWriteRows_AlignedValues(t *testing.T) {
	var buf bytes.Buffer
	data := []AlignedValue{
		{Period: "2023", SeriesID: "A", Value: f(10)},
		{Period: "2024", SeriesID: "A", Value: f(20), MoMChange: f(10), MoMPct: f(100)},
	}
	require.NoError(t, WriteRows(&buf, data))

	reader := parquet.NewGenericReader[AlignedValue](bytes.NewReader(buf.Bytes()))
	defer func() { _ = reader.Close() }()
	got := make([]AlignedValue, reader.NumRows())
	n, err := reader.Read(got)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	require.Equal(t, 2, n)
	assert.Nil(t, got[0].MoMPct)
	assert.Equal(t, 100.0, *got[1].MoMPct)
}

func TestConvertRunRecords(t *testing.T) {
	end := time.Now()
	records := []schema.RunRecord{
		{RunID: 7, RunKey: "k", Command: "align", StartTime: end.Add(-time.Second), EndTime: &end, SeriesCount: 2, FailedCount: 0},
	}

	got := ConvertRunRecords(records)
	require.Len(t, got, 1)
	assert.Equal(t, int64(7), got[0].RunID)
	assert.Equal(t, "align", got[0].Command)
	assert.Nil(t, got[0].Page)
	assert.Equal(t, &end, got[0].EndTime)
	assert.Equal(t, int32(2), got[0].SeriesCount)
}

func TestConvertRunSeriesRecords(t *testing.T) {
	records := []schema.RunSeriesRecord{
		{RunID: 7, SeriesID: "X", PointCount: 3, Status: "cached", FirstPeriod: s("2020")},
	}

	got := ConvertRunSeriesRecords(records)
	require.Len(t, got, 1)
	assert.Equal(t, "X", got[0].SeriesID)
	assert.Equal(t, "cached", got[0].Status)
	assert.Equal(t, s("2020"), got[0].FirstPeriod)
}

func TestConvertAlignedRows(t *testing.T) {
	rows := []schema.AlignedRow{
		{Period: "2023", ValuesByID: map[string]schema.SeriesChange{"B": {Value: f(2)}, "A": {Value: f(1)}}},
		{Period: "2024", ValuesByID: map[string]schema.SeriesChange{"B": {}, "A": {Value: f(3), MoMChange: f(2)}}},
	}

	t.Run("explicit order", func(t *testing.T) {
		got := ConvertAlignedRows(rows, []string{"B", "A"})
		require.Len(t, got, 4)
		assert.Equal(t, "B", got[0].SeriesID)
		assert.Equal(t, "A", got[1].SeriesID)
		assert.Nil(t, got[2].Value)
		assert.Equal(t, 2.0, *got[3].MoMChange)
	})

	t.Run("sorted when unspecified", func(t *testing.T) {
		got := ConvertAlignedRows(rows, nil)
		require.Len(t, got, 4)
		assert.Equal(t, "A", got[0].SeriesID)
		assert.Equal(t, "B", got[1].SeriesID)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, ConvertAlignedRows(nil, []string{"A"}))
	})
}
