package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/huangsam/statdash/internal/contract"
	"github.com/huangsam/statdash/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func f(v float64) *float64 { return &v }

func scale(v int) *int { return &v }

func samplePage() schema.PageResult {
	return schema.PageResult{
		Name:        "fixed-assets",
		Title:       "Fixed Assets",
		Granularity: schema.AnnualGranularity,
		Lookback:    schema.LastYears(5),
		Filters:     schema.Filters{"table": "FAAt101"},
		Series: []schema.SeriesMeta{
			{ID: "K1", Label: "Private fixed assets", Unit: "dollars", UnitScale: scale(9), Status: schema.FetchedStatus, PointCount: 2},
			{ID: "K2", Unit: "percent", Status: schema.CachedStatus, PointCount: 1},
		},
		Rows: []schema.AlignedRow{
			{Period: "2022", ValuesByID: map[string]schema.SeriesChange{
				"K1": {Value: f(1.5)},
				"K2": {},
			}},
			{Period: "2023", ValuesByID: map[string]schema.SeriesChange{
				"K1": {Value: f(3), MoMChange: f(1.5), MoMPct: f(100), YoYChange: f(1.5), YoYPct: f(100)},
				"K2": {Value: f(4.5)},
			}},
		},
		Errors: []schema.SeriesError{{SeriesID: "K3", Message: "HTTP 503"}},
	}
}

func TestWritePageTable(t *testing.T) {
	cfg := &contract.Config{Output: schema.TextOut, Precision: 1, Width: 160, Workers: 4, CacheBackend: schema.SQLiteBackend}

	var buf bytes.Buffer
	require.NoError(t, writePageTable(&buf, samplePage(), cfg, 100*time.Millisecond))

	output := buf.String()
	assert.Contains(t, output, "Fixed Assets")
	assert.Contains(t, output, "Lookback: 5")
	assert.Contains(t, output, "Filters: table=FAAt101")
	assert.Contains(t, output, "Private fixed assets")
	assert.Contains(t, output, "K2", "unlabeled series fall back to the ID")
	assert.Contains(t, output, "YoY %")
	assert.Contains(t, output, "$1.50B")
	assert.Contains(t, output, "$3.00B")
	assert.Contains(t, output, "+100.0%")
	assert.Contains(t, output, "4.5%")
	assert.Contains(t, output, "N/A")
	assert.Contains(t, output, "⚠ K3: HTTP 503")
	assert.Contains(t, output, "Page rendered in 100ms with 4 workers. Cache backend: sqlite")
}

func TestWritePageTable_VerbatimHeaders(t *testing.T) {
	cfg := &contract.Config{Output: schema.TextOut, Precision: 1, Width: 200, Workers: 1}
	page := schema.PageResult{
		Granularity: schema.MonthlyGranularity,
		Lookback:    schema.AllPeriods(),
		Series: []schema.SeriesMeta{
			{ID: "CES0000000001", Unit: "jobs"},
			{ID: "LEI", Label: "Leading Index", Unit: "index"},
		},
		Rows: []schema.AlignedRow{{
			Period: "2024-01",
			ValuesByID: map[string]schema.SeriesChange{
				"CES0000000001": {Value: f(158000)},
				"LEI":           {Value: f(102.5)},
			},
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, writePageTable(&buf, page, cfg, time.Millisecond))

	output := buf.String()
	for _, header := range []string{"Period", "CES0000000001", "Chg %", "YoY %", "Leading Index"} {
		assert.Contains(t, output, header)
	}
	assert.NotContains(t, output, "CES 0000000001")
	assert.NotContains(t, output, "YO Y")
}

func TestWritePageJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writePageJSON(&buf, samplePage()))

	var decoded schema.PageResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "fixed-assets", decoded.Name)
	require.Len(t, decoded.Rows, 2)
	assert.Nil(t, decoded.Rows[0].ValuesByID["K2"].Value)
	assert.Equal(t, 100.0, *decoded.Rows[1].ValuesByID["K1"].MoMPct)
	assert.True(t, strings.Contains(buf.String(), "\n  \""), "JSON should be indented")
}

func TestWritePageCSV(t *testing.T) {
	cfg := &contract.Config{Precision: 1}
	var buf bytes.Buffer
	require.NoError(t, writePageCSV(&buf, samplePage(), cfg))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5, "header plus two periods times two series")
	assert.Equal(t, []string{"period", "series_id", "label", "unit", "value", "mom_change", "mom_pct", "yoy_change", "yoy_pct"}, records[0])
	assert.Equal(t, []string{"2022", "K1", "Private fixed assets", "dollars", "1.5", "", "", "", ""}, records[1])
	assert.Equal(t, []string{"2022", "K2", "K2", "percent", "", "", "", "", ""}, records[2])
	assert.Equal(t, []string{"2023", "K1", "Private fixed assets", "dollars", "3", "1.5", "100", "1.5", "100"}, records[3])
}

func TestWritePageParquet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writePageParquet(&buf, samplePage()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("PAR1")))
}

func TestWritePageChart(t *testing.T) {
	t.Run("renders png", func(t *testing.T) {
		var buf bytes.Buffer
		page := samplePage()
		page.Series[0].Color = "#1f77b4"
		require.NoError(t, writePageChart(&buf, page))

		img, err := png.Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, chartWidth, img.Bounds().Dx())
		assert.Equal(t, chartHeight, img.Bounds().Dy())
	})

	t.Run("flat series", func(t *testing.T) {
		page := samplePage()
		page.Rows[1].ValuesByID["K1"] = schema.SeriesChange{Value: f(1.5)}
		page.Rows[1].ValuesByID["K2"] = schema.SeriesChange{}
		var buf bytes.Buffer
		assert.NoError(t, writePageChart(&buf, page))
	})

	t.Run("too few periods", func(t *testing.T) {
		page := samplePage()
		page.Rows = page.Rows[:1]
		err := writePageChart(&bytes.Buffer{}, page)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least two periods")
	})

	t.Run("no values", func(t *testing.T) {
		page := samplePage()
		for _, row := range page.Rows {
			for id := range row.ValuesByID {
				row.ValuesByID[id] = schema.SeriesChange{}
			}
		}
		err := writePageChart(&bytes.Buffer{}, page)
		assert.ErrorIs(t, err, errNothingToChart)
	})
}

func TestPeriodTicks(t *testing.T) {
	rows := make([]schema.AlignedRow, 30)
	for i := range rows {
		rows[i].Period = string(rune('A' + i))
	}

	ticks := periodTicks(rows)
	assert.LessOrEqual(t, len(ticks), maxChartTicks+1)
	assert.Equal(t, "A", ticks[0].Label)
	assert.Equal(t, 0.0, ticks[0].Value)

	assert.Len(t, periodTicks(rows[:3]), 3)
}

func TestPrintPageResult_ToFile(t *testing.T) {
	tests := []struct {
		mode   schema.OutputMode
		prefix string
	}{
		{schema.JSONOut, "{"},
		{schema.CSVOut, "period,series_id"},
		{schema.ParquetOut, "PAR1"},
		{schema.PNGOut, "\x89PNG"},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			outputFile := filepath.Join(t.TempDir(), "page.out")
			cfg := &contract.Config{Output: tt.mode, OutputFile: outputFile, Precision: 1}

			require.NoError(t, NewOutWriter().WritePage(samplePage(), cfg, time.Second))

			data, err := os.ReadFile(outputFile)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(string(data), tt.prefix))
		})
	}
}

func TestPrintPageResult_BadDestination(t *testing.T) {
	cfg := &contract.Config{Output: schema.JSONOut, OutputFile: "/nonexistent/dir/out.json"}
	err := PrintPageResult(samplePage(), cfg, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error writing json page output")
}

func TestGetMaxLabelWidth(t *testing.T) {
	assert.Equal(t, 40, getMaxLabelWidth(&contract.Config{Width: 400}, 1))
	assert.Equal(t, 10, getMaxLabelWidth(&contract.Config{Width: 60}, 4))
	assert.Equal(t, 37, getMaxLabelWidth(&contract.Config{Width: 200}, 3))
}

func TestCreateFormatters(t *testing.T) {
	fmtPct, fmtRaw := createFormatters(2)
	assert.Equal(t, "+1.23%", fmtPct(f(1.234)))
	assert.Equal(t, "-0.50%", fmtPct(f(-0.5)))
	assert.Equal(t, "N/A", fmtPct(nil))
	assert.Equal(t, "1234.5678", fmtRaw(f(1234.5678)))
	assert.Equal(t, "", fmtRaw(nil))
}
