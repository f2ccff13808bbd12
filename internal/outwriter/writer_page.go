package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/statdash/core/align"
	"github.com/huangsam/statdash/internal/contract"
	"github.com/huangsam/statdash/internal/parquet"
	"github.com/huangsam/statdash/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// writePageTable renders the aligned page as a table: one value column and
// two change columns per series.
func writePageTable(w io.Writer, result schema.PageResult, cfg *contract.Config, duration time.Duration) error {
	fmtPct, _ := createFormatters(cfg.Precision)

	if result.Title != "" {
		_, _ = contract.HeaderColor.Fprintln(w, result.Title)
	}
	_, _ = fmt.Fprintf(w, "Granularity: %s | Lookback: %s", result.Granularity, result.Lookback.String())
	if canonical := result.Filters.Canonical(); canonical != "" {
		_, _ = fmt.Fprintf(w, " | Filters: %s", canonical)
	}
	_, _ = fmt.Fprintln(w)

	table := newTable(w)

	// --- 1. Define Headers ---
	labelWidth := getMaxLabelWidth(cfg, len(result.Series))
	headers := []string{"Period"}
	for _, meta := range result.Series {
		label := contract.TruncateLabel(seriesLabel(meta), labelWidth)
		headers = append(headers, label, "Chg %", "YoY %")
	}
	table.Header(headers)

	// 2. Configure Alignment
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	// --- 3. Prepare Data Rows ---
	data := make([][]string, 0, len(result.Rows))
	for _, row := range result.Rows {
		cells := []string{row.Period}
		for _, meta := range result.Series {
			change := row.ValuesByID[meta.ID]
			cells = append(cells,
				align.FormatMagnitude(change.Value, meta.Unit, meta.UnitScale),
				contract.ColorizeChange(fmtPct(change.MoMPct), change.MoMPct),
				contract.ColorizeChange(fmtPct(change.YoYPct), change.YoYPct),
			)
		}
		data = append(data, cells)
	}

	// --- 4. Render the table ---
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	for _, e := range result.Errors {
		_, _ = contract.ErrorColor.Fprintf(w, "⚠ %s: %s\n", e.SeriesID, e.Message)
	}

	_, _ = fmt.Fprintf(w, "Page rendered in %v with %d workers. Cache backend: %s\n", duration, cfg.Workers, cfg.CacheBackend)
	return nil
}

// writePageJSON writes the page result as indented JSON.
func writePageJSON(w io.Writer, result schema.PageResult) error {
	return writeJSON(w, result)
}

// writePageCSV writes the aligned table in long format, one line per period and series.
func writePageCSV(w io.Writer, result schema.PageResult, cfg *contract.Config) error {
	_, fmtRaw := createFormatters(cfg.Precision)
	header := []string{"period", "series_id", "label", "unit", "value", "mom_change", "mom_pct", "yoy_change", "yoy_pct"}

	return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
		for _, row := range result.Rows {
			for _, meta := range result.Series {
				change := row.ValuesByID[meta.ID]
				record := []string{
					row.Period,
					meta.ID,
					seriesLabel(meta),
					meta.Unit,
					fmtRaw(change.Value),
					fmtRaw(change.MoMChange),
					fmtRaw(change.MoMPct),
					fmtRaw(change.YoYChange),
					fmtRaw(change.YoYPct),
				}
				if err := csvWriter.Write(record); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// writePageParquet writes the aligned table in long format as Parquet.
func writePageParquet(w io.Writer, result schema.PageResult) error {
	ids := make([]string, len(result.Series))
	for i, meta := range result.Series {
		ids[i] = meta.ID
	}
	return parquet.WriteRows(w, parquet.ConvertAlignedRows(result.Rows, ids))
}
