package outwriter

import (
	"fmt"
	"io"
	"time"

	"github.com/huangsam/statdash/internal/contract"
	"github.com/huangsam/statdash/schema"
)

// PrintPageResult outputs a rendered page, dispatching based on the output format configured.
func PrintPageResult(result schema.PageResult, cfg *contract.Config, duration time.Duration) error {
	var (
		writer func(io.Writer) error
		msg    string
	)

	switch cfg.Output {
	case schema.JSONOut:
		writer, msg = func(w io.Writer) error { return writePageJSON(w, result) }, "Wrote JSON page"
	case schema.CSVOut:
		writer, msg = func(w io.Writer) error { return writePageCSV(w, result, cfg) }, "Wrote CSV page"
	case schema.ParquetOut:
		writer, msg = func(w io.Writer) error { return writePageParquet(w, result) }, "Wrote Parquet page"
	case schema.PNGOut:
		writer, msg = func(w io.Writer) error { return writePageChart(w, result) }, "Wrote PNG chart"
	default:
		// Default to human-readable table
		writer, msg = func(w io.Writer) error { return writePageTable(w, result, cfg, duration) }, "Wrote page table"
	}

	if err := writeWithFile(cfg.OutputFile, writer, msg); err != nil {
		return fmt.Errorf("error writing %s page output: %w", outputName(cfg.Output), err)
	}
	return nil
}

// outputName returns a readable name for the output mode.
func outputName(mode schema.OutputMode) string {
	if mode == "" {
		return string(schema.TextOut)
	}
	return string(mode)
}

// seriesLabel returns the display label for a series.
func seriesLabel(meta schema.SeriesMeta) string {
	if meta.Label != "" {
		return meta.Label
	}
	return meta.ID
}
