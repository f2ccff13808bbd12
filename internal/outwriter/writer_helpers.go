package outwriter

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/huangsam/statdash/core/align"
	"github.com/huangsam/statdash/internal/objstore"
)

// writeWithFile handles the common pattern of opening a destination, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	out, err := objstore.Create(outputFile)
	if err != nil {
		return err
	}

	if err := writer(out); err != nil {
		out.Discard()
		return err
	}

	if err := out.Commit(context.Background()); err != nil {
		return err
	}

	if outputFile != "" {
		_, _ = fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, out.Destination())
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader handles the common pattern of creating a CSV writer,
// writing a header, and writing data rows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	if err := writeRows(csvWriter); err != nil {
		return err
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// createFormatters creates the formatter closures shared across output types.
// fmtPct renders a signed percentage at the configured precision and fmtRaw
// renders a machine-readable number. Both render nil as an empty cell.
func createFormatters(precision int) (fmtPct func(*float64) string, fmtRaw func(*float64) string) {
	fmtPct = func(v *float64) string {
		if v == nil {
			return align.NotAvailable
		}
		return fmt.Sprintf("%+.*f%%", precision, *v)
	}
	fmtRaw = func(v *float64) string {
		if v == nil {
			return ""
		}
		return strconv.FormatFloat(*v, 'f', -1, 64)
	}
	return fmtPct, fmtRaw
}
