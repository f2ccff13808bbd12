package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/huangsam/statdash/core/align"
	"github.com/huangsam/statdash/internal/contract"
	"github.com/huangsam/statdash/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintSnapshot outputs a cross-sectional snapshot, dispatching based on the output format configured.
func PrintSnapshot(snapshot schema.Snapshot, cfg *contract.Config) error {
	var writer func(io.Writer) error

	switch cfg.Output {
	case schema.JSONOut:
		writer = func(w io.Writer) error { return writeJSON(w, snapshot) }
	case schema.CSVOut:
		writer = func(w io.Writer) error { return writeSnapshotCSV(w, snapshot, cfg) }
	case schema.TextOut, "":
		writer = func(w io.Writer) error { return writeSnapshotTable(w, snapshot, cfg) }
	default:
		return fmt.Errorf("output mode %s is not supported for snapshots", cfg.Output)
	}

	if err := writeWithFile(cfg.OutputFile, writer, "Wrote snapshot"); err != nil {
		return fmt.Errorf("error writing %s snapshot output: %w", outputName(cfg.Output), err)
	}
	return nil
}

// writeSnapshotTable renders one row per category with a formatted magnitude.
func writeSnapshotTable(w io.Writer, snapshot schema.Snapshot, cfg *contract.Config) error {
	_, _ = contract.HeaderColor.Fprintf(w, "%s @ %s\n", snapshot.Table, snapshot.Period)

	table := newTable(w)
	table.Header([]string{"Code", "Label", "Value"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	labelWidth := max(getTermWidth(cfg)-40, 20)
	data := make([][]string, 0, len(snapshot.Items))
	for _, item := range snapshot.Items {
		data = append(data, []string{
			item.Code,
			contract.TruncateLabel(item.Label, labelWidth),
			align.FormatMagnitude(item.Value, snapshot.Unit, snapshot.UnitScale),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeSnapshotCSV writes raw snapshot values along with their formatted form.
func writeSnapshotCSV(w io.Writer, snapshot schema.Snapshot, cfg *contract.Config) error {
	_, fmtRaw := createFormatters(cfg.Precision)
	header := []string{"table", "period", "code", "label", "value", "formatted"}

	return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
		for _, item := range snapshot.Items {
			record := []string{
				snapshot.Table,
				snapshot.Period,
				item.Code,
				item.Label,
				fmtRaw(item.Value),
				align.FormatMagnitude(item.Value, snapshot.Unit, snapshot.UnitScale),
			}
			if err := csvWriter.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}
