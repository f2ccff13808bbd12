package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/statdash/internal/contract"
	"github.com/huangsam/statdash/schema"
)

// PrintDimensions outputs the values of one filter kind.
func PrintDimensions(list schema.DimensionList, cfg *contract.Config) error {
	var writer func(io.Writer) error

	switch cfg.Output {
	case schema.JSONOut:
		writer = func(w io.Writer) error { return writeJSON(w, list) }
	case schema.CSVOut:
		writer = func(w io.Writer) error { return writeDimensionsCSV(w, list) }
	case schema.TextOut, "":
		writer = func(w io.Writer) error { return writeDimensionsTable(w, list, cfg) }
	default:
		return fmt.Errorf("output mode %s is not supported for dimensions", cfg.Output)
	}

	if err := writeWithFile(cfg.OutputFile, writer, "Wrote dimensions"); err != nil {
		return fmt.Errorf("error writing %s dimensions output: %w", outputName(cfg.Output), err)
	}
	return nil
}

func writeDimensionsTable(w io.Writer, list schema.DimensionList, cfg *contract.Config) error {
	table := newTable(w)
	table.Header([]string{"Code", "Label"})

	labelWidth := max(getTermWidth(cfg)-30, 20)
	data := make([][]string, 0, len(list.Values))
	for _, d := range list.Values {
		data = append(data, []string{d.Code, contract.TruncateLabel(d.Label, labelWidth)})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "%d %s\n", len(list.Values), list.Kind)
	return nil
}

func writeDimensionsCSV(w io.Writer, list schema.DimensionList) error {
	return writeCSVWithHeader(w, []string{"kind", "code", "label"}, func(csvWriter *csv.Writer) error {
		for _, d := range list.Values {
			if err := csvWriter.Write([]string{list.Kind, d.Code, d.Label}); err != nil {
				return err
			}
		}
		return nil
	})
}

// PrintPageDefinitions outputs the configured pages.
func PrintPageDefinitions(pages []schema.PageDefinition, cfg *contract.Config) error {
	var writer func(io.Writer) error

	switch cfg.Output {
	case schema.JSONOut:
		writer = func(w io.Writer) error { return writeJSON(w, pages) }
	case schema.CSVOut:
		writer = func(w io.Writer) error { return writePagesCSV(w, pages) }
	case schema.TextOut, "":
		writer = func(w io.Writer) error { return writePagesTable(w, pages) }
	default:
		return fmt.Errorf("output mode %s is not supported for page listings", cfg.Output)
	}

	if err := writeWithFile(cfg.OutputFile, writer, "Wrote pages"); err != nil {
		return fmt.Errorf("error writing %s pages output: %w", outputName(cfg.Output), err)
	}
	return nil
}

func writePagesTable(w io.Writer, pages []schema.PageDefinition) error {
	table := newTable(w)
	table.Header([]string{"Name", "Title", "Granularity", "Lookback", "Series"})

	data := make([][]string, 0, len(pages))
	for _, p := range pages {
		data = append(data, []string{p.Name, p.Title, string(p.Granularity), pageLookback(p), strconv.Itoa(len(p.Series))})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writePagesCSV(w io.Writer, pages []schema.PageDefinition) error {
	header := []string{"name", "title", "granularity", "lookback", "series"}
	return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
		for _, p := range pages {
			ids := ""
			for i, s := range p.Series {
				if i > 0 {
					ids += "|"
				}
				ids += s.ID
			}
			if err := csvWriter.Write([]string{p.Name, p.Title, string(p.Granularity), pageLookback(p), ids}); err != nil {
				return err
			}
		}
		return nil
	})
}

// pageLookback renders a page's lookback the way it is accepted on the command line.
func pageLookback(p schema.PageDefinition) string {
	if p.LookbackYears == nil {
		return schema.AllPeriods().String()
	}
	return schema.LastYears(*p.LookbackYears).String()
}
