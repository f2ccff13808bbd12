package outwriter

import (
	"io"
	"os"

	"github.com/huangsam/statdash/internal/contract"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/term"
)

// newTable creates a table whose headers render verbatim. Series IDs and
// codes in headers must not be upper-cased or split.
func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithHeaderAutoFormat(tw.Off))
}

// getTermWidth returns the configured width override or the detected terminal width.
func getTermWidth(cfg *contract.Config) int {
	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		return cfg.Width
	}

	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		return 80 // Conservative default for narrow terminals and CI
	}
	return detectedWidth
}

// getMaxLabelWidth calculates the maximum width for a series label in table
// output so that all series columns fit next to the period column.
func getMaxLabelWidth(cfg *contract.Config, seriesCount int) int {
	termWidth := getTermWidth(cfg)

	// Period column plus the two change columns of every series
	baseWidth := 12 + seriesCount*20

	// Borders, separators and padding
	baseWidth += 4 * (seriesCount + 1)

	available := termWidth - baseWidth
	if seriesCount > 0 {
		available /= seriesCount
	}
	if available < 10 {
		return 10
	}
	if available > 40 {
		return 40
	}
	return available
}
