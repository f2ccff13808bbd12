package cmd

import (
	"github.com/huangsam/statdash/core"
	"github.com/huangsam/statdash/internal/contract"
	"github.com/spf13/cobra"
)

// dimensionsCmd lists filter values.
var dimensionsCmd = &cobra.Command{
	Use:   "dimensions KIND",
	Short: "List the values of a filter kind (tables, categories, areas).",
	Long: `List the selectable values of a filter kind.

The codes shown can be passed to --filter, e.g. --filter area=ST06.

Examples:
  statdash dimensions areas
  statdash dimensions tables --output json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteDimensions(rootCtx, cfg, seriesClient, args[0]); err != nil {
			contract.LogFatal("Cannot list dimensions", err)
		}
	},
}

// snapshotCmd shows a cross-sectional snapshot.
var snapshotCmd = &cobra.Command{
	Use:   "snapshot TABLE",
	Short: "Show every category of a table at one period.",
	Long: `Fetch a cross-sectional snapshot: all categories of a table at a single period,
with magnitudes formatted the same way as page tables.

Examples:
  statdash snapshot FAAt101 --period 2023
  statdash snapshot FAAt101 --output csv`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteSnapshot(rootCtx, cfg, seriesClient, args[0]); err != nil {
			contract.LogFatal("Cannot fetch snapshot", err)
		}
	},
}
