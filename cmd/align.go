package cmd

import (
	"github.com/huangsam/statdash/core"
	"github.com/huangsam/statdash/internal/contract"
	"github.com/spf13/cobra"
)

// alignCmd aligns ad-hoc series.
var alignCmd = &cobra.Command{
	Use:   "align SERIES_ID...",
	Short: "Align one or more series on a shared period axis.",
	Long: `Fetch several time series and align them by period.

Each series gets its value at every period seen in any series, the change from
its own previous point and the change from the same period one year earlier.
Series that fail to fetch are reported inline and do not stop the others.

Examples:
  # Compare two monthly series over the last 3 years
  statdash align CES0000000001 CES0500000001 --granularity monthly --lookback 3

  # Annual series for one area, exported as CSV
  statdash align FA-K1PTOTL1ES000 --granularity annual --filter area=US --output csv

  # Render a chart to S3
  statdash align WPUFD4 --granularity monthly --output png --output-file s3://bucket/ppi.png`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteAlign(rootCtx, cfg, seriesClient, cacheManager, args); err != nil {
			contract.LogFatal("Cannot align series", err)
		}
	},
}
