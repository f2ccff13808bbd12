package cmd

import (
	"os"

	"github.com/huangsam/statdash/core"
	"github.com/huangsam/statdash/internal/contract"
	"github.com/spf13/cobra"
)

// formatCmd formats a single value. It needs no config, stores or API.
var formatCmd = &cobra.Command{
	Use:   "format VALUE",
	Short: "Format a number the way tables display it.",
	Long: `Format a raw number with magnitude suffixes (T, B, M, K), percent or index rules.

Examples:
  statdash format 1234567890          # $1.23B
  statdash format -- -500             # -$500
  statdash format 4.5 --unit percent  # 4.5%
  statdash format 1.5 --unit-scale 9  # $1.50B`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		unit, _ := cmd.Flags().GetString("unit")
		var unitScale *int
		if cmd.Flags().Changed("unit-scale") {
			scale, _ := cmd.Flags().GetInt("unit-scale")
			unitScale = &scale
		}
		if err := core.ExecuteFormat(os.Stdout, args[0], unit, unitScale); err != nil {
			contract.LogFatal("Cannot format value", err)
		}
	},
}
