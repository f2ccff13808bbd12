package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/huangsam/statdash/core"
	"github.com/huangsam/statdash/internal/contract"
	"github.com/spf13/cobra"
)

// pageCmd renders one dashboard page.
var pageCmd = &cobra.Command{
	Use:   "page NAME",
	Short: "Render a dashboard page.",
	Long: `Render a configured dashboard page.

Built-in pages: fixed-assets, leading-index, employment, trade, ppi, laus.
Pages listed under "pages:" in .statdash.yaml are added, and replace a
built-in page of the same name.

Examples:
  # Show the employment page
  statdash page employment

  # Override the lookback and filter by area
  statdash page laus --lookback 2 --filter area=ST0600000000000

  # Re-render whenever .statdash.yaml changes
  statdash page trade --watch`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if !cfg.Watch {
			if err := core.ExecutePage(rootCtx, cfg, seriesClient, cacheManager, args[0]); err != nil {
				contract.LogFatal("Cannot render page", err)
			}
			return
		}

		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := core.ExecutePageWatch(ctx, cfg, seriesClient, cacheManager, args[0], reloadConfig); err != nil {
			contract.LogFatal("Cannot watch page", err)
		}
	},
}

// pagesCmd lists dashboard pages.
var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "List the available dashboard pages.",
	Long: `List the built-in and configured dashboard pages with their granularity,
lookback and series.

Examples:
  statdash pages
  statdash pages --output csv`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecutePages(cfg); err != nil {
			contract.LogFatal("Cannot list pages", err)
		}
	},
}
