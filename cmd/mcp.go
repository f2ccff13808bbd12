package cmd

import (
	"github.com/huangsam/statdash/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the statdash MCP server",
	Long:  `Launch an MCP server over stdio that lets AI agents align series, render pages, list dimensions and format values.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Diagnostic logs go to stderr, so stdio stays reserved for the protocol.
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, seriesClient, cacheManager)
	},
}
