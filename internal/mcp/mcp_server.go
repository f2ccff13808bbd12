// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/statdash/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the statdash MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, client contract.SeriesClient, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"statdash Statistics Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		client:  client,
		mgr:     mgr,
	}

	// --- 1. Tool: align_series ---
	s.AddTool(mcp.NewTool("align_series",
		mcp.WithDescription("Fetch economic time series and align them on one period axis with previous-period and year-over-year changes."),
		mcp.WithString("series_ids", mcp.Description("Comma-separated series ids."), mcp.Required()),
		mcp.WithString("granularity", mcp.Description("Reporting frequency of the series."), mcp.Required(), mcp.Enum("annual", "quarterly", "monthly")),
		mcp.WithString("lookback", mcp.Description("'all' or a number of calendar years (defaults to 'all').")),
		mcp.WithString("filters", mcp.Description("Dimension filters as key=value pairs separated by commas.")),
	), h.handleAlignSeries)

	// --- 2. Tool: get_page ---
	s.AddTool(mcp.NewTool("get_page",
		mcp.WithDescription("Render a dashboard page (fixed-assets, leading-index, employment, trade, ppi, laus or a configured page)."),
		mcp.WithString("name", mcp.Description("Page name."), mcp.Required()),
		mcp.WithString("lookback", mcp.Description("Override the page lookback: 'all' or a number of calendar years.")),
		mcp.WithString("filters", mcp.Description("Dimension filters as key=value pairs separated by commas.")),
	), h.handleGetPage)

	// --- 3. Tool: list_dimensions ---
	s.AddTool(mcp.NewTool("list_dimensions",
		mcp.WithDescription("List the selectable values of a filter kind."),
		mcp.WithString("kind", mcp.Description("Filter kind (tables, categories, areas)."), mcp.Required()),
		mcp.WithString("filters", mcp.Description("Dimension filters as key=value pairs separated by commas.")),
	), h.handleListDimensions)

	// --- 4. Tool: format_magnitude ---
	s.AddTool(mcp.NewTool("format_magnitude",
		mcp.WithDescription("Format a number the way dashboard tables display it (e.g. $1.23B, 4.5%)."),
		mcp.WithNumber("value", mcp.Description("The raw value."), mcp.Required()),
		mcp.WithString("unit", mcp.Description("Unit such as dollars, percent, index, persons.")),
		mcp.WithNumber("unit_scale", mcp.Description("Power of ten the value is expressed in (9 for billions).")),
	), h.handleFormatMagnitude)

	return s
}

// StartMCPServer starts the statdash MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, client contract.SeriesClient, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, client, mgr)
	return server.ServeStdio(s)
}
