package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/huangsam/statdash/core"
	"github.com/huangsam/statdash/core/align"
	"github.com/huangsam/statdash/internal/contract"
	"github.com/huangsam/statdash/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	client  contract.SeriesClient
	mgr     contract.CacheManager
}

// applyCommonArgs copies lookback and filters from the request onto a config clone.
func (h *toolHandler) applyCommonArgs(request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()

	lookback, err := contract.ParseLookback(request.GetString("lookback", ""))
	if err != nil {
		return nil, err
	}
	if lookback != nil {
		cfg.Lookback = lookback
	}

	filters, err := contract.ParseFilters(request.GetString("filters", ""))
	if err != nil {
		return nil, err
	}
	cfg.Filters = cfg.Filters.Merge(filters)
	return cfg, nil
}

func (h *toolHandler) handleAlignSeries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.applyCommonArgs(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid align parameters: %v", err)), nil
	}
	cfg.Granularity = schema.Granularity(strings.ToLower(request.GetString("granularity", "")))

	var ids []string
	for id := range strings.SplitSeq(request.GetString("series_ids", ""), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	result, err := core.GetAlignResult(core.WithMCPCommand(ctx), cfg, h.client, h.mgr, ids)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("alignment failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.applyCommonArgs(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid page parameters: %v", err)), nil
	}

	result, err := core.GetNamedPageResult(core.WithMCPCommand(ctx), cfg, h.client, h.mgr, request.GetString("name", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("page failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleListDimensions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.applyCommonArgs(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid dimension parameters: %v", err)), nil
	}

	kind := strings.TrimSpace(request.GetString("kind", ""))
	if kind == "" {
		return mcp.NewToolResultError("kind is required"), nil
	}

	list, err := h.client.FetchDimensions(ctx, kind, cfg.Filters)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing dimensions failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(list, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleFormatMagnitude(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	raw, ok := args["value"]
	if !ok {
		return mcp.NewToolResultError("value is required"), nil
	}

	var value *float64
	if raw != nil {
		v, ok := raw.(float64)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("value must be a number (received %v)", raw)), nil
		}
		value = &v
	}

	var unitScale *int
	if _, ok := args["unit_scale"]; ok {
		scale := request.GetInt("unit_scale", 0)
		unitScale = &scale
	}

	return mcp.NewToolResultText(align.FormatMagnitude(value, request.GetString("unit", ""), unitScale)), nil
}
