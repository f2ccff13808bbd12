// Package core has the page builder and the command entry points that tie
// fetching, caching, alignment and output together.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/huangsam/statdash/core/align"
	"github.com/huangsam/statdash/internal/apiclient"
	"github.com/huangsam/statdash/internal/contract"
	"github.com/huangsam/statdash/internal/outwriter"
	"github.com/huangsam/statdash/internal/pages"
	"github.com/huangsam/statdash/schema"
)

// adhocPageName names the page built for `statdash align`.
const adhocPageName = "align"

// ExecuteAlign fetches the given series and prints their aligned table.
// It serves as the main entry point for the 'align' command.
func ExecuteAlign(ctx context.Context, cfg *contract.Config, client contract.SeriesClient, mgr contract.CacheManager, seriesIDs []string) error {
	start := time.Now()
	result, err := GetAlignResult(withCommand(ctx, alignCommand), cfg, client, mgr, seriesIDs)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WritePage(result, cfg, time.Since(start))
}

// GetAlignResult aligns ad-hoc series as an unnamed page. The granularity
// must come from the config since there is no page to default from.
func GetAlignResult(ctx context.Context, cfg *contract.Config, client contract.SeriesClient, mgr contract.CacheManager, seriesIDs []string) (schema.PageResult, error) {
	if len(seriesIDs) == 0 {
		return schema.PageResult{}, errors.New("at least one series id is required")
	}
	if cfg.Granularity == "" {
		return schema.PageResult{}, fmt.Errorf("--granularity is required: %w", align.ErrInvalidGranularity)
	}

	page := schema.PageDefinition{
		Name:        adhocPageName,
		Title:       strings.Join(seriesIDs, ", "),
		Granularity: cfg.Granularity,
		Series:      make([]schema.SeriesRef, 0, len(seriesIDs)),
	}
	for _, id := range seriesIDs {
		page.Series = append(page.Series, schema.SeriesRef{ID: id})
	}
	return GetPageResult(ctx, cfg, client, mgr, page)
}

// ExecutePage renders one configured page.
// It serves as the main entry point for the 'page' command.
func ExecutePage(ctx context.Context, cfg *contract.Config, client contract.SeriesClient, mgr contract.CacheManager, name string) error {
	start := time.Now()
	result, err := GetNamedPageResult(ctx, cfg, client, mgr, name)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WritePage(result, cfg, time.Since(start))
}

// GetNamedPageResult looks a page up among the built-in and configured pages
// and renders it.
func GetNamedPageResult(ctx context.Context, cfg *contract.Config, client contract.SeriesClient, mgr contract.CacheManager, name string) (schema.PageResult, error) {
	page, err := pages.Lookup(pages.Merge(cfg.Pages), name)
	if err != nil {
		return schema.PageResult{}, err
	}
	return GetPageResult(ctx, cfg, client, mgr, page)
}

// ExecutePages lists the built-in and configured pages.
func ExecutePages(cfg *contract.Config) error {
	return outwriter.NewOutWriter().WritePages(pages.Merge(cfg.Pages), cfg)
}

// ExecuteDimensions lists the selectable values of a filter kind.
func ExecuteDimensions(ctx context.Context, cfg *contract.Config, client contract.SeriesClient, kind string) error {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return errors.New("dimension kind cannot be empty")
	}
	list, err := client.FetchDimensions(ctx, kind, cfg.Filters)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteDimensions(list, cfg)
}

// ExecuteSnapshot prints every category of a table at one period.
func ExecuteSnapshot(ctx context.Context, cfg *contract.Config, client contract.SeriesClient, table string) error {
	table = strings.TrimSpace(table)
	if table == "" {
		return errors.New("snapshot table cannot be empty")
	}
	snapshot, err := client.FetchSnapshot(ctx, table, cfg.Period, cfg.Filters)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteSnapshot(snapshot, cfg)
}

// ExecuteFormat formats a single raw value the way tables display it.
// Numeric strings with thousands separators are accepted.
func ExecuteFormat(w io.Writer, raw string, unit string, unitScale *int) error {
	value := apiclient.ParseValue(raw)
	if value == nil && !strings.EqualFold(strings.TrimSpace(raw), "null") {
		return fmt.Errorf("invalid value '%s'. must be a number or null", raw)
	}
	_, err := fmt.Fprintln(w, align.FormatMagnitude(value, unit, unitScale))
	return err
}
