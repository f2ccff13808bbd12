package core

import (
	"context"

	"github.com/huangsam/statdash/core/align"
	"github.com/huangsam/statdash/internal/contract"
	"github.com/huangsam/statdash/schema"
	"go.uber.org/zap"
)

// GetPageResult fetches every series of a page, aligns them and returns the
// rendered result. Failed fetches become inline errors; only caller mistakes
// such as a bad granularity fail the whole page.
func GetPageResult(ctx context.Context, cfg *contract.Config, client contract.SeriesClient, mgr contract.CacheManager, page schema.PageDefinition) (schema.PageResult, error) {
	granularity := resolveGranularity(cfg, page)
	lookback := resolveLookback(cfg, page)
	filters := schema.Filters(page.Filters).Merge(cfg.Filters)

	// Validate before any network traffic
	if _, err := align.Align(nil, lookback, granularity); err != nil {
		return schema.PageResult{}, err
	}

	// --- 0. Begin Run Tracking (if configured) ---
	tracker := beginRun(ctx, mgr, cfg, page, granularity, lookback, filters)

	// --- 1. Concurrent fetch (with caching) ---
	var store contract.CacheStore
	if mgr != nil {
		store = mgr.GetSeriesStore()
	}
	fetches := fetchAll(ctx, client, store, cfg, page.Series, filters)

	// --- 2. Alignment ---
	result := schema.PageResult{
		Name:        page.Name,
		Title:       page.Title,
		Granularity: granularity,
		Lookback:    lookback,
		Filters:     filters,
		RunKey:      tracker.runKey,
		Series:      make([]schema.SeriesMeta, 0, len(fetches)),
	}

	series := make([]schema.Series, 0, len(fetches))
	for i, fetch := range fetches {
		ref := page.Series[i]
		meta := schema.SeriesMeta{
			ID:     ref.ID,
			Label:  ref.Label,
			Color:  ref.Color,
			Unit:   fetch.Series.Unit,
			Status: fetch.Status,
		}
		if meta.Label == "" {
			meta.Label = fetch.Series.Label
		}
		if meta.Unit == "" {
			meta.Unit = page.Unit
		}
		meta.UnitScale = fetch.Series.UnitScale
		meta.PointCount = len(fetch.Series.Points)
		result.Series = append(result.Series, meta)

		if fetch.Err != nil {
			result.Errors = append(result.Errors, schema.SeriesError{SeriesID: ref.ID, Message: fetch.Err.Error()})
		}
		// Failed series still get a null-filled column
		s := fetch.Series
		s.ID = ref.ID
		series = append(series, s)
	}

	rows, err := align.Align(series, lookback, granularity)
	// --- 3. End Run Tracking ---
	tracker.end(fetches)
	if err != nil {
		return schema.PageResult{}, err
	}
	result.Rows = rows

	contract.Logger().Debug("page aligned",
		zap.String("page", page.Name),
		zap.Int("series", len(series)),
		zap.Int("rows", len(rows)),
		zap.Int("errors", len(result.Errors)))

	return result, nil
}

// resolveGranularity prefers the command-line override over the page setting.
func resolveGranularity(cfg *contract.Config, page schema.PageDefinition) schema.Granularity {
	if cfg.Granularity != "" {
		return cfg.Granularity
	}
	return page.Granularity
}

// resolveLookback prefers the command-line override, then the page setting.
// A page without a lookback keeps every period.
func resolveLookback(cfg *contract.Config, page schema.PageDefinition) schema.Lookback {
	if cfg.Lookback != nil {
		return *cfg.Lookback
	}
	if page.LookbackYears != nil {
		return schema.LastYears(*page.LookbackYears)
	}
	return schema.AllPeriods()
}
