package core

import (
	"context"
	"time"

	"github.com/huangsam/statdash/internal/contract"
	"github.com/huangsam/statdash/schema"
)

// runTracker records one align or page execution in the run store.
// A zero-value tracker records nothing.
type runTracker struct {
	store  contract.RunStore
	runID  int64
	runKey string
}

// beginRun starts tracking a run when a run store is configured.
// Tracking failures are reported as warnings and never fail the page.
func beginRun(ctx context.Context, mgr contract.CacheManager, cfg *contract.Config, page schema.PageDefinition,
	granularity schema.Granularity, lookback schema.Lookback, filters schema.Filters,
) *runTracker {
	if mgr == nil {
		return &runTracker{}
	}
	store := mgr.GetRunStore()
	if store == nil {
		return &runTracker{}
	}

	command := commandFromContext(ctx)
	pageName := page.Name
	if command == alignCommand {
		pageName = ""
	}

	seriesIDs := make([]string, 0, len(page.Series))
	for _, ref := range page.Series {
		seriesIDs = append(seriesIDs, ref.ID)
	}
	configParams := map[string]any{
		"granularity":   string(granularity),
		"lookback":      lookback.String(),
		"filters":       filters.Canonical(),
		"series":        seriesIDs,
		"workers":       cfg.Workers,
		"cache_backend": string(cfg.CacheBackend),
	}

	runID, runKey, err := store.BeginRun(time.Now(), command, pageName, configParams)
	if err != nil {
		contract.LogWarn("Run tracking initialization failed", err)
		return &runTracker{}
	}
	return &runTracker{store: store, runID: runID, runKey: runKey}
}

// end records the outcome of every distinct series and closes the run.
func (rt *runTracker) end(fetches []schema.SeriesFetch) {
	if rt.store == nil || rt.runID <= 0 {
		return
	}

	now := time.Now()
	seen := make(map[string]struct{}, len(fetches))
	failed := 0
	for _, fetch := range fetches {
		id := fetch.Series.ID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if fetch.Status == schema.FailedStatus {
			failed++
		}
		if err := rt.store.RecordSeries(rt.runID, id, seriesStat(fetch, now)); err != nil {
			contract.LogWarn("Failed to record series "+id, err)
		}
	}

	if err := rt.store.EndRun(rt.runID, time.Now(), len(seen), failed); err != nil {
		contract.LogWarn("Failed to finalize run tracking", err)
	}
}

// seriesStat summarizes a fetch for the run store.
func seriesStat(fetch schema.SeriesFetch, now time.Time) schema.RunSeriesStat {
	stat := schema.RunSeriesStat{
		FetchTime:  now.Add(-fetch.Duration),
		PointCount: len(fetch.Series.Points),
		Status:     fetch.Status,
	}
	for _, p := range fetch.Series.Points {
		if stat.FirstPeriod == "" || p.Period < stat.FirstPeriod {
			stat.FirstPeriod = p.Period
		}
		if p.Period > stat.LastPeriod {
			stat.LastPeriod = p.Period
		}
	}
	if fetch.Err != nil {
		stat.ErrorText = fetch.Err.Error()
	}
	return stat
}
