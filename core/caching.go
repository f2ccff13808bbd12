package core

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/huangsam/statdash/internal/contract"
	"github.com/huangsam/statdash/schema"
	"go.uber.org/zap"
)

// currentCacheVersion defines the version of the cache schema
const currentCacheVersion = 1

// cachedFetchSeries returns a series from the cache when fresh, otherwise it
// fetches it and stores the result. Failures are returned inside the fetch.
func cachedFetchSeries(ctx context.Context, client contract.SeriesClient, store contract.CacheStore, ttl time.Duration, seriesID string, filters schema.Filters) schema.SeriesFetch {
	start := time.Now()
	if store == nil {
		// Fallback to direct fetch
		return fetchSeries(ctx, client, seriesID, filters, start)
	}

	key := generateCacheKey(seriesID, filters)

	// Check for cache hit
	if series, ok := checkCacheHit(store, key, ttl); ok {
		contract.Logger().Debug("series cache hit", zap.String("series", seriesID))
		return schema.SeriesFetch{Series: series, Status: schema.CachedStatus, Duration: time.Since(start)}
	}

	// Cache miss: fetch and store
	fetch := fetchSeries(ctx, client, seriesID, filters, start)
	if fetch.Err == nil {
		storeSeries(store, key, fetch.Series)
	}
	return fetch
}

func fetchSeries(ctx context.Context, client contract.SeriesClient, seriesID string, filters schema.Filters, start time.Time) schema.SeriesFetch {
	series, err := client.FetchSeries(ctx, seriesID, filters)
	if err != nil {
		contract.Logger().Warn("series fetch failed", zap.String("series", seriesID), zap.Error(err))
		return schema.SeriesFetch{
			Series:   schema.Series{ID: seriesID},
			Status:   schema.FailedStatus,
			Err:      err,
			Duration: time.Since(start),
		}
	}
	series.ID = seriesID
	return schema.SeriesFetch{Series: series, Status: schema.FetchedStatus, Duration: time.Since(start)}
}

// checkCacheHit attempts to retrieve and validate a cached series.
// A ttl of zero disables expiry.
func checkCacheHit(store contract.CacheStore, key string, ttl time.Duration) (schema.Series, bool) {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return schema.Series{}, false // Cache miss
	}

	// Validate version and staleness
	if version != currentCacheVersion {
		return schema.Series{}, false
	}
	if ttl > 0 && time.Since(time.Unix(ts, 0)) > ttl {
		return schema.Series{}, false
	}

	var series schema.Series
	if err := sonic.Unmarshal(data, &series); err != nil {
		return schema.Series{}, false
	}
	return series, true
}

// storeSeries writes a fetched series to the cache. Cache errors never fail a page.
func storeSeries(store contract.CacheStore, key string, series schema.Series) {
	data, err := sonic.Marshal(series)
	if err != nil {
		return
	}
	if err := store.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
		contract.Logger().Warn("series cache write failed", zap.String("series", series.ID), zap.Error(err))
	}
}

// generateCacheKey creates a unique key for a series under a set of filters.
// Changing any filter value yields a different key.
func generateCacheKey(seriesID string, filters schema.Filters) string {
	key := fmt.Sprintf("%s:%s", seriesID, filters.Canonical())
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}

// InvalidateSeries removes the cached copy of a series under the given filters.
func InvalidateSeries(mgr contract.CacheManager, seriesID string, filters schema.Filters) error {
	if mgr == nil {
		return nil
	}
	store := mgr.GetSeriesStore()
	if store == nil {
		return nil
	}
	if err := store.Delete(generateCacheKey(seriesID, filters)); err != nil {
		return fmt.Errorf("failed to invalidate series %s: %w", seriesID, err)
	}
	return nil
}
