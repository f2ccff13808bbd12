package core

import (
	"context"
	"sync"

	"github.com/huangsam/statdash/internal/contract"
	"github.com/huangsam/statdash/schema"
)

// fetchAll fetches every referenced series with a bounded pool of workers.
// Results come back in reference order. A series listed twice is fetched once.
func fetchAll(ctx context.Context, client contract.SeriesClient, store contract.CacheStore, cfg *contract.Config, refs []schema.SeriesRef, filters schema.Filters) []schema.SeriesFetch {
	ids := make([]string, 0, len(refs))
	position := make(map[string]int, len(refs))
	for _, ref := range refs {
		if _, ok := position[ref.ID]; ok {
			continue
		}
		position[ref.ID] = len(ids)
		ids = append(ids, ref.ID)
	}

	unique := make([]schema.SeriesFetch, len(ids))
	jobs := make(chan int, len(ids))
	for i := range ids {
		jobs <- i
	}
	close(jobs)

	workers := max(1, min(cfg.Workers, len(ids)))
	var wg sync.WaitGroup
	for range workers {
		wg.Go(func() {
			for i := range jobs {
				// Each worker owns distinct indexes, so no lock is needed
				unique[i] = cachedFetchSeries(ctx, client, store, cfg.CacheTTL, ids[i], filters)
			}
		})
	}
	wg.Wait()

	out := make([]schema.SeriesFetch, len(refs))
	for i, ref := range refs {
		out[i] = unique[position[ref.ID]]
	}
	return out
}
