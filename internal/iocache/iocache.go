// Package iocache is for caching I/O calls and recording runs.
package iocache

import (
	"sync"

	"github.com/huangsam/statdash/internal/contract"
)

// CacheStoreManager manages the series cache and run store instances.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	series       contract.CacheStore
	runs         contract.RunStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// NewCacheStoreManager wraps already opened stores. Either may be nil.
func NewCacheStoreManager(series contract.CacheStore, runs contract.RunStore) *CacheStoreManager {
	return &CacheStoreManager{series: series, runs: runs}
}

// GetSeriesStore returns the series CacheStore.
func (mgr *CacheStoreManager) GetSeriesStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.series
}

// GetRunStore returns the RunStore.
func (mgr *CacheStoreManager) GetRunStore() contract.RunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}
