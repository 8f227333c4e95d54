package iocache

import (
	"sync"

	"github.com/Sandroisu/ai-code-risk-analyzer/internal/contract"
)

// CacheStoreManager manages the annotation cache and the analysis store.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	annotation   contract.CacheStore
	analysis     contract.AnalysisStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetAnnotationStore returns the annotation CacheStore.
func (mgr *CacheStoreManager) GetAnnotationStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.annotation
}

// GetAnalysisStore returns the analysis AnalysisStore.
func (mgr *CacheStoreManager) GetAnalysisStore() contract.AnalysisStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.analysis
}
