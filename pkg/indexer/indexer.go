// Package indexer maintains the project-wide analysis index: per-file
// component analysis results cached by path, invalidated lazily on
// change, and rebuilt in bulk by the project scanner.
package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gnana997/flowlens/pkg/analyzer"
)

// Index caches analysis results per file with lazy invalidation.
//
// A file watcher marks changed files dirty instead of re-analyzing them
// eagerly; the next lookup reports staleness and the caller decides when
// to recompute. Content hashes let unchanged files skip re-analysis
// entirely even after an invalidation.
type Index struct {
	// LRU cache: FilePath → FileAnalysis.
	cache *lru.Cache[string, *FileAnalysis]

	// Lazy invalidation tracking: FilePath → isDirty.
	dirtyFiles map[string]bool

	mu sync.RWMutex

	analyzedFiles atomic.Int64
	cacheHits     atomic.Int64
	cacheMisses   atomic.Int64
	evictions     atomic.Int64

	config IndexConfig
	logger *slog.Logger
}

// NewIndex creates an analysis index. Call Close when done.
func NewIndex(config IndexConfig, logger *slog.Logger) *Index {
	if config.MaxCachedFiles == 0 {
		config.MaxCachedFiles = 1000
	}
	if logger == nil {
		logger = slog.Default()
	}

	idx := &Index{
		dirtyFiles: make(map[string]bool, 100),
		config:     config,
		logger:     logger,
	}

	cache, err := lru.NewWithEvict(config.MaxCachedFiles, func(key string, value *FileAnalysis) {
		idx.evictions.Add(1)
		if config.Debug {
			logger.Debug("evicting analysis", "path", key)
		}
	})
	if err != nil {
		// Only reachable with a non-positive MaxCachedFiles.
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}
	idx.cache = cache

	logger.Info("analysis index initialized", "max_cached_files", config.MaxCachedFiles)
	return idx
}

// Put stores the analysis of one file and clears its dirty flag.
func (idx *Index) Put(filePath, contentHash string, result *analyzer.Result) *FileAnalysis {
	fa := &FileAnalysis{
		FilePath:    filePath,
		ContentHash: contentHash,
		Result:      result,
		Timestamp:   time.Now().UnixMilli(),
	}

	idx.mu.Lock()
	idx.cache.Add(filePath, fa)
	delete(idx.dirtyFiles, filePath)
	idx.mu.Unlock()

	idx.analyzedFiles.Add(1)

	if idx.config.Debug {
		idx.logger.Debug("indexed file", "path", filePath,
			"hooks", len(result.Hooks), "processes", len(result.Processes))
	}
	return fa
}

// Get retrieves the cached analysis for a file. stale is true when the
// file has been invalidated since the result was stored; the result is
// still returned so callers can serve it while re-analysis runs.
func (idx *Index) Get(filePath string) (fa *FileAnalysis, stale bool, found bool) {
	idx.mu.RLock()
	fa, found = idx.cache.Get(filePath)
	stale = idx.dirtyFiles[filePath]
	idx.mu.RUnlock()

	if found {
		idx.cacheHits.Add(1)
	} else {
		idx.cacheMisses.Add(1)
	}
	return fa, stale, found
}

// Fresh reports whether a cached result exists for the file with the
// given content hash. A dirty flag does not matter here: matching hashes
// prove the content did not actually change, so the dirty flag is
// cleared and the cached result stays valid.
func (idx *Index) Fresh(filePath, contentHash string) (*FileAnalysis, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	fa, found := idx.cache.Get(filePath)
	if !found || fa.ContentHash != contentHash {
		return nil, false
	}
	delete(idx.dirtyFiles, filePath)
	return fa, true
}

// All returns a snapshot of every cached analysis.
func (idx *Index) All() []*FileAnalysis {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	keys := idx.cache.Keys()
	result := make([]*FileAnalysis, 0, len(keys))
	for _, key := range keys {
		if fa, ok := idx.cache.Peek(key); ok {
			result = append(result, fa)
		}
	}
	return result
}

// Invalidate marks a file dirty without discarding its cached result.
// Re-analysis is deferred until the file is next asked for.
func (idx *Index) Invalidate(filePath string) {
	idx.mu.Lock()
	idx.dirtyFiles[filePath] = true
	idx.mu.Unlock()

	if idx.config.Debug {
		idx.logger.Debug("invalidated file", "path", filePath)
	}
}

// IsDirty reports whether a file is marked for re-analysis.
func (idx *Index) IsDirty(filePath string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.dirtyFiles[filePath]
}

// Remove drops a file from the index entirely.
func (idx *Index) Remove(filePath string) {
	idx.mu.Lock()
	idx.cache.Remove(filePath)
	delete(idx.dirtyFiles, filePath)
	idx.mu.Unlock()
}

// Stats returns current index statistics.
func (idx *Index) Stats() IndexStats {
	idx.mu.RLock()
	cachedFiles := idx.cache.Len()
	dirtyFiles := len(idx.dirtyFiles)
	idx.mu.RUnlock()

	hits := idx.cacheHits.Load()
	misses := idx.cacheMisses.Load()
	hitRate := 0.0
	if hits+misses > 0 {
		hitRate = float64(hits) / float64(hits+misses)
	}

	return IndexStats{
		AnalyzedFiles: int(idx.analyzedFiles.Load()),
		CachedFiles:   cachedFiles,
		DirtyFiles:    dirtyFiles,
		CacheHits:     hits,
		CacheMisses:   misses,
		CacheHitRate:  hitRate,
		Evictions:     idx.evictions.Load(),
	}
}

// Close releases the index. The index cannot be used afterwards.
func (idx *Index) Close() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.cache.Purge()
	idx.dirtyFiles = nil
	idx.logger.Info("analysis index closed")
}

// ComputeContentHash returns the sha256 hex digest of file content. It
// matches the ContentKey the analyzer records on its results.
func ComputeContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}
