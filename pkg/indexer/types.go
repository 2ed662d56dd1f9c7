package indexer

import (
	"time"

	"github.com/gnana997/flowlens/pkg/analyzer"
)

// FileAnalysis is the unit of caching: one component's analysis result
// bound to the content hash it was computed from.
type FileAnalysis struct {
	FilePath string `msgpack:"filePath"`

	// ContentHash is the sha256 of the source the result was computed
	// from. A hash mismatch on lookup means the cached result is stale.
	ContentHash string `msgpack:"contentHash"`

	Result *analyzer.Result `msgpack:"result"`

	// Timestamp is when the file was analyzed (Unix milliseconds).
	Timestamp int64 `msgpack:"timestamp"`
}

// IndexConfig configures the analysis index.
type IndexConfig struct {
	// MaxCachedFiles bounds the LRU cache. Default: 1000.
	MaxCachedFiles int

	Debug bool
}

// DefaultIndexConfig returns the default configuration.
func DefaultIndexConfig() IndexConfig {
	return IndexConfig{MaxCachedFiles: 1000}
}

// IndexStats reports index state and cache effectiveness.
type IndexStats struct {
	AnalyzedFiles int
	CachedFiles   int
	DirtyFiles    int
	CacheHits     int64
	CacheMisses   int64
	CacheHitRate  float64
	Evictions     int64
}

// ScanOptions configures project scanning.
type ScanOptions struct {
	// Include patterns in glob syntax; empty uses the component-source
	// defaults.
	Include []string

	// Exclude patterns are applied before includes.
	Exclude []string
}

// DefaultScanOptions covers the supported component extensions and skips
// the usual build output.
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		Include: []string{
			"**/*.tsx",
			"**/*.jsx",
			"**/*.ts",
			"**/*.js",
			"**/*.vue",
			"**/*.svelte",
		},
		Exclude: []string{
			"node_modules/**",
			".git/**",
			"dist/**",
			"build/**",
			"coverage/**",
			".next/**",
			"out/**",
		},
	}
}

// ScanStats summarizes one project scan.
type ScanStats struct {
	FilesDiscovered int
	FilesAnalyzed   int
	FilesFailed     int
	HooksFound      int
	ProcessesFound  int

	TotalTimeMs     int64
	DiscoveryTimeMs int64
	AnalysisTimeMs  int64
	FilesPerSecond  float64
	WorkerCount     int

	Errors []FileError

	StartTime time.Time
	EndTime   time.Time
}

// FileError is one per-file failure during scanning.
type FileError struct {
	FilePath string
	Error    error
}

// ProgressCallback reports scan progress.
type ProgressCallback func(analyzed, total int, currentFile string)

// WatchOptions configures incremental re-analysis.
type WatchOptions struct {
	// DebounceMs groups rapid changes to one re-analysis. Default: 200.
	DebounceMs int

	// IgnorePatterns use filepath.Match against base names.
	IgnorePatterns []string
}

// DefaultWatchOptions returns recommended watch options.
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		DebounceMs: 200,
		IgnorePatterns: []string{
			"*.swp",
			"*.tmp",
			"*~",
		},
	}
}
