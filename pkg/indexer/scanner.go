package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/gnana997/flowlens/pkg/analyzer"
	"github.com/gnana997/flowlens/pkg/util"
)

// ProjectScanner analyzes an entire component tree in parallel.
//
// The pipeline has three phases: discover matching files, analyze them
// on the worker pool, and store the results in the index. Files whose
// content hash matches the cached entry skip the analyzer entirely.
type ProjectScanner struct {
	analyzer *analyzer.Analyzer
	index    *Index
	logger   *slog.Logger
}

// NewProjectScanner creates a project scanner.
func NewProjectScanner(a *analyzer.Analyzer, index *Index, logger *slog.Logger) *ProjectScanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectScanner{analyzer: a, index: index, logger: logger}
}

// Scan discovers component files under rootPath and analyzes them all.
// Per-file failures are collected in the returned stats rather than
// aborting the scan.
func (ps *ProjectScanner) Scan(rootPath string, options ScanOptions, progress ProgressCallback) (*ScanStats, error) {
	startTime := time.Now()
	stats := &ScanStats{
		StartTime: startTime,
		Errors:    make([]FileError, 0),
	}

	if len(options.Include) == 0 {
		options = DefaultScanOptions()
	}

	ps.logger.Info("starting project scan", "root", rootPath)

	discoveryStart := time.Now()
	files, err := ps.discoverFiles(rootPath, options)
	if err != nil {
		return nil, fmt.Errorf("file discovery failed: %w", err)
	}
	stats.FilesDiscovered = len(files)
	stats.DiscoveryTimeMs = time.Since(discoveryStart).Milliseconds()

	if len(files) == 0 {
		ps.logger.Warn("no component files found", "root", rootPath)
		stats.EndTime = time.Now()
		stats.TotalTimeMs = time.Since(startTime).Milliseconds()
		return stats, nil
	}

	analysisStart := time.Now()
	if err := ps.analyzeParallel(files, stats, progress); err != nil {
		return nil, fmt.Errorf("file analysis failed: %w", err)
	}
	stats.AnalysisTimeMs = time.Since(analysisStart).Milliseconds()

	stats.EndTime = time.Now()
	stats.TotalTimeMs = time.Since(startTime).Milliseconds()
	if stats.AnalysisTimeMs > 0 {
		stats.FilesPerSecond = float64(stats.FilesAnalyzed) / (float64(stats.AnalysisTimeMs) / 1000.0)
	}

	ps.logger.Info("project scan complete",
		"files_analyzed", stats.FilesAnalyzed,
		"files_failed", stats.FilesFailed,
		"hooks_found", stats.HooksFound,
		"processes_found", stats.ProcessesFound,
		"duration_ms", stats.TotalTimeMs)

	return stats, nil
}

// discoverFiles walks the tree and collects paths matching the include
// patterns. Excluded directories are pruned from the walk.
func (ps *ProjectScanner) discoverFiles(rootPath string, options ScanOptions) ([]string, error) {
	for _, pattern := range options.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern: %s", pattern)
		}
	}
	for _, pattern := range options.Include {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid include pattern: %s", pattern)
		}
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			ps.logger.Warn("walk error", "path", path, "error", err)
			return nil
		}

		relPath, err := filepath.Rel(rootPath, path)
		if err != nil {
			relPath = path
		}
		relPath = filepath.ToSlash(relPath)

		for _, pattern := range options.Exclude {
			if matched, _ := doublestar.PathMatch(pattern, relPath); matched {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			return nil
		}

		for _, pattern := range options.Include {
			if matched, _ := doublestar.PathMatch(pattern, relPath); matched {
				files = append(files, path)
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// analyzeParallel drives the worker pool over the discovered files. The
// result collector starts before any job is submitted; submitting first
// could fill the jobs channel and deadlock against an unstarted
// consumer.
func (ps *ProjectScanner) analyzeParallel(files []string, stats *ScanStats, progress ProgressCallback) error {
	totalFiles := len(files)

	numWorkers := util.GetOptimalPoolSize()
	stats.WorkerCount = numWorkers

	pool := NewWorkerPool(numWorkers, ps.analyzer, ps.index, ps.logger)
	pool.Start()
	defer pool.Stop()

	analyzed := atomic.Int32{}
	failed := atomic.Int32{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return

			case result, ok := <-pool.Results():
				if !ok {
					return
				}

				if !result.Reused && ps.index != nil {
					ps.index.Put(result.FilePath, result.ContentHash, result.Result)
				}

				stats.FilesAnalyzed++
				stats.HooksFound += len(result.Result.Hooks)
				stats.ProcessesFound += len(result.Result.Processes)

				count := analyzed.Add(1)
				if progress != nil {
					progress(int(count), totalFiles, result.FilePath)
				}
				if int(count)+int(failed.Load()) >= totalFiles {
					cancel()
					return
				}

			case fileErr, ok := <-pool.Errors():
				if !ok {
					return
				}

				stats.Errors = append(stats.Errors, fileErr)
				stats.FilesFailed++
				ps.logger.Warn("file analysis failed",
					"file", fileErr.FilePath, "error", fileErr.Error)

				count := failed.Add(1)
				if int(analyzed.Load())+int(count) >= totalFiles {
					cancel()
					return
				}
			}
		}
	}()

	for i, file := range files {
		if err := pool.Submit(FileJob{FilePath: file, JobID: i}); err != nil {
			return fmt.Errorf("failed to submit job for %s: %w", file, err)
		}
	}
	pool.FinishSubmitting()

	<-done
	return nil
}
