package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gnana997/flowlens/pkg/analyzer"
	"github.com/gnana997/flowlens/pkg/parser"
)

// FileWatcher re-analyzes components as they change on disk. Rapid
// change bursts are debounced so one save cycle triggers one analysis.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	analyzer *analyzer.Analyzer
	index    *Index
	logger   *slog.Logger
	options  WatchOptions

	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex

	stopChan chan struct{}
	stopped  bool
	mu       sync.Mutex
}

// NewFileWatcher creates a file watcher over the given index.
func NewFileWatcher(a *analyzer.Analyzer, index *Index, options WatchOptions, logger *slog.Logger) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if options.DebounceMs == 0 {
		options.DebounceMs = 200
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &FileWatcher{
		watcher:        watcher,
		analyzer:       a,
		index:          index,
		logger:         logger,
		options:        options,
		debounceTimers: make(map[string]*time.Timer),
		stopChan:       make(chan struct{}),
	}, nil
}

// Start watches rootPath and its subdirectories and begins processing
// events in the background.
func (fw *FileWatcher) Start(rootPath string) error {
	fw.mu.Lock()
	if fw.stopped {
		fw.mu.Unlock()
		return fmt.Errorf("watcher already stopped")
	}
	fw.mu.Unlock()

	if err := fw.watcher.Add(rootPath); err != nil {
		return fmt.Errorf("failed to watch %s: %w", rootPath, err)
	}

	err := filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if fw.shouldIgnore(path) {
				return filepath.SkipDir
			}
			if err := fw.watcher.Add(path); err != nil {
				fw.logger.Warn("failed to watch directory", "path", path, "error", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to setup watches: %w", err)
	}

	fw.logger.Info("file watcher started", "root", rootPath)
	go fw.eventLoop()
	return nil
}

// Stop stops the watcher. Idempotent.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.stopped {
		return nil
	}
	fw.stopped = true
	close(fw.stopChan)

	fw.debounceMu.Lock()
	for _, timer := range fw.debounceTimers {
		timer.Stop()
	}
	fw.debounceTimers = make(map[string]*time.Timer)
	fw.debounceMu.Unlock()

	err := fw.watcher.Close()
	fw.logger.Info("file watcher stopped")
	return err
}

func (fw *FileWatcher) eventLoop() {
	for {
		select {
		case <-fw.stopChan:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Error("file watcher error", "error", err)
		}
	}
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	filePath := event.Name

	if fw.shouldIgnore(filePath) || !parser.IsComponentFile(filePath) {
		return
	}

	fw.logger.Debug("file event", "op", event.Op.String(), "file", filePath)

	switch {
	case event.Op&fsnotify.Write == fsnotify.Write:
		fw.debounceReanalyze(filePath)

	case event.Op&fsnotify.Create == fsnotify.Create:
		fw.debounceReanalyze(filePath)

	case event.Op&fsnotify.Remove == fsnotify.Remove:
		fw.index.Remove(filePath)

	case event.Op&fsnotify.Rename == fsnotify.Rename:
		fw.index.Remove(filePath)
	}
}

// debounceReanalyze schedules a re-analysis after the debounce window.
// A newer event for the same file resets the timer.
func (fw *FileWatcher) debounceReanalyze(filePath string) {
	fw.debounceMu.Lock()
	defer fw.debounceMu.Unlock()

	if timer, exists := fw.debounceTimers[filePath]; exists {
		timer.Stop()
	}

	fw.debounceTimers[filePath] = time.AfterFunc(
		time.Duration(fw.options.DebounceMs)*time.Millisecond,
		func() {
			fw.reanalyzeFile(filePath)

			fw.debounceMu.Lock()
			delete(fw.debounceTimers, filePath)
			fw.debounceMu.Unlock()
		},
	)
}

// reanalyzeFile marks the file dirty, then recomputes unless the content
// hash proves nothing changed.
func (fw *FileWatcher) reanalyzeFile(filePath string) {
	fw.index.Invalidate(filePath)

	content, err := os.ReadFile(filePath)
	if err != nil {
		fw.logger.Warn("failed to read changed file", "file", filePath, "error", err)
		return
	}

	hash := ComputeContentHash(content)
	if _, ok := fw.index.Fresh(filePath, hash); ok {
		fw.logger.Debug("content unchanged, keeping cached analysis", "file", filePath)
		return
	}

	result, err := fw.analyzer.AnalyzeSource(context.Background(), content, filePath)
	if err != nil {
		fw.logger.Warn("failed to re-analyze file", "file", filePath, "error", err)
		return
	}

	fw.index.Put(filePath, hash, result)
	fw.logger.Debug("file re-analyzed",
		"file", filePath,
		"hooks", len(result.Hooks),
		"processes", len(result.Processes))
}

func (fw *FileWatcher) shouldIgnore(path string) bool {
	for _, pattern := range fw.options.IgnorePatterns {
		if matched, _ := filepath.Match(pattern, filepath.Base(path)); matched {
			return true
		}
	}

	switch filepath.Base(path) {
	case "node_modules", ".git", "dist", "build", "coverage", ".next", "out":
		return true
	}
	return false
}

// GetStats returns watcher state.
func (fw *FileWatcher) GetStats() FileWatcherStats {
	fw.debounceMu.Lock()
	pending := len(fw.debounceTimers)
	fw.debounceMu.Unlock()

	fw.mu.Lock()
	running := !fw.stopped
	fw.mu.Unlock()

	return FileWatcherStats{
		PendingReanalyses: pending,
		IsRunning:         running,
	}
}

// FileWatcherStats describes watcher activity.
type FileWatcherStats struct {
	PendingReanalyses int
	IsRunning         bool
}
