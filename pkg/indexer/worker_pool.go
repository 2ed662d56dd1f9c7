package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/gnana997/flowlens/pkg/analyzer"
	"github.com/gnana997/flowlens/pkg/util"
)

// FileJob is one file queued for analysis.
type FileJob struct {
	FilePath string
	JobID    int
}

// FileResult carries one completed analysis back to the collector.
type FileResult struct {
	FilePath    string
	ContentHash string
	Result      *analyzer.Result
	JobID       int

	// Reused is true when the index already held a result for this
	// content hash and the analyzer was skipped.
	Reused bool
}

// WorkerPool fans file analysis out over a fixed set of goroutines.
// Results and errors flow back on separate channels; the consumer must
// drain both while jobs are in flight.
type WorkerPool struct {
	numWorkers int
	jobs       chan FileJob
	results    chan FileResult
	errors     chan FileError
	wg         sync.WaitGroup
	analyzer   *analyzer.Analyzer
	index      *Index
	logger     *slog.Logger

	ctx        context.Context
	cancel     context.CancelFunc
	started    atomic.Bool
	stopped    atomic.Bool
	jobsClosed atomic.Bool

	jobsSubmitted atomic.Int64
	jobsProcessed atomic.Int64
	jobsFailed    atomic.Int64
}

// NewWorkerPool creates a worker pool. numWorkers of 0 auto-detects via
// util.GetOptimalPoolSize, which matches the parser pool size so workers
// never block waiting for a parser.
func NewWorkerPool(numWorkers int, a *analyzer.Analyzer, index *Index, logger *slog.Logger) *WorkerPool {
	if numWorkers == 0 {
		numWorkers = util.GetOptimalPoolSize()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		numWorkers: numWorkers,
		jobs:       make(chan FileJob, numWorkers*2),
		results:    make(chan FileResult, numWorkers),
		errors:     make(chan FileError, numWorkers),
		analyzer:   a,
		index:      index,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start spawns the worker goroutines. Must be called before Submit.
func (wp *WorkerPool) Start() {
	if !wp.started.CompareAndSwap(false, true) {
		wp.logger.Warn("worker pool already started")
		return
	}

	wp.logger.Info("starting worker pool", "workers", wp.numWorkers)
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.ctx.Done():
			return
		case job, ok := <-wp.jobs:
			if !ok {
				return
			}
			wp.processJob(id, job)
		}
	}
}

// processJob reads one file, short-circuits through the index when the
// content hash is unchanged, and runs the analyzer otherwise.
func (wp *WorkerPool) processJob(workerID int, job FileJob) {
	content, err := os.ReadFile(job.FilePath)
	if err != nil {
		wp.fail(job, fmt.Errorf("failed to read file: %w", err))
		return
	}

	hash := ComputeContentHash(content)
	if wp.index != nil {
		if fa, ok := wp.index.Fresh(job.FilePath, hash); ok {
			wp.jobsProcessed.Add(1)
			wp.results <- FileResult{
				FilePath:    job.FilePath,
				ContentHash: hash,
				Result:      fa.Result,
				JobID:       job.JobID,
				Reused:      true,
			}
			return
		}
	}

	result, err := wp.analyzer.AnalyzeSource(wp.ctx, content, job.FilePath)
	if err != nil {
		wp.fail(job, fmt.Errorf("analysis failed: %w", err))
		return
	}

	wp.jobsProcessed.Add(1)
	wp.results <- FileResult{
		FilePath:    job.FilePath,
		ContentHash: hash,
		Result:      result,
		JobID:       job.JobID,
	}
}

func (wp *WorkerPool) fail(job FileJob, err error) {
	wp.jobsFailed.Add(1)
	wp.errors <- FileError{FilePath: job.FilePath, Error: err}
}

// Submit enqueues a job. Blocks when the jobs channel is full, so the
// result collector must already be draining.
func (wp *WorkerPool) Submit(job FileJob) error {
	if wp.stopped.Load() {
		return fmt.Errorf("worker pool is stopped")
	}

	wp.jobsSubmitted.Add(1)

	select {
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool cancelled")
	case wp.jobs <- job:
		return nil
	}
}

// Results returns the results channel.
func (wp *WorkerPool) Results() <-chan FileResult {
	return wp.results
}

// Errors returns the errors channel.
func (wp *WorkerPool) Errors() <-chan FileError {
	return wp.errors
}

// FinishSubmitting closes the jobs channel so workers exit once it is
// drained. Idempotent.
func (wp *WorkerPool) FinishSubmitting() {
	if wp.jobsClosed.CompareAndSwap(false, true) {
		close(wp.jobs)
	}
}

// Wait blocks until all workers have exited. Call FinishSubmitting
// first.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// Stop shuts the pool down: no new jobs, in-flight jobs finish, then
// the result and error channels close. Idempotent.
func (wp *WorkerPool) Stop() {
	if !wp.stopped.CompareAndSwap(false, true) {
		return
	}

	if wp.jobsClosed.CompareAndSwap(false, true) {
		close(wp.jobs)
	}

	wp.wg.Wait()

	close(wp.results)
	close(wp.errors)
	wp.cancel()

	wp.logger.Info("worker pool stopped",
		"jobs_submitted", wp.jobsSubmitted.Load(),
		"jobs_processed", wp.jobsProcessed.Load(),
		"jobs_failed", wp.jobsFailed.Load())
}

// GetStats returns current pool statistics.
func (wp *WorkerPool) GetStats() WorkerPoolStats {
	return WorkerPoolStats{
		NumWorkers:    wp.numWorkers,
		JobsSubmitted: wp.jobsSubmitted.Load(),
		JobsProcessed: wp.jobsProcessed.Load(),
		JobsFailed:    wp.jobsFailed.Load(),
		QueueLength:   len(wp.jobs),
	}
}

// WorkerPoolStats describes worker pool activity.
type WorkerPoolStats struct {
	NumWorkers    int
	JobsSubmitted int64
	JobsProcessed int64
	JobsFailed    int64
	QueueLength   int
}
