package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/datallboy/catfish/internal/domain"
	"github.com/datallboy/catfish/internal/infra/logger"
)

// Dispatcher fans manifest rows out to a fixed pool of fetch workers.
type Dispatcher struct {
	fetcher RowFetcher
	workers int
	log     *logger.Logger

	completed atomic.Int64
}

func NewDispatcher(fetcher RowFetcher, workers int, log *logger.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		fetcher: fetcher,
		workers: workers,
		log:     log,
	}
}

// Completed reports how many tasks have finished so far in the current Run.
func (d *Dispatcher) Completed() int64 {
	return d.completed.Load()
}

// Run executes one fetch per row and blocks until every dispatched task has
// finished. Outcomes arrive in completion order. If ctx is cancelled, rows not
// yet handed to a worker are never attempted and have no outcome.
func (d *Dispatcher) Run(ctx context.Context, rows []domain.ManifestRow, progress Progress) []domain.Outcome {
	d.completed.Store(0)

	bufferSize := d.workers * 2
	jobs := make(chan FetchJob, bufferSize)
	results := make(chan FetchResult, bufferSize)

	// Start the Workers
	var wg sync.WaitGroup
	for w := 1; w <= d.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.worker(ctx, jobs, results)
		}()
	}

	// Dispatch Jobs
	go d.dispatchJobs(ctx, rows, jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect Results
	outcomes := make([]domain.Outcome, 0, len(rows))
	for res := range results {
		outcomes = append(outcomes, res.Outcome)
		d.completed.Add(1)

		if res.Outcome.Status == domain.StatusFailed {
			d.log.Debug("[FAIL] %s: %v", res.Job.Row.URL, res.Outcome.Err)
		}

		if progress != nil {
			_ = progress.Add(1)
		}
	}

	if progress != nil {
		_ = progress.Finish()
	}

	if missed := int64(len(rows)) - d.Completed(); missed > 0 {
		d.log.Warn("Interrupted: %d of %d rows were not attempted", missed, len(rows))
	}

	return outcomes
}

// worker pulls jobs from the channel and executes them until channel is closed
func (d *Dispatcher) worker(ctx context.Context, jobs <-chan FetchJob, results chan<- FetchResult) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			results <- FetchResult{Job: job, Outcome: d.process(ctx, job)}
		}
	}
}

// process contains any panic raised while fetching a row so one bad row
// cannot take the batch down.
func (d *Dispatcher) process(ctx context.Context, job FetchJob) (out domain.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = domain.Outcome{
				Row:    job.Row,
				Status: domain.StatusFailed,
				Err:    &domain.FetchError{Kind: domain.KindInternal, Err: fmt.Errorf("panic: %v", r)},
			}
		}
	}()
	return d.fetcher.Fetch(ctx, job.Row)
}

// dispatchJobs feeds rows in manifest order and closes jobs when done.
func (d *Dispatcher) dispatchJobs(ctx context.Context, rows []domain.ManifestRow, jobs chan<- FetchJob) {
	defer close(jobs)

	for _, row := range rows {
		select {
		case <-ctx.Done():
			return // stop dispatching if the run is interrupted
		case jobs <- FetchJob{Row: row}:
		}
	}
}
