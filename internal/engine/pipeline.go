package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/datallboy/catfish/internal/app"
	"github.com/datallboy/catfish/internal/domain"
	"github.com/datallboy/catfish/internal/manifest"
	"github.com/datallboy/catfish/internal/report"
	"github.com/segmentio/ksuid"
)

// Pipeline runs Load -> Prepare -> Dispatch -> Report for one manifest.
type Pipeline struct {
	app        *app.Context
	dispatcher *Dispatcher
	out        io.Writer

	// NewProgress builds the progress sink for a run of total rows.
	NewProgress func(w io.Writer, total int) Progress
}

func NewPipeline(a *app.Context, out io.Writer) *Pipeline {
	cfg := a.Config.Download

	client := NewHTTPClient(cfg.ConnectTimeout, cfg.ReadTimeout, cfg.MaxWorkers)
	fetcher := NewFetcher(client, cfg.OutDir, a.Logger)

	return NewPipelineWithFetcher(a, fetcher, out)
}

// NewPipelineWithFetcher wires a custom fetcher into the pool.
func NewPipelineWithFetcher(a *app.Context, fetcher RowFetcher, out io.Writer) *Pipeline {
	if out == nil {
		out = os.Stdout
	}
	return &Pipeline{
		app:         a,
		dispatcher:  NewDispatcher(fetcher, a.Config.Download.MaxWorkers, a.Logger),
		out:         out,
		NewProgress: NewProgressBar,
	}
}

// Run processes the configured manifest. Only precondition and setup problems
// are returned as errors; per-row failures end up in the Run and the report.
func (p *Pipeline) Run(ctx context.Context) (*domain.Run, error) {
	cfg := p.app.Config
	log := p.app.Logger

	rows, err := manifest.Load(cfg.Manifest.Path)
	if err != nil {
		return nil, err
	}

	if err := PrepareDirectories(cfg.Download.OutDir, cfg.Download.Splits, cfg.Download.Classes); err != nil {
		return nil, err
	}

	run := &domain.Run{
		ID:           ksuid.New().String(),
		ManifestPath: cfg.Manifest.Path,
		StartedAt:    time.Now(),
		Total:        len(rows),
	}

	if p.app.Store != nil {
		if err := p.app.Store.CreateRun(ctx, run); err != nil {
			return nil, fmt.Errorf("failed to record run: %w", err)
		}
	}

	log.Info("Run %s: %d rows from %s", run.ID, len(rows), cfg.Manifest.Path)
	fmt.Fprintf(p.out, "Downloading %d images using %d workers...\n", len(rows), p.dispatcher.workers)

	outcomes := p.dispatcher.Run(ctx, rows, p.NewProgress(p.out, len(rows)))

	for _, o := range outcomes {
		run.Record(o)
		if o.Status == domain.StatusFailed {
			run.Failures = append(run.Failures, o.Failure())
		}
	}
	run.FinishedAt = time.Now()

	written, err := report.SaveFailures(cfg.Report.Path, run.Failures)
	if err != nil {
		log.Error("Could not save failure report: %v", err)
		return run, err
	}
	if written {
		fmt.Fprintf(p.out, "Saved %d failed downloads to %s\n", len(run.Failures), cfg.Report.Path)
	}

	p.persist(run)

	log.Info("Run %s finished: downloaded %d, skipped %d, failed %d of %d",
		run.ID, run.Downloaded, run.Skipped, run.Failed, run.Total)
	fmt.Fprintf(p.out, "Downloaded %d, skipped %d, failed %d of %d\n",
		run.Downloaded, run.Skipped, run.Failed, run.Total)
	fmt.Fprintln(p.out, "Download completed.")

	return run, nil
}

// persist writes the run's outcomes to the ledger. The downloads already
// happened, so ledger problems are logged rather than failing the run.
func (p *Pipeline) persist(run *domain.Run) {
	if p.app.Store == nil {
		return
	}

	// The caller's ctx may already be cancelled by an interrupt
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := p.app.Store.SaveOutcomes(ctx, run.ID, run.Outcomes); err != nil {
		p.app.Logger.Error("Failed to save outcomes for run %s: %v", run.ID, err)
	}
	if err := p.app.Store.FinishRun(ctx, run); err != nil {
		p.app.Logger.Error("Failed to finish run %s: %v", run.ID, err)
	}
}
