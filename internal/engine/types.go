package engine

import (
	"context"

	"github.com/datallboy/catfish/internal/domain"
)

// RowFetcher is the unit of work executed by each pool worker.
type RowFetcher interface {
	Fetch(ctx context.Context, row domain.ManifestRow) domain.Outcome
}

// Progress receives one tick per completed task.
type Progress interface {
	Add(n int) error
	Finish() error
}

type FetchJob struct {
	Row domain.ManifestRow
}

type FetchResult struct {
	Job     FetchJob
	Outcome domain.Outcome
}
