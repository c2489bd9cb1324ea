package app

import (
	"context"

	"github.com/datallboy/catfish/internal/domain"
	"github.com/datallboy/catfish/internal/infra/config"
	"github.com/datallboy/catfish/internal/infra/logger"
)

// Ledger persists runs and their per-row outcomes.
type Ledger interface {
	CreateRun(ctx context.Context, run *domain.Run) error
	SaveOutcomes(ctx context.Context, runID string, outcomes []domain.Outcome) error
	FinishRun(ctx context.Context, run *domain.Run) error
	ListRuns(ctx context.Context, limit int) ([]*domain.Run, error)
	GetRun(ctx context.Context, id string) (*domain.Run, error)
	GetFailures(ctx context.Context, runID string) ([]domain.FailureRecord, error)
	Close() error
}

// Context holds the core environment and shared resources for catfish.
// Store is nil when the ledger is disabled.
type Context struct {
	Config *config.Config
	Logger *logger.Logger
	Store  Ledger
}

// NewContext initializes the base environment.
func NewContext(cfg *config.Config, log *logger.Logger) *Context {
	return &Context{
		Config: cfg,
		Logger: log,
	}
}
