package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/datallboy/catfish/internal/domain"
)

const runColumns = `id, manifest_path, started_at, finished_at, total, downloaded, skipped, failed`

// CreateRun inserts the run header before any download starts.
func (s *PersistentStore) CreateRun(ctx context.Context, run *domain.Run) error {
	var dbo runDBO
	dbo.FromDomain(run)

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		dbo.ID, dbo.ManifestPath, dbo.StartedAt, dbo.FinishedAt,
		dbo.Total, dbo.Downloaded, dbo.Skipped, dbo.Failed,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}
	return nil
}

// FinishRun stores the final counters and completion time.
func (s *PersistentStore) FinishRun(ctx context.Context, run *domain.Run) error {
	var dbo runDBO
	dbo.FromDomain(run)

	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE runs
		SET finished_at = ?, total = ?, downloaded = ?, skipped = ?, failed = ?
		WHERE id = ?`),
		dbo.FinishedAt, dbo.Total, dbo.Downloaded, dbo.Skipped, dbo.Failed, dbo.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run %s: %w", run.ID, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s not found", run.ID)
	}
	return nil
}

// ListRuns returns the most recent runs first. limit <= 0 means no limit.
func (s *PersistentStore) ListRuns(ctx context.Context, limit int) ([]*domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*domain.Run, 0)
	for rows.Next() {
		var dbo runDBO
		if err := scanRun(rows, &dbo); err != nil {
			return nil, err
		}
		runs = append(runs, dbo.ToDomain())
	}

	return runs, rows.Err()
}

// GetRun fetches a single run. Returns nil, nil when it does not exist.
func (s *PersistentStore) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+runColumns+` FROM runs WHERE id = ? LIMIT 1`), id)

	var dbo runDBO
	if err := scanRun(row, &dbo); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Return nil, nil to indicate "Not found"
		}
		return nil, fmt.Errorf("failed to fetch run: %w", err)
	}

	return dbo.ToDomain(), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner, dbo *runDBO) error {
	return sc.Scan(
		&dbo.ID, &dbo.ManifestPath, &dbo.StartedAt, &dbo.FinishedAt,
		&dbo.Total, &dbo.Downloaded, &dbo.Skipped, &dbo.Failed,
	)
}
