package store

import (
	"context"
	"fmt"

	"github.com/datallboy/catfish/internal/domain"
)

// SaveOutcomes records every per-row result of a run in one transaction.
func (s *PersistentStore) SaveOutcomes(ctx context.Context, runID string, outcomes []domain.Outcome) error {
	if len(outcomes) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.rebind(`
		INSERT INTO outcomes (run_id, url, class, split, path, status, bytes, error_kind, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return err
	}
	defer stmt.Close()

	// Reuse a single DBO instance for efficiency
	var dbo outcomeDBO

	for _, o := range outcomes {
		dbo.FromDomain(runID, o)

		_, err := stmt.ExecContext(ctx,
			dbo.RunID, dbo.URL, dbo.Class, dbo.Split, dbo.Path,
			dbo.Status, dbo.Bytes, dbo.ErrorKind, dbo.Error,
		)
		if err != nil {
			return fmt.Errorf("failed to insert outcome for %s: %w", o.Row.URL, err)
		}
	}

	return tx.Commit()
}

// GetFailures lists the failed rows of a run in insertion order.
func (s *PersistentStore) GetFailures(ctx context.Context, runID string) ([]domain.FailureRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT url, class, split, COALESCE(error, '')
		FROM outcomes
		WHERE run_id = ? AND status = ?
		ORDER BY id ASC`), runID, string(domain.StatusFailed))
	if err != nil {
		return nil, fmt.Errorf("failed to query failures: %w", err)
	}
	defer rows.Close()

	failures := make([]domain.FailureRecord, 0)
	for rows.Next() {
		var f domain.FailureRecord
		if err := rows.Scan(&f.URL, &f.Class, &f.Split, &f.Error); err != nil {
			return nil, fmt.Errorf("failed to scan failure: %w", err)
		}
		failures = append(failures, f)
	}

	return failures, rows.Err()
}
