package store

import (
	"database/sql"
	"time"

	"github.com/datallboy/catfish/internal/domain"
)

// runDBO maps to the runs table
type runDBO struct {
	ID           string        `db:"id"`
	ManifestPath string        `db:"manifest_path"`
	StartedAt    int64         `db:"started_at"`
	FinishedAt   sql.NullInt64 `db:"finished_at"`
	Total        int           `db:"total"`
	Downloaded   int           `db:"downloaded"`
	Skipped      int           `db:"skipped"`
	Failed       int           `db:"failed"`
}

// Mapper: DBO to Domain Run
func (r *runDBO) ToDomain() *domain.Run {
	run := &domain.Run{
		ID:           r.ID,
		ManifestPath: r.ManifestPath,
		StartedAt:    time.UnixMilli(r.StartedAt),
		Total:        r.Total,
		Downloaded:   r.Downloaded,
		Skipped:      r.Skipped,
		Failed:       r.Failed,
	}
	if r.FinishedAt.Valid {
		run.FinishedAt = time.UnixMilli(r.FinishedAt.Int64)
	}
	return run
}

// Mapper: Domain Run to DBO
func (r *runDBO) FromDomain(run *domain.Run) {
	r.ID = run.ID
	r.ManifestPath = run.ManifestPath
	r.StartedAt = run.StartedAt.UnixMilli()
	r.FinishedAt = sql.NullInt64{}
	if !run.FinishedAt.IsZero() {
		r.FinishedAt = sql.NullInt64{Int64: run.FinishedAt.UnixMilli(), Valid: true}
	}
	r.Total = run.Total
	r.Downloaded = run.Downloaded
	r.Skipped = run.Skipped
	r.Failed = run.Failed
}

// outcomeDBO maps to the outcomes table
type outcomeDBO struct {
	RunID     string         `db:"run_id"`
	URL       string         `db:"url"`
	Class     string         `db:"class"`
	Split     string         `db:"split"`
	Path      sql.NullString `db:"path"`
	Status    string         `db:"status"`
	Bytes     int64          `db:"bytes"`
	ErrorKind sql.NullString `db:"error_kind"`
	Error     sql.NullString `db:"error"`
}

// Mapper: Domain Outcome to DBO
func (o *outcomeDBO) FromDomain(runID string, out domain.Outcome) {
	o.RunID = runID
	o.URL = out.Row.URL
	o.Class = out.Row.Class
	o.Split = out.Row.Split
	o.Path = sql.NullString{String: out.Path, Valid: out.Path != ""}
	o.Status = string(out.Status)
	o.Bytes = out.BytesWritten
	o.ErrorKind = sql.NullString{}
	o.Error = sql.NullString{}
	if out.Err != nil {
		o.ErrorKind = sql.NullString{String: string(out.Err.Kind), Valid: true}
		o.Error = sql.NullString{String: out.Err.Error(), Valid: true}
	}
}
