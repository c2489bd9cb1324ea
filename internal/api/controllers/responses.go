package controllers

import (
	"time"

	"github.com/datallboy/catfish/internal/domain"
)

type RunResponse struct {
	ID           string     `json:"id"`
	ManifestPath string     `json:"manifest_path"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	Total        int        `json:"total"`
	Downloaded   int        `json:"downloaded"`
	Skipped      int        `json:"skipped"`
	Failed       int        `json:"failed"`
}

func NewRunResponse(r *domain.Run) RunResponse {
	resp := RunResponse{
		ID:           r.ID,
		ManifestPath: r.ManifestPath,
		StartedAt:    r.StartedAt,
		Total:        r.Total,
		Downloaded:   r.Downloaded,
		Skipped:      r.Skipped,
		Failed:       r.Failed,
	}
	if !r.FinishedAt.IsZero() {
		finished := r.FinishedAt
		resp.FinishedAt = &finished
	}
	return resp
}

type FailuresResponse struct {
	RunID    string                 `json:"run_id"`
	Count    int                    `json:"count"`
	Failures []domain.FailureRecord `json:"failures"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
