package domain

import "time"

type OutcomeStatus string

const (
	StatusDownloaded OutcomeStatus = "downloaded"
	StatusSkipped    OutcomeStatus = "skipped"
	StatusFailed     OutcomeStatus = "failed"
)

// Outcome is the result of a single fetch task.
type Outcome struct {
	Row          ManifestRow   `json:"row"`
	Path         string        `json:"path"`
	Status       OutcomeStatus `json:"status"`
	BytesWritten int64         `json:"bytes_written"`
	Err          *FetchError   `json:"-"`
}

// Failure converts a failed outcome into the record written to the report.
func (o Outcome) Failure() FailureRecord {
	rec := FailureRecord{URL: o.Row.URL, Class: o.Row.Class, Split: o.Row.Split}
	if o.Err != nil {
		rec.Error = o.Err.Error()
	}
	return rec
}

// FailureRecord is a download that did not land on disk.
type FailureRecord struct {
	URL   string `json:"url"`
	Class string `json:"class"`
	Split string `json:"type"`
	Error string `json:"error"`
}

// Run summarizes one pass of the pipeline over a manifest.
type Run struct {
	ID           string    `json:"id"`
	ManifestPath string    `json:"manifest_path"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at,omitempty"`

	Total      int `json:"total"`
	Downloaded int `json:"downloaded"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`

	Failures []FailureRecord `json:"-"`
	Outcomes []Outcome       `json:"-"`
}

// Record folds an outcome into the run counters.
func (r *Run) Record(o Outcome) {
	switch o.Status {
	case StatusDownloaded:
		r.Downloaded++
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
	}
	r.Outcomes = append(r.Outcomes, o)
}
