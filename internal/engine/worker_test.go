package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/datallboy/catfish/internal/domain"
	"github.com/datallboy/catfish/internal/infra/logger"
)

type fakeFetcher struct {
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
	calls    atomic.Int32
	fn       func(row domain.ManifestRow) domain.Outcome
}

func (f *fakeFetcher) Fetch(ctx context.Context, row domain.ManifestRow) domain.Outcome {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
	}

	if f.fn != nil {
		return f.fn(row)
	}
	return domain.Outcome{Row: row, Status: domain.StatusDownloaded}
}

type countingProgress struct {
	mu       sync.Mutex
	added    int
	finished bool
}

func (p *countingProgress) Add(n int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.added += n
	return nil
}

func (p *countingProgress) Finish() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finished = true
	return nil
}

func makeRows(n int) []domain.ManifestRow {
	rows := make([]domain.ManifestRow, n)
	for i := range rows {
		rows[i] = domain.ManifestRow{URL: fmt.Sprintf("http://h/%d.jpg", i), Class: "cat", Split: "train"}
	}
	return rows
}

func TestDispatcherRunsEveryRowWithinPoolLimit(t *testing.T) {
	fetcher := &fakeFetcher{delay: 10 * time.Millisecond}
	d := NewDispatcher(fetcher, 5, logger.Discard())
	progress := &countingProgress{}

	outcomes := d.Run(context.Background(), makeRows(50), progress)

	if len(outcomes) != 50 {
		t.Fatalf("expected 50 outcomes, got %d", len(outcomes))
	}
	if fetcher.calls.Load() != 50 {
		t.Errorf("expected 50 fetches, got %d", fetcher.calls.Load())
	}
	if peak := fetcher.peak.Load(); peak > 5 {
		t.Errorf("pool exceeded 5 workers, peak %d", peak)
	}
	if progress.added != 50 || !progress.finished {
		t.Errorf("progress added=%d finished=%v", progress.added, progress.finished)
	}
	if d.Completed() != 50 {
		t.Errorf("Completed() = %d, want 50", d.Completed())
	}

	seen := make(map[string]bool)
	for _, o := range outcomes {
		seen[o.Row.URL] = true
	}
	if len(seen) != 50 {
		t.Errorf("expected 50 distinct rows, got %d", len(seen))
	}
}

func TestDispatcherContainsPanics(t *testing.T) {
	fetcher := &fakeFetcher{fn: func(row domain.ManifestRow) domain.Outcome {
		if row.URL == "http://h/3.jpg" {
			panic("boom")
		}
		return domain.Outcome{Row: row, Status: domain.StatusDownloaded}
	}}
	d := NewDispatcher(fetcher, 2, logger.Discard())

	outcomes := d.Run(context.Background(), makeRows(6), nil)

	if len(outcomes) != 6 {
		t.Fatalf("expected 6 outcomes, got %d", len(outcomes))
	}

	var failed int
	for _, o := range outcomes {
		if o.Status == domain.StatusFailed {
			failed++
			if o.Row.URL != "http://h/3.jpg" {
				t.Errorf("unexpected failed row %s", o.Row.URL)
			}
			if o.Err == nil || o.Err.Kind != domain.KindInternal {
				t.Errorf("expected internal failure kind, got %v", o.Err)
			}
		}
	}
	if failed != 1 {
		t.Errorf("expected 1 failure, got %d", failed)
	}
}

func TestDispatcherEmptyManifest(t *testing.T) {
	d := NewDispatcher(&fakeFetcher{}, 3, logger.Discard())
	if outcomes := d.Run(context.Background(), nil, nil); len(outcomes) != 0 {
		t.Errorf("expected no outcomes, got %d", len(outcomes))
	}
}

func TestDispatcherStopsOnCancel(t *testing.T) {
	fetcher := &fakeFetcher{delay: time.Hour}
	d := NewDispatcher(fetcher, 2, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	done := make(chan []domain.Outcome)
	go func() { done <- d.Run(ctx, makeRows(100), nil) }()

	select {
	case outcomes := <-done:
		if len(outcomes) >= 100 {
			t.Errorf("expected rows to be left unattempted, got %d outcomes", len(outcomes))
		}
		if d.Completed() != int64(len(outcomes)) {
			t.Errorf("Completed() = %d, want %d", d.Completed(), len(outcomes))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher did not return after cancel")
	}
}
