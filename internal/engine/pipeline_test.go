package engine

import (
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/datallboy/catfish/internal/app"
	"github.com/datallboy/catfish/internal/domain"
	"github.com/datallboy/catfish/internal/infra/config"
	"github.com/datallboy/catfish/internal/infra/logger"
)

type memLedger struct {
	runs     map[string]*domain.Run
	outcomes map[string][]domain.Outcome
	finished int
}

func newMemLedger() *memLedger {
	return &memLedger{runs: map[string]*domain.Run{}, outcomes: map[string][]domain.Outcome{}}
}

func (m *memLedger) CreateRun(_ context.Context, run *domain.Run) error {
	m.runs[run.ID] = run
	return nil
}

func (m *memLedger) SaveOutcomes(_ context.Context, runID string, outcomes []domain.Outcome) error {
	m.outcomes[runID] = append(m.outcomes[runID], outcomes...)
	return nil
}

func (m *memLedger) FinishRun(context.Context, *domain.Run) error {
	m.finished++
	return nil
}

func (m *memLedger) ListRuns(context.Context, int) ([]*domain.Run, error) { return nil, nil }

func (m *memLedger) GetRun(_ context.Context, id string) (*domain.Run, error) {
	return m.runs[id], nil
}

func (m *memLedger) GetFailures(context.Context, string) ([]domain.FailureRecord, error) {
	return nil, nil
}

func (m *memLedger) Close() error { return nil }

func testContext(t *testing.T, dir string) *app.Context {
	t.Helper()
	cfg := &config.Config{
		Manifest: config.ManifestConfig{Path: filepath.Join(dir, "images.csv")},
		Download: config.DownloadConfig{
			OutDir:         dir,
			MaxWorkers:     4,
			ConnectTimeout: time.Second,
			ReadTimeout:    time.Second,
			Splits:         []string{"train", "test", "val"},
			Classes:        []string{"cat", "fish"},
		},
		Report: config.ReportConfig{Path: filepath.Join(dir, "failed_downloads.csv")},
		Store:  config.StoreConfig{Driver: "none"},
	}
	return app.NewContext(cfg, logger.Discard())
}

func newTestPipeline(a *app.Context, out *strings.Builder) *Pipeline {
	p := NewPipeline(a, out)
	p.NewProgress = NoProgress
	return p
}

func writeManifest(t *testing.T, path string, lines ...string) {
	t.Helper()
	body := "url,class,type\n" + strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestPipelineScenario(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/a/A.jpg" {
			w.Write([]byte("cat bytes"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := dead.URL
	dead.Close()

	dir := t.TempDir()
	a := testContext(t, dir)
	ledger := newMemLedger()
	a.Store = ledger

	writeManifest(t, a.Config.Manifest.Path,
		srv.URL+"/a/A.jpg,cat,train",
		srv.URL+"/b/B.jpg,fish,test",
		deadURL+"/c/C.jpg,cat,val",
	)

	var out strings.Builder
	run, err := newTestPipeline(a, &out).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if run.Downloaded != 1 || run.Failed != 2 || run.Skipped != 0 || run.Total != 3 {
		t.Errorf("unexpected counters %+v", run)
	}

	data, err := os.ReadFile(filepath.Join(dir, "train", "cat", "A.jpg"))
	if err != nil || string(data) != "cat bytes" {
		t.Errorf("expected train/cat/A.jpg with body, got %q err %v", data, err)
	}
	for _, p := range []string{"test/fish/B.jpg", "val/cat/C.jpg"} {
		if _, err := os.Stat(filepath.Join(dir, p)); !os.IsNotExist(err) {
			t.Errorf("%s should not exist", p)
		}
	}

	f, err := os.Open(a.Config.Report.Path)
	if err != nil {
		t.Fatalf("expected failure report: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}

	byURL := map[string][]string{}
	for _, rec := range records[1:] {
		byURL[rec[0]] = rec
	}
	b := byURL[srv.URL+"/b/B.jpg"]
	if b == nil || b[1] != "fish" || b[2] != "test" || b[3] != "HTTP status 404" {
		t.Errorf("unexpected B row %v", b)
	}
	c := byURL[deadURL+"/c/C.jpg"]
	if c == nil || c[1] != "cat" || c[2] != "val" || c[3] == "" {
		t.Errorf("unexpected C row %v", c)
	}

	if len(ledger.outcomes[run.ID]) != 3 || ledger.finished != 1 {
		t.Errorf("ledger not updated: %d outcomes, finished %d", len(ledger.outcomes[run.ID]), ledger.finished)
	}

	if !strings.Contains(out.String(), "Saved 2 failed downloads") || !strings.Contains(out.String(), "Download completed.") {
		t.Errorf("unexpected console output %q", out.String())
	}
}

func TestPipelineRerunMakesNoRequests(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("img"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	a := testContext(t, dir)
	writeManifest(t, a.Config.Manifest.Path,
		srv.URL+"/1.jpg,cat,train",
		srv.URL+"/2.jpg,fish,val",
	)

	var out strings.Builder
	if _, err := newTestPipeline(a, &out).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 2 {
		t.Fatalf("expected 2 requests on first run, got %d", hits.Load())
	}

	run, err := newTestPipeline(a, &out).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 2 {
		t.Errorf("second run issued %d extra requests", hits.Load()-2)
	}
	if run.Skipped != 2 {
		t.Errorf("expected 2 skipped, got %d", run.Skipped)
	}

	// No failures on either run means no report
	if _, err := os.Stat(a.Config.Report.Path); !os.IsNotExist(err) {
		t.Errorf("report should not exist, stat err = %v", err)
	}
}

func TestPipelineMissingManifest(t *testing.T) {
	dir := t.TempDir()
	a := testContext(t, dir)

	var out strings.Builder
	_, err := newTestPipeline(a, &out).Run(context.Background())
	if !errors.Is(err, domain.ErrManifestNotFound) {
		t.Fatalf("expected ErrManifestNotFound, got %v", err)
	}

	for _, split := range []string{"train", "test", "val"} {
		if _, err := os.Stat(filepath.Join(dir, split)); !os.IsNotExist(err) {
			t.Errorf("directory %s should not be created", split)
		}
	}
}

func TestPrepareDirectoriesIdempotent(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		if err := PrepareDirectories(dir, []string{"train", "val"}, []string{"cat", "fish"}); err != nil {
			t.Fatalf("pass %d: %v", i, err)
		}
	}
	for _, p := range []string{"train/cat", "train/fish", "val/cat", "val/fish"} {
		if info, err := os.Stat(filepath.Join(dir, p)); err != nil || !info.IsDir() {
			t.Errorf("expected directory %s", p)
		}
	}
}
