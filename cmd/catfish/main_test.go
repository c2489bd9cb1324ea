package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/datallboy/catfish/internal/domain"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDownloadMissingManifest(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	_, err := runCLI(t, "download")
	if !errors.Is(err, domain.ErrManifestNotFound) {
		t.Fatalf("expected ErrManifestNotFound, got %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected nothing created, found %d entries", len(entries))
	}
}

func TestDownloadEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "missing.jpg") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("img"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CATFISH_STORE_SQLITE_PATH", filepath.Join(dir, "state", "ledger.db"))

	manifest := "url,class,type\n" +
		srv.URL + "/one.jpg,cat,train\n" +
		srv.URL + "/missing.jpg,fish,val\n"
	if err := os.WriteFile("images.csv", []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "download", "--no-progress", "--workers", "2")
	if err != nil {
		t.Fatalf("download returned error: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Saved 1 failed downloads to failed_downloads.csv") {
		t.Errorf("unexpected output %q", out)
	}

	if _, err := os.Stat(filepath.Join("train", "cat", "one.jpg")); err != nil {
		t.Errorf("expected downloaded file: %v", err)
	}
	if _, err := os.Stat("failed_downloads.csv"); err != nil {
		t.Errorf("expected failure report: %v", err)
	}

	out, err = runCLI(t, "runs")
	if err != nil {
		t.Fatalf("runs returned error: %v", err)
	}
	if !strings.Contains(out, "DOWNLOADED") || strings.Count(out, "\n") != 2 {
		t.Errorf("expected header and one run, got %q", out)
	}
}

func TestRunsRequiresLedger(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CATFISH_STORE_DRIVER", "none")

	if _, err := runCLI(t, "runs"); err == nil {
		t.Error("expected error with ledger disabled")
	}
}
