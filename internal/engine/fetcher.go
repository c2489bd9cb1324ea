package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/datallboy/catfish/internal/domain"
	"github.com/datallboy/catfish/internal/infra/logger"
	"github.com/go-resty/resty/v2"
)

// Fetcher downloads a single manifest row into the split/class tree.
type Fetcher struct {
	client *resty.Client
	outDir string
	log    *logger.Logger
}

func NewFetcher(client *resty.Client, outDir string, log *logger.Logger) *Fetcher {
	return &Fetcher{
		client: client,
		outDir: outDir,
		log:    log,
	}
}

// Fetch never returns an error: every problem is folded into the Outcome.
func (f *Fetcher) Fetch(ctx context.Context, row domain.ManifestRow) domain.Outcome {
	out := domain.Outcome{Row: row}

	dest, err := row.Destination(f.outDir)
	if err != nil {
		return failed(out, domain.KindURL, err)
	}
	out.Path = dest

	// Already on disk from an earlier run
	if _, err := os.Stat(dest); err == nil {
		f.log.Debug("Skipping %s (%s/%s): %s exists", row.URL, row.Split, row.Class, dest)
		out.Status = domain.StatusSkipped
		return out
	}

	resp, err := f.client.R().
		SetContext(ctx).
		Get(row.URL)
	if err != nil {
		return failed(out, domain.KindNetwork, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return failed(out, domain.KindStatus, fmt.Errorf("HTTP status %d", resp.StatusCode()))
	}

	body := resp.Body()
	if err := writeFile(dest, body); err != nil {
		return failed(out, domain.KindWrite, err)
	}

	f.log.Debug("Saved %s (%d bytes)", dest, len(body))

	out.Status = domain.StatusDownloaded
	out.BytesWritten = int64(len(body))
	return out
}

func failed(out domain.Outcome, kind domain.FailureKind, err error) domain.Outcome {
	var fe *domain.FetchError
	if !errors.As(err, &fe) {
		fe = &domain.FetchError{Kind: kind, Err: err}
	}
	out.Status = domain.StatusFailed
	out.Err = fe
	return out
}
