// Package report writes the failed_downloads.csv listing.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/datallboy/catfish/internal/domain"
)

var Header = []string{"url", "class", "type", "error"}

// WriteCSV encodes failures with the url,class,type,error header.
func WriteCSV(w io.Writer, failures []domain.FailureRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, f := range failures {
		if err := cw.Write([]string{f.URL, f.Class, f.Split, f.Error}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveFailures overwrites path with the failure listing. With no failures it
// does nothing and leaves any previous report in place. It reports whether a
// file was written.
func SaveFailures(path string, failures []domain.FailureRecord) (bool, error) {
	if len(failures) == 0 {
		return false, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return false, fmt.Errorf("could not create failure report: %w", err)
	}

	if err := WriteCSV(f, failures); err != nil {
		f.Close()
		return false, fmt.Errorf("could not write failure report: %w", err)
	}

	if err := f.Close(); err != nil {
		return false, err
	}
	return true, nil
}
