// Package manifest reads the url,class,type listing of images to fetch.
package manifest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/datallboy/catfish/internal/domain"
)

const (
	ColumnURL   = "url"
	ColumnClass = "class"
	ColumnSplit = "type"
)

// Load opens the manifest at path and parses it.
// A missing file is reported as domain.ErrManifestNotFound.
func Load(path string) ([]domain.ManifestRow, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrManifestNotFound, path)
		}
		return nil, fmt.Errorf("could not open manifest: %w", err)
	}
	defer f.Close()

	rows, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("could not parse manifest %s: %w", path, err)
	}
	return rows, nil
}

// Parse reads a CSV manifest with a header row. Columns are located by name,
// extra columns are ignored.
func Parse(r io.Reader) ([]domain.ManifestRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty file", domain.ErrMissingColumn)
		}
		return nil, err
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, seen := idx[name]; !seen {
			idx[name] = i
		}
	}

	for _, col := range []string{ColumnURL, ColumnClass, ColumnSplit} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrMissingColumn, col)
		}
	}

	var rows []domain.ManifestRow
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		rows = append(rows, domain.ManifestRow{
			URL:   field(rec, idx[ColumnURL]),
			Class: field(rec, idx[ColumnClass]),
			Split: field(rec, idx[ColumnSplit]),
		})
	}

	return rows, nil
}

func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
