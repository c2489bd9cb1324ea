package domain

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// ManifestRow is one image to fetch, as listed in the manifest.
type ManifestRow struct {
	URL   string `json:"url"`
	Class string `json:"class"`
	Split string `json:"type"`
}

// FileName returns the last segment of the URL path.
func (r ManifestRow) FileName() (string, error) {
	u, err := url.Parse(r.URL)
	if err != nil {
		return "", err
	}

	base := path.Base(u.Path)
	if base == "." || base == "/" || base == ".." {
		return "", ErrNoFileName
	}
	return base, nil
}

// ValidPathSegment reports whether name is usable as a single directory level.
func ValidPathSegment(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}

// Destination computes <outDir>/<split>/<class>/<basename>.
func (r ManifestRow) Destination(outDir string) (string, error) {
	for _, seg := range []string{r.Split, r.Class} {
		if !ValidPathSegment(seg) {
			return "", fmt.Errorf("%w: %q", ErrBadPathSegment, seg)
		}
	}

	name, err := r.FileName()
	if err != nil {
		return "", err
	}
	return filepath.Join(outDir, r.Split, r.Class, name), nil
}
