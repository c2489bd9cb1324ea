package engine

import (
	"fmt"
	"os"
	"path/filepath"
)

// PrepareDirectories creates <outDir>/<split>/<class> for every combination.
func PrepareDirectories(outDir string, splits, classes []string) error {
	for _, split := range splits {
		for _, class := range classes {
			dir := filepath.Join(outDir, split, class)
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create %s: %w", dir, err)
			}
		}
	}
	return nil
}
