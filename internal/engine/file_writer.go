package engine

import (
	"fmt"
	"os"
	"path/filepath"
)

// writeFile lands data at path through a temp .part file in the same
// directory, so a failed write never leaves a truncated image that a later
// run would mistake for a finished download.
func writeFile(path string, data []byte) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	part, err := os.CreateTemp(dir, "."+base+".*.part")
	if err != nil {
		return fmt.Errorf("could not create part file: %w", err)
	}
	partPath := part.Name()

	if _, err := part.Write(data); err != nil {
		part.Close()
		os.Remove(partPath)
		return fmt.Errorf("write error: %w", err)
	}

	if err := part.Close(); err != nil {
		os.Remove(partPath)
		return fmt.Errorf("could not close part file: %w", err)
	}

	if err := os.Chmod(partPath, 0644); err != nil {
		os.Remove(partPath)
		return err
	}

	if err := os.Rename(partPath, path); err != nil {
		os.Remove(partPath)
		return fmt.Errorf("failed to finalize %s: %w", base, err)
	}

	return nil
}
