package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// DatasetCandidates are the relative paths probed in every directory while
// looking for the dataset.
var DatasetCandidates = []string{
	"books.json",
	"data/books.json",
	"assets/books_simulation.json",
	"src/assets/books_simulation.json",
}

// FindDataset resolves the dataset path. An explicit path is returned as is
// once it is known to exist. Otherwise the search starts in the current
// directory and goes up until one of DatasetCandidates is found.
func FindDataset(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("dataset %s: %w", explicit, err)
		}
		return explicit, nil
	}

	// Start from current directory
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return findDatasetFrom(dir)
}

func findDatasetFrom(dir string) (string, error) {
	for {
		if path, ok := datasetIn(dir); ok {
			return path, nil
		}

		// Go up one directory
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no dataset found; pass --dataset or set BOOKMAP_DATASET")
		}
		dir = parent
	}
}

// datasetIn checks the candidate locations inside dir.
func datasetIn(dir string) (string, bool) {
	for _, candidate := range DatasetCandidates {
		path := filepath.Join(dir, candidate)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}
