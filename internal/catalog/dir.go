package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// LoadFile loads a single catalog file, choosing the decoder from the
// file extension.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	switch filepath.Ext(path) {
	case ".cue":
		return LoadCUE(data, path)
	case ".yaml", ".yml":
		return LoadYAML(data, path)
	}
	return nil, &LoadError{File: path, Message: "unsupported catalog format (want .cue, .yaml or .yml)"}
}

// Load reads a catalog from a file or, for a directory, from every
// catalog file beneath it.
func Load(path string) (*Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("catalog not found: %w", err)
	}
	if info.IsDir() {
		return LoadDir(path)
	}
	return LoadFile(path)
}

// LoadDir merges every .cue, .yaml and .yml file under dir in lexical
// path order. A table declared in two files is an error.
func LoadDir(dir string) (*Catalog, error) {
	files, err := FindCatalogFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scan catalog directory: %w", err)
	}
	if len(files) == 0 {
		return nil, &LoadError{File: dir, Message: "no catalog files found"}
	}

	c := New()
	for _, path := range files {
		part, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if err := c.Merge(part); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// FindCatalogFiles walks dir and returns the catalog file paths, sorted.
func FindCatalogFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".cue", ".yaml", ".yml":
			files = append(files, path)
		}
		return nil
	})
	slices.Sort(files)
	return files, err
}
