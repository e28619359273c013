package cli

import (
	"os"
	"path/filepath"

	fnerrors "github.com/toyz/fnbridge/internal/errors"
	"github.com/toyz/fnbridge/internal/parser"
)

// Cleaner removes generated files
type Cleaner struct {
	scanner *DirectoryScanner
}

// NewCleaner creates a new cleaner
func NewCleaner() *Cleaner {
	return &Cleaner{scanner: NewDirectoryScanner()}
}

// CleanGeneratedFiles removes autogen_functions.go from the matched
// directories and returns the removed paths
func (c *Cleaner) CleanGeneratedFiles(patterns []string) ([]string, error) {
	dirs, err := c.scanner.ScanDirectories(patterns)
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, dir := range dirs {
		path := filepath.Join(dir, parser.GeneratedFileName)
		err := os.Remove(path)
		switch {
		case err == nil:
			removed = append(removed, path)
		case os.IsNotExist(err):
		default:
			return removed, fnerrors.WrapFileSystemError("remove", path, err)
		}
	}
	return removed, nil
}
