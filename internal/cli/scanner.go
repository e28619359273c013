// Package cli drives the generator from the command line
package cli

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	fnerrors "github.com/toyz/fnbridge/internal/errors"
)

var skippedDirs = map[string]bool{
	"vendor":       true,
	"node_modules": true,
	"testdata":     true,
}

// DirectoryScanner expands directory arguments into package directories
type DirectoryScanner struct{}

// NewDirectoryScanner creates a new directory scanner
func NewDirectoryScanner() *DirectoryScanner {
	return &DirectoryScanner{}
}

// ScanDirectories returns the directories holding Go files. A trailing /...
// scans recursively, Go style.
func (s *DirectoryScanner) ScanDirectories(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var dirs []string
	add := func(dir string) {
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	for _, pattern := range patterns {
		recursive := strings.HasSuffix(pattern, "/...") || pattern == "..."
		base := strings.TrimSuffix(strings.TrimSuffix(pattern, "..."), "/")
		if base == "" {
			base = "."
		}
		abs, err := filepath.Abs(base)
		if err != nil {
			return nil, fnerrors.WrapFileSystemError("resolve", base, err)
		}
		if _, err := os.Stat(abs); err != nil {
			return nil, fnerrors.WrapFileSystemError("stat", abs, err)
		}

		if !recursive {
			if hasGoFiles(abs) {
				add(abs)
			}
			continue
		}

		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			name := d.Name()
			if path != abs && (skippedDirs[name] || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			if hasGoFiles(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fnerrors.WrapFileSystemError("walk", abs, err)
		}
	}

	sort.Strings(dirs)
	return dirs, nil
}

func hasGoFiles(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go") {
			return true
		}
	}
	return false
}
