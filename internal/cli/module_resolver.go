package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// ModuleResolver finds the module a directory belongs to
type ModuleResolver struct{}

// NewModuleResolver creates a new module resolver
func NewModuleResolver() *ModuleResolver {
	return &ModuleResolver{}
}

// ResolveModuleName returns customModule when set, otherwise the module path
// of the nearest go.mod above dir
func (r *ModuleResolver) ResolveModuleName(customModule, dir string) (string, string, error) {
	goMod, err := r.FindGoMod(dir)
	if customModule != "" {
		if err != nil {
			return customModule, "", nil
		}
		return customModule, filepath.Dir(goMod), nil
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to determine module name: %w (consider using --module flag)", err)
	}

	data, err := os.ReadFile(goMod)
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", goMod, err)
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return "", "", fmt.Errorf("module declaration not found in %s", goMod)
	}
	return path, filepath.Dir(goMod), nil
}

// FindGoMod walks up from dir to the nearest go.mod
func (r *ModuleResolver) FindGoMod(dir string) (string, error) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(current, "go.mod")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("go.mod file not found")
		}
		current = parent
	}
}

// BuildPackagePath builds the import path of packageDir within the module
// rooted at moduleRoot
func (r *ModuleResolver) BuildPackagePath(moduleName, moduleRoot, packageDir string) (string, error) {
	abs, err := filepath.Abs(packageDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve package directory: %w", err)
	}
	rel, err := filepath.Rel(moduleRoot, abs)
	if err != nil {
		return "", fmt.Errorf("failed to calculate relative path: %w", err)
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return moduleName, nil
	}
	return moduleName + "/" + rel, nil
}
