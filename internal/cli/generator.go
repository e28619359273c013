package cli

import (
	"os"
	"path/filepath"

	fnerrors "github.com/toyz/fnbridge/internal/errors"
	"github.com/toyz/fnbridge/internal/generator"
	"github.com/toyz/fnbridge/internal/parser"
	"github.com/toyz/fnbridge/internal/utils"
)

// Summary reports what a run did
type Summary struct {
	PackagesProcessed int
	FunctionsFound    int
	GeneratedFiles    []string
	RemovedFiles      []string
}

// Generator scans directories, parses annotated packages and writes
// autogen_functions.go into each
type Generator struct {
	config      Config
	scanner     *DirectoryScanner
	resolver    *ModuleResolver
	parser      *parser.Parser
	generator   *generator.Generator
	diagnostics *utils.DiagnosticSystem
	summary     Summary
}

// NewGenerator creates a CLI generator
func NewGenerator(config Config, diagnostics *utils.DiagnosticSystem) *Generator {
	if diagnostics == nil {
		diagnostics = utils.NewDiagnosticSystem(utils.DiagnosticInfo)
	}
	return &Generator{
		config:      config,
		scanner:     NewDirectoryScanner(),
		resolver:    NewModuleResolver(),
		parser:      parser.NewParser(),
		generator:   generator.NewGenerator(),
		diagnostics: diagnostics,
	}
}

// Summary returns the results of the last run
func (g *Generator) Summary() Summary {
	return g.summary
}

// Generate processes every directory matched by config.Directories. Errors
// from all packages are reported together.
func (g *Generator) Generate() error {
	g.summary = Summary{}

	dirs, err := g.scanner.ScanDirectories(g.config.Directories)
	if err != nil {
		return err
	}
	if len(dirs) == 0 {
		return fnerrors.Newf(fnerrors.FileSystemErrorCode, "no Go packages found in %v", g.config.Directories)
	}

	moduleName, moduleRoot, err := g.resolver.ResolveModuleName(g.config.ModuleName, dirs[0])
	if err != nil {
		return fnerrors.Wrap(fnerrors.ConfigurationErrorCode, "module resolution", err)
	}
	g.diagnostics.Verbose("module %s at %s", moduleName, moduleRoot)

	var errs fnerrors.MultipleErrors
	for _, dir := range dirs {
		if err := g.processPackage(dir, moduleName, moduleRoot); err != nil {
			errs.Add(err)
		}
	}
	return errs.ErrorOrNil()
}

func (g *Generator) processPackage(dir, moduleName, moduleRoot string) error {
	importPath := dir
	if moduleRoot != "" {
		if p, err := g.resolver.BuildPackagePath(moduleName, moduleRoot, dir); err == nil {
			importPath = p
		}
	}

	metadata, err := g.parser.ParseDirectory(dir)
	if err != nil {
		return err
	}
	g.summary.PackagesProcessed++

	target := filepath.Join(dir, parser.GeneratedFileName)
	if metadata.FunctionCount() == 0 {
		// a package that lost its functions must not keep a stale file
		if err := os.Remove(target); err == nil {
			g.summary.RemovedFiles = append(g.summary.RemovedFiles, target)
			g.diagnostics.Verbose("removed stale %s", target)
		}
		return nil
	}

	out, err := g.generator.Generate(metadata)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out.FilePath, []byte(out.Content), 0o644); err != nil {
		return fnerrors.WrapFileSystemError("write", out.FilePath, err)
	}

	g.summary.FunctionsFound += out.Functions
	g.summary.GeneratedFiles = append(g.summary.GeneratedFiles, out.FilePath)
	g.diagnostics.Item("%s (%d functions)", importPath, out.Functions)
	return nil
}
