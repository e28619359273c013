// Command fnbridge generates function descriptors from //fn:: annotations
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/toyz/fnbridge/internal/cli"
	"github.com/toyz/fnbridge/internal/utils"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("fnbridge", flag.ContinueOnError)
	flags.SetOutput(stderr)
	var (
		moduleFlag  = flags.String("module", "", "Custom module name for imports (defaults to go.mod module)")
		verboseFlag = flags.Bool("verbose", false, "Enable verbose output and detailed error reporting")
		quietFlag   = flags.Bool("quiet", false, "Only show errors and final results")
		cleanFlag   = flags.Bool("clean", false, "Delete all autogen_functions.go files from the specified directories")
	)

	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: fnbridge [options] <directory-paths...>\n\n")
		fmt.Fprintf(stderr, "fnbridge function generator\n")
		fmt.Fprintf(stderr, "Scans directories for methods annotated with //fn::Function and writes autogen_functions.go.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		flags.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  fnbridge ./...                    # Scan everything recursively\n")
		fmt.Fprintf(stderr, "  fnbridge ./internal/functions     # Scan one package\n")
		fmt.Fprintf(stderr, "  fnbridge --clean ./...            # Delete generated files\n")
	}

	if err := flags.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	dirs := flags.Args()
	if len(dirs) == 0 {
		fmt.Fprintf(stderr, "Error: At least one directory path is required\n\n")
		flags.Usage()
		return 1
	}

	var diagnostics *utils.DiagnosticSystem
	switch {
	case *quietFlag:
		diagnostics = utils.NewQuietDiagnostics()
	case *verboseFlag:
		diagnostics = utils.NewVerboseDiagnostics()
	default:
		diagnostics = utils.NewDiagnosticSystem(utils.DiagnosticInfo)
	}
	diagnostics.SetOutput(stdout, stderr)

	if *cleanFlag {
		removed, err := cli.NewCleaner().CleanGeneratedFiles(dirs)
		if err != nil {
			diagnostics.Error("Clean operation failed: %v", err)
			return 1
		}
		for _, f := range removed {
			diagnostics.Verbose("removed %s", f)
		}
		diagnostics.Success("Removed %d generated files", len(removed))
		return 0
	}

	diagnostics.Header("generating functions")
	generator := cli.NewGenerator(cli.Config{Directories: dirs, ModuleName: *moduleFlag, Verbose: *verboseFlag}, diagnostics)
	if err := generator.Generate(); err != nil {
		diagnostics.Error("Generation failed: %v", err)
		return 1
	}

	summary := generator.Summary()
	diagnostics.Summary("Generation complete", map[string]any{
		"Packages processed": summary.PackagesProcessed,
		"Files generated":    len(summary.GeneratedFiles),
		"Functions found":    summary.FunctionsFound,
	})
	if *verboseFlag {
		diagnostics.Subsection("Generated files")
		for _, f := range summary.GeneratedFiles {
			diagnostics.List("%s", f)
		}
	}
	return 0
}
