package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/fnbridge/internal/parser"
	"github.com/toyz/fnbridge/internal/utils"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newModule(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "go.mod"), "module example.com/app\n\ngo 1.25\n")
	writeFile(t, filepath.Join(root, "functions", "accounts.go"), `package functions

//fn::Authorize
type Accounts struct{}

//fn::Function GetAccount -Route=/accounts/{id:int} -Methods=GET
//fn::FromRoute id
func (a *Accounts) Get(id int) (string, error) { return "", nil }
`)
	writeFile(t, filepath.Join(root, "functions", "accounts_test.go"), "package functions\n")
	writeFile(t, filepath.Join(root, "plain", "plain.go"), "package plain\n")
	writeFile(t, filepath.Join(root, "vendor", "x", "x.go"), "package x\n")
	writeFile(t, filepath.Join(root, "_skip", "y.go"), "package y\n")
	return root
}

func quiet() *utils.DiagnosticSystem {
	d := utils.NewQuietDiagnostics()
	var buf bytes.Buffer
	d.SetOutput(&buf, &buf)
	return d
}

func TestScanDirectories(t *testing.T) {
	root := newModule(t)
	s := NewDirectoryScanner()

	dirs, err := s.ScanDirectories([]string{root + "/..."})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "functions"), filepath.Join(root, "plain")}, dirs)

	dirs, err = s.ScanDirectories([]string{filepath.Join(root, "functions")})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "functions")}, dirs)

	_, err = s.ScanDirectories([]string{filepath.Join(root, "missing")})
	assert.Error(t, err)
}

func TestModuleResolver(t *testing.T) {
	root := newModule(t)
	r := NewModuleResolver()

	name, modRoot, err := r.ResolveModuleName("", filepath.Join(root, "functions"))
	require.NoError(t, err)
	assert.Equal(t, "example.com/app", name)
	assert.Equal(t, root, modRoot)

	path, err := r.BuildPackagePath(name, modRoot, filepath.Join(root, "functions"))
	require.NoError(t, err)
	assert.Equal(t, "example.com/app/functions", path)

	name, _, err = r.ResolveModuleName("example.com/custom", root)
	require.NoError(t, err)
	assert.Equal(t, "example.com/custom", name)
}

func TestGenerateAndClean(t *testing.T) {
	root := newModule(t)
	g := NewGenerator(Config{Directories: []string{root + "/..."}}, quiet())
	require.NoError(t, g.Generate())

	summary := g.Summary()
	assert.Equal(t, 2, summary.PackagesProcessed)
	assert.Equal(t, 1, summary.FunctionsFound)
	generated := filepath.Join(root, "functions", parser.GeneratedFileName)
	assert.Equal(t, []string{generated}, summary.GeneratedFiles)

	content, err := os.ReadFile(generated)
	require.NoError(t, err)
	assert.Contains(t, string(content), "func Functions(accounts *Accounts)")
	assert.Contains(t, string(content), `Name:    "GetAccount"`)

	// regenerating ignores the previous output
	require.NoError(t, g.Generate())

	removed, err := NewCleaner().CleanGeneratedFiles([]string{root + "/..."})
	require.NoError(t, err)
	assert.Equal(t, []string{generated}, removed)
	_, err = os.Stat(generated)
	assert.True(t, os.IsNotExist(err))
}

func TestGenerateReportsAnnotationErrors(t *testing.T) {
	root := newModule(t)
	writeFile(t, filepath.Join(root, "broken", "broken.go"), `package broken

type T struct{}

//fn::Function -Route=missing-slash
func (T) A() {}
`)
	g := NewGenerator(Config{Directories: []string{root + "/..."}}, quiet())
	err := g.Generate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.go")
}

func TestGenerateRemovesStaleFile(t *testing.T) {
	root := newModule(t)
	stale := filepath.Join(root, "plain", parser.GeneratedFileName)
	writeFile(t, stale, "package plain\n")

	g := NewGenerator(Config{Directories: []string{filepath.Join(root, "plain")}}, quiet())
	require.NoError(t, g.Generate())
	assert.Equal(t, []string{stale}, g.Summary().RemovedFiles)
}
