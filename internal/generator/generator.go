// Package generator turns parsed function metadata into autogen_functions.go
package generator

import (
	"fmt"
	"go/token"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/tools/imports"

	fnerrors "github.com/toyz/fnbridge/internal/errors"
	"github.com/toyz/fnbridge/internal/models"
	"github.com/toyz/fnbridge/internal/parser"
	"github.com/toyz/fnbridge/internal/templates"
)

// GeneratedFile is the rendered output for one package
type GeneratedFile struct {
	PackageName string
	FilePath    string
	Content     string
	Functions   int
}

// templateImports are imported by FunctionsTemplate itself
var templateImports = map[string]bool{
	"context":                              true,
	"github.com/toyz/fnbridge/pkg/authz":   true,
	"github.com/toyz/fnbridge/pkg/binding": true,
	"github.com/toyz/fnbridge/pkg/host":    true,
}

// Generator renders function descriptors
type Generator struct {
	// Format runs goimports over the output; disabled in some tests
	Format bool
}

// NewGenerator creates a generator that formats its output
func NewGenerator() *Generator {
	return &Generator{Format: true}
}

// Generate renders the descriptors of one package
func (g *Generator) Generate(metadata *models.PackageMetadata) (*GeneratedFile, error) {
	if metadata == nil {
		return nil, fmt.Errorf("metadata cannot be nil")
	}

	data := templates.FileData{PackageName: metadata.PackageName}

	paths := make([]string, 0, len(metadata.Imports))
	for path := range metadata.Imports {
		if !templateImports[path] {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	for _, path := range paths {
		data.Imports = append(data.Imports, templates.ImportData{Alias: metadata.Imports[path], Path: path})
	}

	for _, r := range metadata.Receivers {
		recv := templates.ReceiverData{TypeName: r.TypeName, VarName: varName(r.TypeName)}
		data.Receivers = append(data.Receivers, recv)
		for _, fn := range r.Functions {
			data.Functions = append(data.Functions, functionData(recv.VarName, r, fn))
		}
	}

	content, err := templates.Execute("functions", templates.FunctionsTemplate, data)
	if err != nil {
		return nil, fnerrors.WrapGenerateError("functions of package "+metadata.PackageName, err)
	}

	filePath := filepath.Join(metadata.PackagePath, parser.GeneratedFileName)
	if g.Format {
		formatted, err := imports.Process(filePath, []byte(content), &imports.Options{Comments: true, TabIndent: true, TabWidth: 8})
		if err != nil {
			return nil, fnerrors.WrapGenerateError("formatted source for "+filePath, err)
		}
		content = string(formatted)
	}

	return &GeneratedFile{
		PackageName: metadata.PackageName,
		FilePath:    filePath,
		Content:     content,
		Functions:   metadata.FunctionCount(),
	}, nil
}

func functionData(recvVar string, r *models.ReceiverMetadata, fn *models.FunctionMetadata) templates.FunctionData {
	data := templates.FunctionData{
		Name:          fn.Name,
		Route:         fn.Route,
		Methods:       fn.Methods,
		ClassFilters:  filterExprs(r.Filters),
		MethodFilters: filterExprs(fn.Filters),
	}

	args := make([]string, len(fn.Parameters))
	for i, p := range fn.Parameters {
		data.Params = append(data.Params, templates.ParamData{
			Name:       p.Name,
			Type:       p.Type,
			Attributes: attributeExprs(p),
			Default:    defaultExpr(p),
			Rules:      p.Rules,
		})
		args[i] = fmt.Sprintf("host.Arg[%s](args, %d)", p.Type, i)
	}

	call := fmt.Sprintf("%s.%s(%s)", recvVar, fn.MethodName, strings.Join(args, ", "))
	switch fn.Results {
	case models.NoResult:
		data.Invoke = []string{call, "return nil, nil"}
	case models.ValueResult:
		data.Invoke = []string{"return " + call + ", nil"}
	case models.ErrorResult:
		data.Invoke = []string{"return nil, " + call}
	case models.ValueErrorResult:
		data.Invoke = []string{"return " + call}
	}
	return data
}

func filterExprs(filters []models.FilterMetadata) []string {
	var out []string
	for _, f := range filters {
		switch f.Kind {
		case models.AllowAnonymousFilter:
			out = append(out, "authz.AllowAnonymous{}")
		case models.AuthorizeFilter:
			var fields []string
			if f.Policy != "" {
				fields = append(fields, fmt.Sprintf("Policy: %q", f.Policy))
			}
			if len(f.Roles) > 0 {
				fields = append(fields, fmt.Sprintf("Roles: %q", strings.Join(f.Roles, ",")))
			}
			if len(f.Schemes) > 0 {
				fields = append(fields, fmt.Sprintf("AuthenticationSchemes: %q", strings.Join(f.Schemes, ",")))
			}
			out = append(out, "authz.Authorize{"+strings.Join(fields, ", ")+"}")
		}
	}
	return out
}

var limitFields = []string{"ValueCountLimit", "KeyLengthLimit", "ValueLengthLimit", "MultipartBodyLengthLimit"}

func attributeExprs(p *models.ParameterMetadata) []string {
	if p.Source == models.SourceNone {
		return nil
	}
	marker := "binding." + string(p.Source) + "{}"
	if p.SourceName != "" && p.Source != models.SourceBody {
		marker = fmt.Sprintf("binding.%s{Name: %q}", p.Source, p.SourceName)
	}
	out := []string{marker}

	if len(p.FormLimits) > 0 {
		var fields []string
		for _, key := range limitFields {
			v, ok := p.FormLimits[key]
			if !ok {
				continue
			}
			if key == "MultipartBodyLengthLimit" {
				fields = append(fields, fmt.Sprintf("%s: binding.Limit(int64(%d))", key, v))
			} else {
				fields = append(fields, fmt.Sprintf("%s: binding.Limit(%d)", key, v))
			}
		}
		out = append(out, "binding.FormLimits{"+strings.Join(fields, ", ")+"}")
	}
	return out
}

// defaultExpr converts the default to the parameter type where a conversion
// is legal syntax
func defaultExpr(p *models.ParameterMetadata) string {
	if p.Default == "" {
		return ""
	}
	if strings.HasPrefix(p.Type, "*") || strings.HasPrefix(p.Type, "[]") || strings.HasPrefix(p.Type, "map[") {
		return p.Default
	}
	return fmt.Sprintf("%s(%s)", p.Type, p.Default)
}

func varName(typeName string) string {
	if typeName == "" {
		return "recv"
	}
	r := []rune(typeName)
	i := 0
	for i < len(r) && unicode.IsUpper(r[i]) {
		i++
	}
	// lower the leading acronym, keeping the start of the next word
	if i > 1 && i < len(r) {
		i--
	}
	for j := 0; j < i || j == 0; j++ {
		r[j] = unicode.ToLower(r[j])
	}
	name := string(r)
	switch name {
	case "args", "host", "authz", "binding", "context":
		return name + "Recv"
	}
	if token.IsKeyword(name) {
		return name + "Recv"
	}
	return name
}
