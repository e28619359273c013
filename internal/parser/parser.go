// Package parser reads annotated Go source and extracts function metadata
package parser

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/toyz/fnbridge/internal/annotations"
	fnerrors "github.com/toyz/fnbridge/internal/errors"
	"github.com/toyz/fnbridge/internal/models"
	"github.com/toyz/fnbridge/pkg/web"
)

// GeneratedFileName is the file the generator writes into each package
const GeneratedFileName = "autogen_functions.go"

// Parser extracts function metadata from annotated source
type Parser struct {
	fileSet     *token.FileSet
	annotations *annotations.Parser
}

// NewParser creates a new source parser
func NewParser() *Parser {
	return &Parser{
		fileSet:     token.NewFileSet(),
		annotations: annotations.NewParser(),
	}
}

// ParseSource parses a single source file, mainly for tests
func (p *Parser) ParseSource(filename, source string) (*models.PackageMetadata, error) {
	file, err := parser.ParseFile(p.fileSet, filename, source, parser.ParseComments)
	if err != nil {
		return nil, fnerrors.Wrap(fnerrors.SyntaxErrorCode, "failed to parse source", err)
	}
	return p.build(file.Name.Name, ".", []*ast.File{file})
}

// ParseDirectory parses the non-test, non-generated Go files of one directory
func (p *Parser) ParseDirectory(dir string) (*models.PackageMetadata, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fnerrors.WrapFileSystemError("read", dir, err)
	}

	var (
		files       []*ast.File
		packageName string
	)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") || name == GeneratedFileName {
			continue
		}
		path := filepath.Join(dir, name)
		file, err := parser.ParseFile(p.fileSet, path, nil, parser.ParseComments)
		if err != nil {
			return nil, fnerrors.Wrap(fnerrors.SyntaxErrorCode, fmt.Sprintf("failed to parse %s", path), err)
		}
		if packageName != "" && file.Name.Name != packageName {
			return nil, fnerrors.Newf(fnerrors.ValidationErrorCode, "multiple packages found in directory %s", dir)
		}
		packageName = file.Name.Name
		files = append(files, file)
	}
	if len(files) == 0 {
		return &models.PackageMetadata{PackagePath: dir, Imports: map[string]string{}}, nil
	}
	return p.build(packageName, dir, files)
}

func (p *Parser) build(packageName, dir string, files []*ast.File) (*models.PackageMetadata, error) {
	metadata := &models.PackageMetadata{
		PackageName: packageName,
		PackagePath: dir,
		Imports:     make(map[string]string),
	}
	receivers := make(map[string]*models.ReceiverMetadata)
	receiver := func(name string) *models.ReceiverMetadata {
		r, ok := receivers[name]
		if !ok {
			r = &models.ReceiverMetadata{TypeName: name}
			receivers[name] = r
		}
		return r
	}

	var errs fnerrors.MultipleErrors

	// types first so class-level filters are known before methods
	for _, file := range files {
		collectImports(file, metadata.Imports)
		for _, decl := range file.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok || gen.Tok != token.TYPE {
				continue
			}
			for _, spec := range gen.Specs {
				ts := spec.(*ast.TypeSpec)
				doc := ts.Doc
				if doc == nil && len(gen.Specs) == 1 {
					doc = gen.Doc
				}
				parsed, err := p.parseDoc(doc)
				if err != nil {
					errs.Add(err)
					continue
				}
				filters, err := filtersOf(parsed, true)
				if err != nil {
					errs.Add(err)
					continue
				}
				if len(filters) > 0 {
					receiver(ts.Name.Name).Filters = filters
				}
			}
		}
	}

	seen := make(map[string]string)
	for _, file := range files {
		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv == nil || len(fn.Recv.List) != 1 {
				continue
			}
			parsed, err := p.parseDoc(fn.Doc)
			if err != nil {
				errs.Add(err)
				continue
			}
			if !hasFunction(parsed) {
				if len(parsed) > 0 {
					errs.Add(fnerrors.NewValidationError("annotations on "+fn.Name.Name, "an //fn::Function annotation", "none", parsed[0].Location))
				}
				continue
			}

			meta, err := p.function(fn, parsed)
			if err != nil {
				errs.Add(err)
				continue
			}
			key := strings.ToLower(meta.Name)
			if prev, dup := seen[key]; dup {
				errs.Add(fnerrors.Newf(fnerrors.ValidationErrorCode, "%s: function %s is already declared at %s", meta.Location, meta.Name, prev))
				continue
			}
			seen[key] = meta.Location

			recvName := receiverName(fn.Recv.List[0].Type)
			r := receiver(recvName)
			r.Functions = append(r.Functions, meta)
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	for _, r := range receivers {
		if len(r.Functions) > 0 {
			metadata.Receivers = append(metadata.Receivers, r)
		}
	}
	sort.Slice(metadata.Receivers, func(i, j int) bool {
		return metadata.Receivers[i].TypeName < metadata.Receivers[j].TypeName
	})
	return metadata, nil
}

func (p *Parser) parseDoc(doc *ast.CommentGroup) ([]*annotations.ParsedAnnotation, error) {
	if doc == nil {
		return nil, nil
	}
	var out []*annotations.ParsedAnnotation
	var errs fnerrors.MultipleErrors
	for _, c := range doc.List {
		if !annotations.IsAnnotation(c.Text) {
			continue
		}
		pos := p.fileSet.Position(c.Slash)
		a, err := p.annotations.Parse(c.Text, fnerrors.SourceLocation{File: pos.Filename, Line: pos.Line, Column: pos.Column})
		if err != nil {
			errs.Add(err)
			continue
		}
		out = append(out, a)
	}
	return out, errs.ErrorOrNil()
}

func hasFunction(parsed []*annotations.ParsedAnnotation) bool {
	for _, a := range parsed {
		if a.Type == annotations.FunctionAnnotation {
			return true
		}
	}
	return false
}

// filtersOf returns the authorization markers among parsed. On a type only
// markers are allowed.
func filtersOf(parsed []*annotations.ParsedAnnotation, onType bool) ([]models.FilterMetadata, error) {
	var filters []models.FilterMetadata
	for _, a := range parsed {
		switch a.Type {
		case annotations.AuthorizeAnnotation:
			filters = append(filters, models.FilterMetadata{
				Kind:    models.AuthorizeFilter,
				Policy:  a.String("Policy"),
				Roles:   a.List("Roles"),
				Schemes: a.List("Schemes"),
			})
		case annotations.AllowAnonymousAnnotation:
			filters = append(filters, models.FilterMetadata{Kind: models.AllowAnonymousFilter})
		default:
			if onType {
				return nil, fnerrors.NewValidationError("annotation on a type", "Authorize or AllowAnonymous", a.Type.String(), a.Location)
			}
		}
	}
	return filters, nil
}

func (p *Parser) function(fn *ast.FuncDecl, parsed []*annotations.ParsedAnnotation) (*models.FunctionMetadata, error) {
	pos := p.fileSet.Position(fn.Pos())
	meta := &models.FunctionMetadata{
		Name:       fn.Name.Name,
		MethodName: fn.Name.Name,
		Location:   fmt.Sprintf("%s:%d", pos.Filename, pos.Line),
	}
	loc := fnerrors.SourceLocation{File: pos.Filename, Line: pos.Line}

	if !fn.Name.IsExported() {
		return nil, fnerrors.NewValidationError("function "+fn.Name.Name, "an exported method", "unexported", loc)
	}

	for _, field := range fn.Type.Params.List {
		typeExpr := types.ExprString(field.Type)
		if _, variadic := field.Type.(*ast.Ellipsis); variadic {
			return nil, fnerrors.NewValidationError("function "+fn.Name.Name, "no variadic parameters", typeExpr, loc)
		}
		if len(field.Names) == 0 {
			return nil, fnerrors.NewValidationError("function "+fn.Name.Name, "named parameters", typeExpr, loc)
		}
		for _, name := range field.Names {
			meta.Parameters = append(meta.Parameters, &models.ParameterMetadata{Name: name.Name, Type: typeExpr})
		}
	}

	results, err := resultKind(fn)
	if err != nil {
		return nil, fnerrors.NewValidationError("results of "+fn.Name.Name, "(), (T), (error) or (T, error)", err.Error(), loc)
	}
	meta.Results = results

	for _, a := range parsed {
		switch {
		case a.Type == annotations.FunctionAnnotation:
			if a.Target != "" {
				meta.Name = a.Target
			}
			meta.Route = a.String("Route")
			for _, m := range a.List("Methods") {
				meta.Methods = append(meta.Methods, strings.ToUpper(m))
			}
		case a.Type.IsBinding() || a.Type == annotations.ValidateAnnotation || a.Type == annotations.DefaultAnnotation:
			param := meta.Parameter(a.Target)
			if param == nil {
				return nil, fnerrors.NewValidationError(a.Type.String()+" target", "a parameter of "+fn.Name.Name, a.Target, a.Location)
			}
			if err := applyParameter(param, a); err != nil {
				return nil, err
			}
		}
	}

	filters, err := filtersOf(parsed, false)
	if err != nil {
		return nil, err
	}
	meta.Filters = filters

	if err := checkRoute(meta, loc); err != nil {
		return nil, err
	}
	return meta, nil
}

func applyParameter(param *models.ParameterMetadata, a *annotations.ParsedAnnotation) error {
	switch a.Type {
	case annotations.ValidateAnnotation:
		param.Rules = a.String("Rules")
		return nil
	case annotations.DefaultAnnotation:
		param.Default = a.RawValue("Value")
		return nil
	}

	if param.Source != models.SourceNone {
		return fnerrors.NewValidationError("binding of "+param.Name, "a single source", string(param.Source)+" and "+a.Type.String(), a.Location)
	}
	param.Source = models.BindingSource(a.Type.String())
	param.SourceName = a.String("Name")
	if a.Type == annotations.FromFormAnnotation {
		for _, key := range []string{"ValueCountLimit", "KeyLengthLimit", "ValueLengthLimit", "MultipartBodyLengthLimit"} {
			if !a.Has(key) {
				continue
			}
			n, err := a.Int(key)
			if err != nil {
				return fnerrors.NewValidationError(key, "an integer", a.RawValue(key), a.Location)
			}
			if param.FormLimits == nil {
				param.FormLimits = make(map[string]int64)
			}
			param.FormLimits[key] = n
		}
	}
	return nil
}

// checkRoute verifies that declared route bindings name route values
func checkRoute(meta *models.FunctionMetadata, loc fnerrors.SourceLocation) error {
	values := web.RoutePath(meta.Route).Parameters()
	for _, param := range meta.Parameters {
		if param.Source != models.SourceRoute {
			continue
		}
		name := param.SourceName
		if name == "" {
			name = param.Name
		}
		found := false
		for key := range values {
			if strings.EqualFold(key, name) {
				found = true
				break
			}
		}
		if !found {
			return fnerrors.NewValidationError("route value "+name, "a value of "+meta.Route, "nothing", loc)
		}
	}
	return nil
}

func resultKind(fn *ast.FuncDecl) (models.ResultKind, error) {
	if fn.Type.Results == nil {
		return models.NoResult, nil
	}
	var results []ast.Expr
	for _, field := range fn.Type.Results.List {
		n := len(field.Names)
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			results = append(results, field.Type)
		}
	}
	isError := func(e ast.Expr) bool {
		id, ok := e.(*ast.Ident)
		return ok && id.Name == "error"
	}
	switch len(results) {
	case 0:
		return models.NoResult, nil
	case 1:
		if isError(results[0]) {
			return models.ErrorResult, nil
		}
		return models.ValueResult, nil
	case 2:
		if isError(results[1]) {
			return models.ValueErrorResult, nil
		}
	}
	return 0, fmt.Errorf("%d results", len(results))
}

func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverName(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		return receiverName(t.X)
	}
	return types.ExprString(expr)
}

func collectImports(file *ast.File, into map[string]string) {
	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		alias := ""
		if imp.Name != nil {
			alias = imp.Name.Name
		}
		if alias == "_" || alias == "." {
			continue
		}
		into[path] = alias
	}
}
