// Package templates holds the templates the generator renders
package templates

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// FileData is the input of FunctionsTemplate
type FileData struct {
	PackageName string
	Imports     []ImportData
	Receivers   []ReceiverData
	Functions   []FunctionData
}

// ImportData is one import of the generated file
type ImportData struct {
	Alias string
	Path  string
}

// ReceiverData is one parameter of the generated Functions constructor
type ReceiverData struct {
	TypeName string
	VarName  string
}

// FunctionData is one generated descriptor. Filters, Attributes and Invoke
// hold Go source.
type FunctionData struct {
	Name          string
	Route         string
	Methods       []string
	ClassFilters  []string
	MethodFilters []string
	Params        []ParamData
	Invoke        []string
}

// ParamData is one generated parameter descriptor
type ParamData struct {
	Name       string
	Type       string
	Attributes []string
	Default    string
	Rules      string
}

// FunctionsTemplate renders autogen_functions.go
const FunctionsTemplate = `// Code generated by fnbridge. DO NOT EDIT.

package {{.PackageName}}

import (
	"context"

	"github.com/toyz/fnbridge/pkg/authz"
	"github.com/toyz/fnbridge/pkg/binding"
	"github.com/toyz/fnbridge/pkg/host"
{{- range .Imports}}
	{{if .Alias}}{{.Alias}} {{end}}{{quote .Path}}
{{- end}}
)

// Functions returns the descriptors of the annotated functions of this package
func Functions({{range $i, $r := .Receivers}}{{if $i}}, {{end}}{{$r.VarName}} *{{$r.TypeName}}{{end}}) []*host.FunctionDescriptor {
	return []*host.FunctionDescriptor{
{{- range .Functions}}
		{
			Name:    {{quote .Name}},
			Route:   {{quote .Route}},
			Methods: []string{ {{- quoteList .Methods -}} },
{{- if .ClassFilters}}
			ClassLevelFilters: []any{ {{- join .ClassFilters -}} },
{{- end}}
{{- if .MethodFilters}}
			MethodLevelFilters: []any{ {{- join .MethodFilters -}} },
{{- end}}
			Parameters: []host.ParameterDescriptor{
{{- range .Params}}
				{
					Name: {{quote .Name}},
					Type: host.TypeOf[{{.Type}}](),
{{- if .Attributes}}
					Attributes: []any{ {{- join .Attributes -}} },
{{- end}}
{{- if .Default}}
					Default:    {{.Default}},
					HasDefault: true,
{{- end}}
{{- if .Rules}}
					Rules: {{quote .Rules}},
{{- end}}
				},
{{- end}}
			},
			Invoke: func(_ context.Context, args []any) (any, error) {
{{- range .Invoke}}
				{{.}}
{{- end}}
			},
		},
{{- end}}
	}
}
`

var funcs = template.FuncMap{
	"quote": func(s string) string { return fmt.Sprintf("%q", s) },
	"quoteList": func(items []string) string {
		quoted := make([]string, len(items))
		for i, item := range items {
			quoted[i] = fmt.Sprintf("%q", item)
		}
		return strings.Join(quoted, ", ")
	},
	"join": func(items []string) string { return strings.Join(items, ", ") },
}

// Execute renders a template with the shared helper functions
func Execute(name, text string, data any) (string, error) {
	tmpl, err := template.New(name).Funcs(funcs).Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}
