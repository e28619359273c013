// Package models holds the metadata the parser extracts from annotated
// source and the generator turns into function descriptors.
package models

// PackageMetadata is one scanned package
type PackageMetadata struct {
	PackageName string
	PackagePath string
	// Imports maps the path of every import seen in the package's files to
	// its explicit name, empty when it has none
	Imports   map[string]string
	Receivers []*ReceiverMetadata
}

// FunctionCount returns the number of annotated functions
func (p *PackageMetadata) FunctionCount() int {
	n := 0
	for _, r := range p.Receivers {
		n += len(r.Functions)
	}
	return n
}

// ReceiverMetadata is a type whose methods are functions
type ReceiverMetadata struct {
	TypeName string
	// Filters are the authorization markers declared on the type
	Filters   []FilterMetadata
	Functions []*FunctionMetadata
}

// FilterKind is the kind of an authorization marker
type FilterKind int

const (
	AuthorizeFilter FilterKind = iota
	AllowAnonymousFilter
)

// FilterMetadata is one authorization marker
type FilterMetadata struct {
	Kind    FilterKind
	Policy  string
	Roles   []string
	Schemes []string
}

// ResultKind is the shape of a function's results
type ResultKind int

const (
	NoResult ResultKind = iota
	ValueResult
	ErrorResult
	ValueErrorResult
)

// FunctionMetadata is one annotated method
type FunctionMetadata struct {
	Name       string
	MethodName string
	Route      string
	Methods    []string
	Filters    []FilterMetadata
	Parameters []*ParameterMetadata
	Results    ResultKind
	Location   string
}

// Parameter returns the parameter called name
func (f *FunctionMetadata) Parameter(name string) *ParameterMetadata {
	for _, p := range f.Parameters {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// BindingSource names where a parameter is bound from; empty means the
// host's implicit binding
type BindingSource string

const (
	SourceNone  BindingSource = ""
	SourceBody  BindingSource = "FromBody"
	SourceQuery BindingSource = "FromQuery"
	SourceRoute BindingSource = "FromRoute"
	SourceForm  BindingSource = "FromForm"
)

// ParameterMetadata is one method parameter
type ParameterMetadata struct {
	Name string
	// Type is the Go type expression as written in source
	Type       string
	Source     BindingSource
	SourceName string
	Rules      string
	// Default is a Go constant expression
	Default string
	// FormLimits holds per-parameter form limits by field name
	FormLimits map[string]int64
}
