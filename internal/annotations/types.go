// Package annotations parses the //fn:: comments that declare functions,
// their authorization markers and their parameter bindings.
package annotations

import (
	"fmt"
	"strconv"
	"strings"

	fnerrors "github.com/toyz/fnbridge/internal/errors"
)

// Prefix starts every annotation comment
const Prefix = "//fn::"

// AnnotationType represents the type of annotation
type AnnotationType int

const (
	FunctionAnnotation AnnotationType = iota
	AuthorizeAnnotation
	AllowAnonymousAnnotation
	FromBodyAnnotation
	FromQueryAnnotation
	FromRouteAnnotation
	FromFormAnnotation
	ValidateAnnotation
	DefaultAnnotation
)

var typeNames = map[AnnotationType]string{
	FunctionAnnotation:       "Function",
	AuthorizeAnnotation:      "Authorize",
	AllowAnonymousAnnotation: "AllowAnonymous",
	FromBodyAnnotation:       "FromBody",
	FromQueryAnnotation:      "FromQuery",
	FromRouteAnnotation:      "FromRoute",
	FromFormAnnotation:       "FromForm",
	ValidateAnnotation:       "Validate",
	DefaultAnnotation:        "Default",
}

func (a AnnotationType) String() string {
	if name, ok := typeNames[a]; ok {
		return name
	}
	return "unknown"
}

// ParseAnnotationType converts an annotation name to its type
func ParseAnnotationType(s string) (AnnotationType, error) {
	for t, name := range typeNames {
		if strings.EqualFold(name, s) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown annotation type %q", s)
}

// IsFilter reports whether the annotation is an authorization marker
func (a AnnotationType) IsFilter() bool {
	return a == AuthorizeAnnotation || a == AllowAnonymousAnnotation
}

// IsBinding reports whether the annotation binds a parameter
func (a AnnotationType) IsBinding() bool {
	switch a {
	case FromBodyAnnotation, FromQueryAnnotation, FromRouteAnnotation, FromFormAnnotation:
		return true
	}
	return false
}

// ParsedAnnotation is one parsed //fn:: comment
type ParsedAnnotation struct {
	Type AnnotationType
	// Target is the first positional value: the function name for Function,
	// the parameter name for binding annotations
	Target     string
	Parameters map[string]string
	Location   fnerrors.SourceLocation
	Raw        string
}

// Has reports whether the parameter was given
func (a *ParsedAnnotation) Has(key string) bool {
	_, ok := a.Parameters[key]
	return ok
}

// String returns a parameter with surrounding quotes removed
func (a *ParsedAnnotation) String(key string) string {
	return unquote(a.Parameters[key])
}

// RawValue returns a parameter exactly as written
func (a *ParsedAnnotation) RawValue(key string) string {
	return a.Parameters[key]
}

// List returns a comma separated parameter as a slice
func (a *ParsedAnnotation) List(key string) []string {
	v := a.String(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Int returns an integer parameter
func (a *ParsedAnnotation) Int(key string) (int64, error) {
	return strconv.ParseInt(a.String(key), 10, 64)
}

func unquote(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		if s, err := strconv.Unquote(v); err == nil {
			return s
		}
		return v[1 : len(v)-1]
	}
	return v
}
