// Package host is a function host: it dispatches HTTP requests to named
// functions through a chain of discovered HTTP middlewares.
package host

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/toyz/fnbridge/pkg/web"
)

// InvokeFunc calls the user function with fully bound arguments
type InvokeFunc func(ctx context.Context, args []any) (any, error)

// FunctionDescriptor describes one function the host can dispatch to
type FunctionDescriptor struct {
	Name    string
	Route   web.RoutePath
	Methods []string

	// Filters declared on the function's receiver type, then on the function itself
	ClassLevelFilters  []any
	MethodLevelFilters []any

	Parameters []ParameterDescriptor
	Invoke     InvokeFunc
}

// ParameterDescriptor describes one function parameter
type ParameterDescriptor struct {
	Name       string
	Type       reflect.Type
	Attributes []any
	Default    any
	HasDefault bool
	// Rules are validator tags applied to the bound value, e.g. "required,min=1"
	Rules string
}

// Filters returns class-level then method-level filters
func (f *FunctionDescriptor) Filters() []any {
	filters := make([]any, 0, len(f.ClassLevelFilters)+len(f.MethodLevelFilters))
	filters = append(filters, f.ClassLevelFilters...)
	return append(filters, f.MethodLevelFilters...)
}

// Validate checks that the descriptor can be registered
func (f *FunctionDescriptor) Validate() error {
	var errs []error
	if f.Name == "" {
		errs = append(errs, errors.New("function name is required"))
	}
	if f.Route == "" {
		errs = append(errs, fmt.Errorf("function %s: route is required", f.Name))
	}
	if f.Invoke == nil {
		errs = append(errs, fmt.Errorf("function %s: invoke is required", f.Name))
	}
	seen := make(map[string]bool)
	for _, p := range f.Parameters {
		if p.Type == nil {
			errs = append(errs, fmt.Errorf("function %s: parameter %s has no type", f.Name, p.Name))
		}
		key := strings.ToLower(p.Name)
		if seen[key] {
			errs = append(errs, fmt.Errorf("function %s: duplicate parameter %s", f.Name, p.Name))
		}
		seen[key] = true
	}
	return errors.Join(errs...)
}

// AttributeOf returns the first attribute of type T on the parameter
func AttributeOf[T any](p ParameterDescriptor) (T, bool) {
	for _, attr := range p.Attributes {
		if v, ok := attr.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// TypeOf is shorthand for the reflect.Type of T, usable for interface types
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Arg returns args[i] as T. A nil argument yields the zero value.
func Arg[T any](args []any, i int) T {
	v, _ := args[i].(T)
	return v
}
