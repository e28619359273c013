package host

import (
	"errors"

	"github.com/toyz/fnbridge/pkg/web"
)

// ErrInvocationHalted stops an invocation without running the function. The
// stage that returns it has already written the response.
var ErrInvocationHalted = errors.New("invocation halted")

// Binding produces the value of one parameter for one request
type Binding interface {
	Bind(ctx web.RequestContext, inv *Invocation) (any, error)
}

// BindingFunc adapts a function to Binding
type BindingFunc func(ctx web.RequestContext, inv *Invocation) (any, error)

// Bind calls f
func (f BindingFunc) Bind(ctx web.RequestContext, inv *Invocation) (any, error) {
	return f(ctx, inv)
}

// BindingProvider creates bindings for the parameters it understands. It is
// consulted once per parameter when a function is registered.
type BindingProvider interface {
	TryCreate(fn *FunctionDescriptor, param ParameterDescriptor) (Binding, bool, error)
}

// InvocationFilter runs before a function's arguments are bound
type InvocationFilter interface {
	OnExecuting(ctx web.RequestContext, inv *Invocation, fn *FunctionDescriptor) error
}

// InvocationFilterFunc adapts a function to InvocationFilter
type InvocationFilterFunc func(ctx web.RequestContext, inv *Invocation, fn *FunctionDescriptor) error

// OnExecuting calls f
func (f InvocationFilterFunc) OnExecuting(ctx web.RequestContext, inv *Invocation, fn *FunctionDescriptor) error {
	return f(ctx, inv, fn)
}
