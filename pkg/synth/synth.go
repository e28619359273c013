// Package synth builds adapters that let a statically known component satisfy
// a host contract resolved by name at startup. The adapter is a forwarding
// constructor: same parameters as the base constructor, result typed as the
// host's interface, no added behavior.
package synth

import (
	"fmt"
	"reflect"

	"go.uber.org/fx"

	fnerrors "github.com/toyz/fnbridge/internal/errors"
	"github.com/toyz/fnbridge/pkg/host"
)

const (
	minParams = 1
	maxParams = 4
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Adapter is a synthesized forwarding constructor for one contract
type Adapter struct {
	// Contract is the interface the adapter's products are registered under
	Contract reflect.Type
	name     string
	base     reflect.Value
	ctor     reflect.Value
	hasErr   bool
}

// Synthesize resolves contract from the host catalog and builds an adapter
// around base, a constructor taking 1-4 parameters and returning a value that
// implements the contract, optionally with an error. Any failure is a
// configuration error: the host cannot discover the component without it.
func Synthesize(catalog *host.Catalog, module, contract string, base any) (*Adapter, error) {
	iface, err := catalog.Contract(module, contract)
	if err != nil {
		return nil, fnerrors.Wrap(fnerrors.ConfigurationErrorCode, "synthesize "+contract, err).
			WithSuggestion("make sure the host publishes " + contract + " in module " + module)
	}

	bv := reflect.ValueOf(base)
	if !bv.IsValid() || bv.Kind() != reflect.Func {
		return nil, fnerrors.NewConfigurationError("synthesize "+contract, fmt.Sprintf("base constructor must be a function, got %T", base))
	}
	bt := bv.Type()
	if bt.IsVariadic() {
		return nil, fnerrors.NewConfigurationError("synthesize "+contract, "base constructor must not be variadic")
	}
	if n := bt.NumIn(); n < minParams || n > maxParams {
		return nil, fnerrors.NewConfigurationError("synthesize "+contract,
			fmt.Sprintf("base constructor takes %d parameters, expected %d to %d", n, minParams, maxParams))
	}

	hasErr := false
	switch bt.NumOut() {
	case 1:
	case 2:
		if bt.Out(1) != errorType {
			return nil, fnerrors.NewConfigurationError("synthesize "+contract, "second result of base constructor must be error")
		}
		hasErr = true
	default:
		return nil, fnerrors.NewConfigurationError("synthesize "+contract, "base constructor must return (T) or (T, error)")
	}
	if !bt.Out(0).Implements(iface) {
		return nil, fnerrors.NewContractError(contract, fmt.Sprintf("%s does not implement %s", bt.Out(0), iface))
	}

	in := make([]reflect.Type, bt.NumIn())
	for i := range in {
		in[i] = bt.In(i)
	}
	out := []reflect.Type{iface}
	if hasErr {
		out = append(out, errorType)
	}

	ctor := reflect.MakeFunc(reflect.FuncOf(in, out, false), func(args []reflect.Value) []reflect.Value {
		results := bv.Call(args)
		product := reflect.New(iface).Elem()
		if !isNil(results[0]) {
			product.Set(results[0])
		}
		if hasErr {
			return []reflect.Value{product, results[1]}
		}
		return []reflect.Value{product}
	})

	return &Adapter{Contract: iface, name: contract, base: bv, ctor: ctor, hasErr: hasErr}, nil
}

// Constructor returns the forwarding constructor as a func value
func (a *Adapter) Constructor() any {
	return a.ctor.Interface()
}

// New calls the forwarding constructor. Nil arguments become the zero value
// of the matching parameter.
func (a *Adapter) New(args ...any) (any, error) {
	ft := a.ctor.Type()
	if len(args) != ft.NumIn() {
		return nil, fmt.Errorf("%s adapter takes %d arguments, got %d", a.name, ft.NumIn(), len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		pt := ft.In(i)
		if arg == nil {
			in[i] = reflect.Zero(pt)
			continue
		}
		v := reflect.ValueOf(arg)
		if !v.Type().AssignableTo(pt) {
			return nil, fmt.Errorf("%s adapter argument %d: %s is not assignable to %s", a.name, i, v.Type(), pt)
		}
		in[i] = v
	}

	results := a.ctor.Call(in)
	if a.hasErr && !results[1].IsNil() {
		return nil, results[1].Interface().(error)
	}
	return results[0].Interface(), nil
}

// Register constructs an instance and adds it to the host's services under
// the contract. It reports whether the instance was added; a second instance
// of the same type is ignored.
func (a *Adapter) Register(services *host.ServiceRegistry, args ...any) (bool, error) {
	product, err := a.New(args...)
	if err != nil {
		return false, err
	}
	if product == nil {
		return false, fnerrors.NewConfigurationError("synthesize "+a.name, "constructor returned nil")
	}
	return services.TryAddEnumerable(a.Contract, product), nil
}

// Provide registers the forwarding constructor in an fx value group, so the
// host collects the product with the rest of its contract implementations
func (a *Adapter) Provide(group string) fx.Option {
	return fx.Provide(fx.Annotate(a.Constructor(), fx.ResultTags(fmt.Sprintf(`group:"%s"`, group))))
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
