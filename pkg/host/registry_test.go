package host

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/fnbridge/pkg/web"
)

func noop(context.Context, []any) (any, error) { return nil, nil }

func TestIndexLookupIsCaseInsensitive(t *testing.T) {
	idx := NewIndex()
	require.NoError(t, idx.Add(&FunctionDescriptor{Name: "GetAccount", Route: "/a", Invoke: noop}))

	fn, ok := idx.LookupByName("getaccount")
	require.True(t, ok)
	assert.Equal(t, "GetAccount", fn.Name)

	_, ok = idx.LookupByName("missing")
	assert.False(t, ok)

	err := idx.Add(&FunctionDescriptor{Name: "GETACCOUNT", Route: "/b", Invoke: noop})
	assert.Error(t, err)
}

func TestFunctionDescriptorValidate(t *testing.T) {
	err := (&FunctionDescriptor{
		Parameters: []ParameterDescriptor{{Name: "a"}, {Name: "A", Type: TypeOf[int]()}},
	}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "function name is required")
	assert.Contains(t, err.Error(), "route is required")
	assert.Contains(t, err.Error(), "has no type")
	assert.Contains(t, err.Error(), "duplicate parameter")
}

func TestFiltersOrderClassThenMethod(t *testing.T) {
	fn := &FunctionDescriptor{ClassLevelFilters: []any{"class"}, MethodLevelFilters: []any{"method1", "method2"}}
	assert.Equal(t, []any{"class", "method1", "method2"}, fn.Filters())
}

func TestCatalogResolvesContracts(t *testing.T) {
	c := NewCatalog()

	iface, err := c.Contract(ModuleName, HTTPMiddlewareContract)
	require.NoError(t, err)
	assert.Equal(t, TypeOf[HTTPMiddleware](), iface)

	iface, err = c.Contract(ModuleName, HTTPMiddlewareContract+"@"+HTTPMiddlewareVersion)
	require.NoError(t, err)
	assert.Equal(t, TypeOf[HTTPMiddleware](), iface)

	_, err = c.Contract("other", HTTPMiddlewareContract)
	assert.True(t, errors.Is(err, ErrModuleNotFound))

	_, err = c.Contract(ModuleName, "Missing")
	assert.True(t, errors.Is(err, ErrContractNotFound))

	assert.Error(t, c.Register(ModuleName, "NotAnInterface", "v1", TypeOf[int]()))
}

type mwA struct{}

func (mwA) Invoke(ctx web.RequestContext, next web.HandlerFunc) error { return next(ctx) }

type mwB struct{ tag string }

func (mwB) Invoke(ctx web.RequestContext, next web.HandlerFunc) error { return next(ctx) }

func TestServiceRegistryDedupesByImplementationType(t *testing.T) {
	r := NewServiceRegistry()

	assert.True(t, r.AddHTTPMiddleware(mwA{}))
	assert.False(t, r.AddHTTPMiddleware(mwA{}))
	assert.True(t, r.AddHTTPMiddleware(mwB{tag: "one"}))
	assert.False(t, r.AddHTTPMiddleware(mwB{tag: "two"}))

	mws := r.HTTPMiddlewares()
	require.Len(t, mws, 2)
	assert.IsType(t, mwA{}, mws[0])
	assert.IsType(t, mwB{}, mws[1])

	assert.False(t, r.TryAddEnumerable(TypeOf[HTTPMiddleware](), "not a middleware"))
}

func TestInvocationContinuationTakenOnce(t *testing.T) {
	inv := NewInvocation("f")
	_, ok := inv.TakeContinuation()
	assert.False(t, ok)

	calls := 0
	inv.StoreContinuation(func(web.RequestContext) error { calls++; return nil })

	next, ok := inv.TakeContinuation()
	require.True(t, ok)
	require.NoError(t, next(nil))
	assert.Equal(t, 1, calls)

	_, ok = inv.TakeContinuation()
	assert.False(t, ok)
}

func TestMetadataIsACopy(t *testing.T) {
	items := []any{"a", 1}
	m := NewMetadata(items...)
	items[0] = "changed"

	assert.Equal(t, "a", m.At(0))
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []int{1}, MetadataOf[int](m))
	assert.True(t, HasMetadata[string](m))
	assert.False(t, HasMetadata[float64](m))
}

func TestConvertRouteValue(t *testing.T) {
	v, err := convertRouteValue(int64(7), TypeOf[int]())
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	v, err = convertRouteValue("12", TypeOf[int]())
	require.NoError(t, err)
	assert.Equal(t, 12, v)

	_, err = convertRouteValue(true, TypeOf[int]())
	assert.Error(t, err)
}

func TestArgToleratesNil(t *testing.T) {
	args := []any{42, nil, "x"}
	assert.Equal(t, 42, Arg[int](args, 0))
	assert.Nil(t, Arg[*Invocation](args, 1))
	assert.Equal(t, "x", Arg[string](args, 2))
}
