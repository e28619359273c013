package synth_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	fnerrors "github.com/toyz/fnbridge/internal/errors"
	"github.com/toyz/fnbridge/pkg/host"
	"github.com/toyz/fnbridge/pkg/synth"
	"github.com/toyz/fnbridge/pkg/web"
)

type pipeline struct {
	name  string
	order int
}

func (p *pipeline) Invoke(ctx web.RequestContext, next web.HandlerFunc) error { return next(ctx) }

func newPipeline(name string, order int) *pipeline {
	return &pipeline{name: name, order: order}
}

func newPipelineErr(name string) (*pipeline, error) {
	if name == "" {
		return nil, errors.New("name required")
	}
	return &pipeline{name: name}, nil
}

type notMiddleware struct{}

func TestSynthesizeForwardsConstruction(t *testing.T) {
	adapter, err := synth.Synthesize(host.NewCatalog(), host.ModuleName, host.HTTPMiddlewareContract, newPipeline)
	require.NoError(t, err)
	assert.Equal(t, host.TypeOf[host.HTTPMiddleware](), adapter.Contract)

	ctorType := reflect.TypeOf(adapter.Constructor())
	require.Equal(t, 2, ctorType.NumIn())
	assert.Equal(t, reflect.TypeOf(""), ctorType.In(0))
	assert.Equal(t, reflect.TypeOf(0), ctorType.In(1))
	assert.Equal(t, host.TypeOf[host.HTTPMiddleware](), ctorType.Out(0))

	product, err := adapter.New("bridge", 7)
	require.NoError(t, err)
	p, ok := product.(*pipeline)
	require.True(t, ok)
	assert.Equal(t, "bridge", p.name)
	assert.Equal(t, 7, p.order)

	_, err = adapter.New("too few")
	assert.Error(t, err)
	_, err = adapter.New(1, 2)
	assert.Error(t, err)
}

func TestSynthesizePropagatesConstructorErrors(t *testing.T) {
	adapter, err := synth.Synthesize(host.NewCatalog(), host.ModuleName, host.HTTPMiddlewareContract+"@"+host.HTTPMiddlewareVersion, newPipelineErr)
	require.NoError(t, err)

	_, err = adapter.New("")
	assert.EqualError(t, err, "name required")

	product, err := adapter.New("ok")
	require.NoError(t, err)
	assert.NotNil(t, product)
}

func TestSynthesizeFailsFast(t *testing.T) {
	catalog := host.NewCatalog()
	cases := []struct {
		name     string
		module   string
		contract string
		base     any
		code     fnerrors.ErrorCode
	}{
		{"unknown module", "missing.module", host.HTTPMiddlewareContract, newPipeline, fnerrors.ConfigurationErrorCode},
		{"unknown contract", host.ModuleName, "Missing", newPipeline, fnerrors.ConfigurationErrorCode},
		{"not a function", host.ModuleName, host.HTTPMiddlewareContract, 42, fnerrors.ConfigurationErrorCode},
		{"no parameters", host.ModuleName, host.HTTPMiddlewareContract, func() *pipeline { return nil }, fnerrors.ConfigurationErrorCode},
		{"too many parameters", host.ModuleName, host.HTTPMiddlewareContract, func(a, b, c, d, e int) *pipeline { return nil }, fnerrors.ConfigurationErrorCode},
		{"variadic", host.ModuleName, host.HTTPMiddlewareContract, func(a ...int) *pipeline { return nil }, fnerrors.ConfigurationErrorCode},
		{"bad second result", host.ModuleName, host.HTTPMiddlewareContract, func(a int) (*pipeline, int) { return nil, 0 }, fnerrors.ConfigurationErrorCode},
		{"does not implement", host.ModuleName, host.HTTPMiddlewareContract, func(a int) notMiddleware { return notMiddleware{} }, fnerrors.ContractErrorCode},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := synth.Synthesize(catalog, tc.module, tc.contract, tc.base)
			require.Error(t, err)
			assert.True(t, fnerrors.HasCode(err, tc.code), "got %v", err)
		})
	}
}

func TestRegisterAddsOnceToServices(t *testing.T) {
	adapter, err := synth.Synthesize(host.NewCatalog(), host.ModuleName, host.HTTPMiddlewareContract, newPipeline)
	require.NoError(t, err)
	services := host.NewServiceRegistry()

	added, err := adapter.Register(services, "a", 1)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = adapter.Register(services, "b", 2)
	require.NoError(t, err)
	assert.False(t, added)

	mws := services.HTTPMiddlewares()
	require.Len(t, mws, 1)
	assert.Equal(t, "a", mws[0].(*pipeline).name)
}

func TestProvideJoinsValueGroup(t *testing.T) {
	adapter, err := synth.Synthesize(host.NewCatalog(), host.ModuleName, host.HTTPMiddlewareContract, newPipeline)
	require.NoError(t, err)

	type collected struct {
		fx.In
		Middlewares []host.HTTPMiddleware `group:"http_middleware"`
	}
	var got []host.HTTPMiddleware

	app := fxtest.New(t,
		fx.Supply("provided", 3),
		adapter.Provide(host.HTTPMiddlewareGroup),
		fx.Invoke(func(c collected) { got = c.Middlewares }),
	)
	app.RequireStart()
	app.RequireStop()

	require.Len(t, got, 1)
	assert.Equal(t, "provided", got[0].(*pipeline).name)
	assert.Equal(t, 3, got[0].(*pipeline).order)
}
