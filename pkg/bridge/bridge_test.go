package bridge_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/fnbridge/pkg/bridge"
	"github.com/toyz/fnbridge/pkg/endpoint"
	"github.com/toyz/fnbridge/pkg/host"
	"github.com/toyz/fnbridge/pkg/web"
	"github.com/toyz/fnbridge/pkg/web/adapters"
)

func newContext() (web.RequestContext, *host.Invocation) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := adapters.NewEchoRequestContext(echo.New().NewContext(req, httptest.NewRecorder()))
	inv := host.NewInvocation("f")
	host.Attach(ctx, inv)
	return ctx, inv
}

func stage(name string, log *[]string, callNext bool) web.MiddlewareFunc {
	return func(next web.HandlerFunc) web.HandlerFunc {
		return func(ctx web.RequestContext) error {
			*log = append(*log, name)
			if !callNext {
				return nil
			}
			return next(ctx)
		}
	}
}

func TestBridgeRunsStagesThenContinuationOnce(t *testing.T) {
	var log []string
	b := bridge.New(nil, func(b *bridge.Builder) {
		b.Use(stage("a", &log, true)).Use(stage("b", &log, true))
	}, nil)

	ctx, _ := newContext()
	err := b.Invoke(ctx, func(web.RequestContext) error {
		log = append(log, "host")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "host"}, log)
}

func TestBridgeInvokesContinuationWhenChainStops(t *testing.T) {
	var log []string
	b := bridge.New(nil, func(b *bridge.Builder) {
		b.Use(stage("auth", &log, false)).Use(stage("never", &log, true))
	}, nil)

	ctx, inv := newContext()
	err := b.Invoke(ctx, func(web.RequestContext) error {
		log = append(log, "host")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"auth", "host"}, log)

	_, pending := inv.TakeContinuation()
	assert.False(t, pending)
}

func TestBridgeWithoutStages(t *testing.T) {
	calls := 0
	b := bridge.New(nil, nil, nil)
	ctx, _ := newContext()

	require.NoError(t, b.Invoke(ctx, func(web.RequestContext) error { calls++; return nil }))
	assert.Equal(t, 1, calls)
}

func TestBridgePropagatesErrorsUnchanged(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	b := bridge.New(nil, func(b *bridge.Builder) {
		b.Use(func(web.HandlerFunc) web.HandlerFunc {
			return func(web.RequestContext) error { return boom }
		})
	}, nil)

	ctx, _ := newContext()
	err := b.Invoke(ctx, func(web.RequestContext) error { calls++; return nil })
	assert.Same(t, boom, err)
	assert.Equal(t, 0, calls)

	b = bridge.New(nil, nil, nil)
	ctx, _ = newContext()
	assert.Same(t, boom, b.Invoke(ctx, func(web.RequestContext) error { return boom }))
}

func TestBridgeConfigureRunsOnce(t *testing.T) {
	configured := 0
	b := bridge.New(nil, func(*bridge.Builder) { configured++ }, nil)
	for i := 0; i < 3; i++ {
		ctx, _ := newContext()
		require.NoError(t, b.Invoke(ctx, func(web.RequestContext) error { return nil }))
	}
	assert.Equal(t, 1, configured)
}

func TestBridgeAttachesEndpointBeforeStages(t *testing.T) {
	idx := host.NewIndex()
	require.NoError(t, idx.Add(&host.FunctionDescriptor{
		Name:              "f",
		Route:             "/f",
		ClassLevelFilters: []any{struct{ Other bool }{}},
		Invoke:            func(context.Context, []any) (any, error) { return nil, nil },
	}))

	var seen *host.Endpoint
	b := bridge.New(endpoint.NewResolver(idx, nil), func(b *bridge.Builder) {
		b.Use(func(next web.HandlerFunc) web.HandlerFunc {
			return func(ctx web.RequestContext) error {
				seen = host.FromRequest(ctx).Endpoint
				return next(ctx)
			}
		})
	}, nil)

	ctx, _ := newContext()
	require.NoError(t, b.Invoke(ctx, func(web.RequestContext) error { return nil }))
	require.NotNil(t, seen)
	assert.Equal(t, "f", seen.DisplayName)
	assert.Equal(t, 0, seen.Metadata.Len())
}

func TestRegisterThroughHost(t *testing.T) {
	server := adapters.NewDefaultEchoAdapter()
	h := host.New(&host.Config{Port: "0"}, server)

	var log []string
	configure := func(b *bridge.Builder) { b.Use(stage("bridge", &log, true)) }
	require.NoError(t, bridge.Register(h, endpoint.NewResolver(h.Index(), nil), configure))
	require.NoError(t, bridge.Register(h, endpoint.NewResolver(h.Index(), nil), configure))
	require.Len(t, h.Services().HTTPMiddlewares(), 1)

	require.NoError(t, h.Register(&host.FunctionDescriptor{
		Name:    "Hello",
		Route:   "/hello",
		Methods: []string{http.MethodGet},
		Invoke: func(context.Context, []any) (any, error) {
			log = append(log, "function")
			return "hi", nil
		},
	}))
	require.NoError(t, h.Mount())

	rec := httptest.NewRecorder()
	server.GetEngine().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hello", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hi", rec.Body.String())
	assert.Equal(t, []string{"bridge", "function"}, log)
}
