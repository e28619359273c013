package host_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/fnbridge/pkg/authn"
	"github.com/toyz/fnbridge/pkg/host"
	"github.com/toyz/fnbridge/pkg/web"
	"github.com/toyz/fnbridge/pkg/web/adapters"
)

type account struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func newTestHost(t *testing.T) (*host.Host, *adapters.EchoAdapter) {
	t.Helper()
	server := adapters.NewDefaultEchoAdapter()
	h := host.New(&host.Config{Port: "0", FunctionKey: "secret"}, server)
	return h, server
}

func serve(server *adapters.EchoAdapter, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	server.GetEngine().ServeHTTP(rec, req)
	return rec
}

func getAccount() *host.FunctionDescriptor {
	return &host.FunctionDescriptor{
		Name:    "GetAccount",
		Route:   "/accounts/{id:int}",
		Methods: []string{http.MethodGet},
		Parameters: []host.ParameterDescriptor{
			{Name: "id", Type: host.TypeOf[int]()},
		},
		Invoke: func(_ context.Context, args []any) (any, error) {
			id := args[0].(int)
			if id == 404 {
				return nil, web.ErrNotFound("account not found")
			}
			return account{ID: id, Name: "acct"}, nil
		},
	}
}

func TestHostInvokesFunctionWithRouteData(t *testing.T) {
	h, server := newTestHost(t)
	require.NoError(t, h.Register(getAccount()))
	require.NoError(t, h.Mount())

	rec := serve(server, http.MethodGet, "/accounts/42")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":42,"name":"acct"}`, rec.Body.String())
}

func TestHostTypedRouteMismatchIsNotFound(t *testing.T) {
	h, server := newTestHost(t)
	require.NoError(t, h.Register(getAccount()))
	require.NoError(t, h.Mount())

	rec := serve(server, http.MethodGet, "/accounts/abc")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHostFunctionErrorWritesHttpError(t *testing.T) {
	h, server := newTestHost(t)
	require.NoError(t, h.Register(getAccount()))
	require.NoError(t, h.Mount())

	rec := serve(server, http.MethodGet, "/accounts/404")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "account not found")
}

func TestHostNilResultIsNoContent(t *testing.T) {
	h, server := newTestHost(t)
	require.NoError(t, h.Register(&host.FunctionDescriptor{
		Name:    "Ping",
		Route:   "/ping",
		Methods: []string{http.MethodPost},
		Invoke:  func(context.Context, []any) (any, error) { return nil, nil },
	}))
	require.NoError(t, h.Mount())

	rec := serve(server, http.MethodPost, "/ping")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHostMiddlewareOrderAndShortCircuit(t *testing.T) {
	h, server := newTestHost(t)
	var order []string
	h.Services().AddHTTPMiddleware(host.HTTPMiddlewareFunc(func(ctx web.RequestContext, next web.HandlerFunc) error {
		order = append(order, "first")
		if ctx.Request().Header("X-Block") != "" {
			return ctx.Response().JSON(http.StatusTeapot, map[string]string{"blocked": "yes"})
		}
		return next(ctx)
	}))
	require.NoError(t, h.Register(&host.FunctionDescriptor{
		Name:    "Echo",
		Route:   "/echo",
		Methods: []string{http.MethodGet},
		Invoke: func(context.Context, []any) (any, error) {
			order = append(order, "function")
			return "hello", nil
		},
	}))
	require.NoError(t, h.Mount())

	rec := serve(server, http.MethodGet, "/echo")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", rec.Body.String())
	assert.Equal(t, []string{"first", "function"}, order)

	order = nil
	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	req.Header.Set("X-Block", "1")
	rec = httptest.NewRecorder()
	server.GetEngine().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, []string{"first"}, order)
}

func TestHostFilterHaltsInvocation(t *testing.T) {
	h, server := newTestHost(t)
	called := false
	h.Services().AddInvocationFilter(host.InvocationFilterFunc(func(ctx web.RequestContext, inv *host.Invocation, fn *host.FunctionDescriptor) error {
		_ = ctx.Response().JSON(http.StatusForbidden, map[string]string{"error": "halted"})
		return host.ErrInvocationHalted
	}))
	require.NoError(t, h.Register(&host.FunctionDescriptor{
		Name:    "Guarded",
		Route:   "/guarded",
		Methods: []string{http.MethodGet},
		Invoke: func(context.Context, []any) (any, error) {
			called = true
			return nil, nil
		},
	}))
	require.NoError(t, h.Mount())

	rec := serve(server, http.MethodGet, "/guarded")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, called)
}

type queryProvider struct{}

func (queryProvider) TryCreate(fn *host.FunctionDescriptor, param host.ParameterDescriptor) (host.Binding, bool, error) {
	if param.Name != "q" {
		return nil, false, nil
	}
	return host.BindingFunc(func(ctx web.RequestContext, _ *host.Invocation) (any, error) {
		return strings.ToUpper(ctx.QueryParams().Get("q")), nil
	}), true, nil
}

type failingProvider struct{}

func (failingProvider) TryCreate(*host.FunctionDescriptor, host.ParameterDescriptor) (host.Binding, bool, error) {
	return nil, false, errors.New("misconfigured")
}

func TestHostBindingProvidersAndInjectedParameters(t *testing.T) {
	h, server := newTestHost(t)
	h.Services().AddBindingProvider(queryProvider{})

	var gotInv *host.Invocation
	require.NoError(t, h.Register(&host.FunctionDescriptor{
		Name:    "Search",
		Route:   "/search",
		Methods: []string{http.MethodGet},
		Parameters: []host.ParameterDescriptor{
			{Name: "q", Type: host.TypeOf[string]()},
			{Name: "inv", Type: host.TypeOf[*host.Invocation]()},
			{Name: "page", Type: host.TypeOf[int](), Default: 1, HasDefault: true},
		},
		Invoke: func(_ context.Context, args []any) (any, error) {
			gotInv = args[1].(*host.Invocation)
			return map[string]any{"q": args[0], "page": args[2]}, nil
		},
	}))
	require.NoError(t, h.Mount())

	rec := serve(server, http.MethodGet, "/search?q=abc")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"q":"ABC","page":1}`, rec.Body.String())
	require.NotNil(t, gotInv)
	assert.Equal(t, "Search", gotInv.FunctionName)
}

func TestHostMountReportsBindingErrors(t *testing.T) {
	h, _ := newTestHost(t)
	h.Services().AddBindingProvider(failingProvider{})
	require.NoError(t, h.Register(getAccount()))

	err := h.Mount()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GetAccount")
	assert.Contains(t, err.Error(), "misconfigured")
}

func TestHostRegistersBuiltinSchemes(t *testing.T) {
	h, _ := newTestHost(t)

	_, ok := h.AuthenticationSchemes().Lookup(host.AuthLevelScheme)
	assert.True(t, ok)
	_, ok = h.AuthenticationSchemes().Lookup(authn.ReservedBearerScheme)
	assert.True(t, ok)
}

func TestFunctionKeyScheme(t *testing.T) {
	h, _ := newTestHost(t)
	scheme, ok := h.AuthenticationSchemes().Lookup(host.AuthLevelScheme)
	require.True(t, ok)

	cases := []struct {
		name      string
		header    string
		query     string
		succeeded bool
		none      bool
	}{
		{name: "header", header: "secret", succeeded: true},
		{name: "query", query: "secret", succeeded: true},
		{name: "wrong", header: "nope"},
		{name: "missing", none: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			target := "/"
			if tc.query != "" {
				target += "?code=" + tc.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tc.header != "" {
				req.Header.Set(host.FunctionKeyHeader, tc.header)
			}
			ctx := adapters.NewEchoRequestContext(echo.New().NewContext(req, httptest.NewRecorder()))

			result := scheme.Handler.Authenticate(ctx)
			assert.Equal(t, tc.succeeded, result.Succeeded())
			assert.Equal(t, tc.none, result.None)
		})
	}
}

func TestInvocationRouter(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := adapters.NewEchoRequestContext(echo.New().NewContext(req, httptest.NewRecorder()))

	_, ok := host.InvocationRouter{}.Route(ctx)
	assert.False(t, ok)

	host.Attach(ctx, host.NewInvocation("GetAccount"))
	name, ok := host.InvocationRouter{}.Route(ctx)
	assert.True(t, ok)
	assert.Equal(t, "GetAccount", name)
}
