package host

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/toyz/fnbridge/pkg/authn"
	"github.com/toyz/fnbridge/pkg/web"
)

// Value groups the host collects from the application graph
const (
	FunctionsGroup        = "functions"
	HTTPMiddlewareGroup   = "http_middleware"
	InvocationFilterGroup = "invocation_filters"
	BindingProviderGroup  = "binding_providers"
)

// Params are the host's dependencies when built by fx
type Params struct {
	fx.In

	Config      *Config
	Server      web.WebServerInterface
	Index       *Index
	Schemes     *authn.SchemeTable
	AuthOptions *authn.Options
	Logger      *slog.Logger `optional:"true"`

	Functions        [][]*FunctionDescriptor `group:"functions"`
	Middlewares      []HTTPMiddleware        `group:"http_middleware"`
	Filters          []InvocationFilter      `group:"invocation_filters"`
	BindingProviders []BindingProvider       `group:"binding_providers"`
}

// NewFromParams builds a host and registers everything collected from the graph
func NewFromParams(p Params) (*Host, error) {
	opts := []Option{WithIndex(p.Index), WithSchemes(p.Schemes, p.AuthOptions)}
	if p.Logger != nil {
		opts = append(opts, WithLogger(p.Logger))
	}
	h := New(p.Config, p.Server, opts...)

	for _, fns := range p.Functions {
		if err := h.Register(fns...); err != nil {
			return nil, err
		}
	}
	for _, mw := range p.Middlewares {
		h.services.AddHTTPMiddleware(mw)
	}
	for _, f := range p.Filters {
		h.services.AddInvocationFilter(f)
	}
	for _, bp := range p.BindingProviders {
		h.services.AddBindingProvider(bp)
	}
	return h, nil
}

// Module provides the host and the shared state components need before the
// host exists: the function index, router and scheme table.
var Module = fx.Module("host",
	fx.Provide(
		NewIndex,
		func(i *Index) FunctionIndex { return i },
		func() Router { return InvocationRouter{} },
		authn.NewSchemeTable,
		func() *authn.Options { return &authn.Options{} },
		NewFromParams,
	),
	fx.Invoke(registerLifecycle),
)

func registerLifecycle(lc fx.Lifecycle, h *Host) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return h.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return h.Stop(ctx)
		},
	})
}
