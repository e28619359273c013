package main

import (
	"fmt"
	"log/slog"
	"os"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/toyz/fnbridge/cmd/fnhost/internal/accounts"
	"github.com/toyz/fnbridge/pkg/authn"
	"github.com/toyz/fnbridge/pkg/authz"
	"github.com/toyz/fnbridge/pkg/binding"
	"github.com/toyz/fnbridge/pkg/bridge"
	"github.com/toyz/fnbridge/pkg/endpoint"
	"github.com/toyz/fnbridge/pkg/host"
	"github.com/toyz/fnbridge/pkg/web"
	"github.com/toyz/fnbridge/pkg/web/adapters"
)

// appOptions assembles the function host, its authentication schemes and
// policies, the binder, the bridge and the account functions
func appOptions(cfg *Config, hostConfig *host.Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg, hostConfig),
		fx.Provide(
			newLogger,
			newServer,
			newSchemes,
			newAuthorizationOptions,
			newEvaluator,
			endpoint.NewResolver,
			func(r *endpoint.Resolver) authz.EndpointSource { return r },
			fx.Annotate(authz.NewGate,
				fx.As(new(host.InvocationFilter)),
				fx.ResultTags(`group:"invocation_filters"`)),
			fx.Annotate(newBindingProvider,
				fx.As(new(host.BindingProvider)),
				fx.ResultTags(`group:"binding_providers"`)),
			accounts.NewStore,
			newAccounts,
			fx.Annotate(accounts.Functions, fx.ResultTags(`group:"functions"`)),
		),
		host.Module,
		fx.Invoke(wire),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			l := &fxevent.SlogLogger{Logger: logger}
			l.UseLogLevel(slog.LevelDebug)
			return l
		}),
	)
}

func newLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.slogLevel()}))
}

func newServer(cfg *host.Config) (web.WebServerInterface, error) {
	switch cfg.Adapter {
	case "", "echo":
		return adapters.NewDefaultEchoAdapter(), nil
	case "gin":
		return adapters.NewDefaultGinAdapter(), nil
	case "fiber":
		return adapters.NewDefaultFiberAdapter(), nil
	}
	return nil, fmt.Errorf("unknown adapter %q, must be echo, gin or fiber", cfg.Adapter)
}

type schemesResult struct {
	fx.Out

	Builder *authn.Builder
	Issuer  accounts.TokenIssuer
}

// newSchemes builds one JWT bearer scheme per configured entry. The default
// scheme also issues the account tokens.
func newSchemes(cfg *Config) (schemesResult, error) {
	builder := authn.NewBuilder()
	var issuer accounts.TokenIssuer
	for name, sc := range cfg.Schemes {
		handler, err := authn.NewJWTBearer(name, sc.jwtConfig())
		if err != nil {
			return schemesResult{}, fmt.Errorf("scheme %s: %w", name, err)
		}
		builder.AddScheme(name, sc.DisplayName, handler)
		if name == cfg.DefaultScheme {
			issuer = handler
		}
	}
	builder.Configure(func(o *authn.Options) {
		o.DefaultScheme = cfg.DefaultScheme
	})
	return schemesResult{Builder: builder, Issuer: issuer}, nil
}

func newAuthorizationOptions(cfg *Config) (*authz.Options, error) {
	opts := authz.NewOptions()
	def, err := authz.NewPolicyBuilder(cfg.DefaultScheme).RequireAuthenticatedUser().Build()
	if err != nil {
		return nil, err
	}
	opts.DefaultPolicy = def

	for name, pc := range cfg.Policies {
		err := opts.AddPolicy(name, func(b *authz.PolicyBuilder) {
			b.AddAuthenticationSchemes(pc.Schemes...)
			b.RequireAuthenticatedUser()
			if len(pc.Roles) > 0 {
				b.RequireRole(pc.Roles...)
			}
			for claimType, allowed := range pc.Claims {
				b.RequireClaim(claimType, allowed...)
			}
		})
		if err != nil {
			return nil, err
		}
	}
	return opts, nil
}

type evaluatorParams struct {
	fx.In

	Schemes     *authn.SchemeTable
	AuthOptions *authn.Options
	Options     *authz.Options
	Logger      *slog.Logger
}

func newEvaluator(p evaluatorParams) (*authn.Service, *authz.Evaluator) {
	authnService := authn.NewService(p.Schemes, p.AuthOptions)
	handlers := authz.NewMergedHandlerProvider(authz.DefaultHandlerProvider{})
	authzService := authz.NewService(handlers, p.Options, p.Logger)
	return authnService, authz.NewEvaluator(authnService, authzService, authz.NewPolicyProvider(p.Options))
}

func newBindingProvider(cfg *Config, logger *slog.Logger) (*binding.Provider, error) {
	opts, err := cfg.Binding.options()
	if err != nil {
		return nil, err
	}
	v, err := binding.NewValidator()
	if err != nil {
		return nil, err
	}
	opts.Validator = v
	opts.Logger = logger
	return binding.NewProvider(opts)
}

func newAccounts(cfg *Config, store *accounts.Store, issuer accounts.TokenIssuer) *accounts.Accounts {
	return accounts.New(store, issuer, cfg.TokenTTL)
}

type wiring struct {
	fx.In

	Host      *host.Host
	Builder   *authn.Builder
	Resolver  *endpoint.Resolver
	Authn     *authn.Service
	Evaluator *authz.Evaluator
	Logger    *slog.Logger
	// Latch replaces the process latch, for tests that build several hosts
	Latch *authn.Latch `optional:"true"`
}

// wire adds the application schemes to the host and puts the bridge in
// front of every function: authentication, then authorization.
func wire(w wiring) error {
	opts := []authn.ExtensionOption{authn.WithLogger(w.Logger)}
	if w.Latch != nil {
		opts = append(opts, authn.WithLatch(w.Latch))
	}
	authn.NewExtension(w.Builder, opts...).Initialize(w.Host)

	return bridge.Register(w.Host, w.Resolver, func(b *bridge.Builder) {
		b.Use(authn.Middleware(w.Authn)).Use(authz.Middleware(w.Evaluator))
	})
}
