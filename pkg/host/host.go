package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/toyz/fnbridge/pkg/authn"
	"github.com/toyz/fnbridge/pkg/web"
)

// Router reports which function a request is dispatched to
type Router interface {
	Route(ctx web.RequestContext) (string, bool)
}

// InvocationRouter routes through the invocation attached by the host
type InvocationRouter struct{}

// Route returns the function name of the attached invocation
func (InvocationRouter) Route(ctx web.RequestContext) (string, bool) {
	inv := FromRequest(ctx)
	if inv == nil || inv.FunctionName == "" {
		return "", false
	}
	return inv.FunctionName, true
}

// Host dispatches requests to registered functions
type Host struct {
	config      *Config
	server      web.WebServerInterface
	index       *Index
	catalog     *Catalog
	services    *ServiceRegistry
	schemes     authn.SchemeRegistry
	authOptions *authn.Options
	logger      *slog.Logger

	mountOnce sync.Once
	mountErr  error
	pipeline  []HTTPMiddleware
	serveErr  chan error
}

// Option customizes a Host
type Option func(*Host)

// WithIndex shares a function index with other components
func WithIndex(index *Index) Option {
	return func(h *Host) { h.index = index }
}

// WithServices shares a service registry
func WithServices(services *ServiceRegistry) Option {
	return func(h *Host) { h.services = services }
}

// WithCatalog replaces the contract catalog
func WithCatalog(catalog *Catalog) Option {
	return func(h *Host) { h.catalog = catalog }
}

// WithSchemes shares the authentication scheme table and options
func WithSchemes(schemes authn.SchemeRegistry, options *authn.Options) Option {
	return func(h *Host) {
		h.schemes = schemes
		h.authOptions = options
	}
}

// WithLogger sets the host logger
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) { h.logger = logger }
}

// New creates a host serving through server
func New(config *Config, server web.WebServerInterface, opts ...Option) *Host {
	if config == nil {
		config = LoadConfig()
	}
	h := &Host{
		config:      config,
		server:      server,
		index:       NewIndex(),
		catalog:     NewCatalog(),
		services:    NewServiceRegistry(),
		schemes:     authn.NewSchemeTable(),
		authOptions: &authn.Options{},
		logger:      slog.Default(),
		serveErr:    make(chan error, 1),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.addBuiltinScheme(&authn.Scheme{Name: AuthLevelScheme, DisplayName: "Function key", Handler: &authLevelHandler{key: config.FunctionKey}})
	h.addBuiltinScheme(&authn.Scheme{Name: authn.ReservedBearerScheme, DisplayName: "Host bearer", Handler: hostBearerHandler{}})
	return h
}

func (h *Host) addBuiltinScheme(scheme *authn.Scheme) {
	if err := h.schemes.Add(scheme); err != nil && !errors.Is(err, authn.ErrDuplicateScheme) {
		h.logger.Error("failed to register host scheme", "scheme", scheme.Name, "error", err)
	}
}

// Register adds functions to the host's index
func (h *Host) Register(fns ...*FunctionDescriptor) error {
	for _, fn := range fns {
		if err := h.index.Add(fn); err != nil {
			return fmt.Errorf("register function: %w", err)
		}
	}
	return nil
}

// Index returns the function index
func (h *Host) Index() *Index { return h.index }

// Catalog returns the contract catalog
func (h *Host) Catalog() *Catalog { return h.catalog }

// Services returns the service registry
func (h *Host) Services() *ServiceRegistry { return h.services }

// AuthenticationSchemes returns the process-wide scheme table
func (h *Host) AuthenticationSchemes() authn.SchemeRegistry { return h.schemes }

// AuthenticationOptions returns the host's authentication options
func (h *Host) AuthenticationOptions() *authn.Options { return h.authOptions }

// Server returns the underlying web server
func (h *Host) Server() web.WebServerInterface { return h.server }

// Mount builds the invocation plan for every function and registers the
// routes. It runs once; binding configuration errors are returned here.
func (h *Host) Mount() error {
	h.mountOnce.Do(func() {
		h.pipeline = h.services.HTTPMiddlewares()
		for _, fn := range h.index.All() {
			plan, err := h.newPlan(fn)
			if err != nil {
				h.mountErr = err
				return
			}
			handler := h.handler(plan)
			methods := fn.Methods
			if len(methods) == 0 {
				methods = []string{"GET", "POST"}
			}
			for _, method := range methods {
				h.server.RegisterRoute(method, fn.Route, handler)
			}
			h.logger.Debug("mounted function", "function", fn.Name, "route", fn.Route.Raw(), "methods", methods)
		}
	})
	return h.mountErr
}

// Start mounts the functions and starts serving in the background
func (h *Host) Start(ctx context.Context) error {
	if err := h.Mount(); err != nil {
		return err
	}
	addr := h.config.Addr()
	go func() {
		h.logger.Info("starting function host", "addr", addr, "server", h.server.Name())
		if err := h.server.Start(addr); err != nil {
			h.serveErr <- err
		}
	}()
	return nil
}

// Stop shuts the server down gracefully
func (h *Host) Stop(ctx context.Context) error {
	h.logger.Info("stopping function host")
	return h.server.Stop(ctx)
}

// Run starts the host and blocks until ctx is cancelled or the server fails
func (h *Host) Run(ctx context.Context) error {
	if err := h.Start(ctx); err != nil {
		return err
	}

	select {
	case err := <-h.serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), h.config.ShutdownTimeout)
	defer cancel()
	if err := h.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
