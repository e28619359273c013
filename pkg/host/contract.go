package host

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/toyz/fnbridge/pkg/web"
)

// HTTPMiddleware is the host's middleware contract. Implementations must
// call next exactly once unless they handle the request themselves.
type HTTPMiddleware interface {
	Invoke(ctx web.RequestContext, next web.HandlerFunc) error
}

// HTTPMiddlewareFunc adapts a function to HTTPMiddleware
type HTTPMiddlewareFunc func(ctx web.RequestContext, next web.HandlerFunc) error

// Invoke calls f
func (f HTTPMiddlewareFunc) Invoke(ctx web.RequestContext, next web.HandlerFunc) error {
	return f(ctx, next)
}

const (
	// ModuleName is the catalog module the host publishes its contracts under
	ModuleName = "fnbridge.webhost"
	// HTTPMiddlewareContract names the HTTPMiddleware contract
	HTTPMiddlewareContract = "HTTPMiddleware"
	// HTTPMiddlewareVersion is the current version of the HTTPMiddleware contract
	HTTPMiddlewareVersion = "v1"
)

var (
	ErrModuleNotFound   = errors.New("host module not found")
	ErrContractNotFound = errors.New("host contract not found")
)

// Catalog publishes versioned host contracts by name, so extensions can bind
// to them without a compile-time reference to a specific version.
type Catalog struct {
	mu      sync.RWMutex
	modules map[string]map[string]reflect.Type
}

// NewCatalog creates a catalog holding the host's own contracts
func NewCatalog() *Catalog {
	c := &Catalog{modules: make(map[string]map[string]reflect.Type)}
	_ = c.Register(ModuleName, HTTPMiddlewareContract, HTTPMiddlewareVersion, TypeOf[HTTPMiddleware]())
	return c
}

// Register publishes iface as name@version. The unversioned name resolves
// to the most recently registered version.
func (c *Catalog) Register(module, name, version string, iface reflect.Type) error {
	if iface == nil || iface.Kind() != reflect.Interface {
		return fmt.Errorf("contract %s: %v is not an interface type", name, iface)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	contracts, ok := c.modules[module]
	if !ok {
		contracts = make(map[string]reflect.Type)
		c.modules[module] = contracts
	}
	contracts[name] = iface
	if version != "" {
		contracts[name+"@"+version] = iface
	}
	return nil
}

// Contract resolves a contract by module and name (optionally name@version)
func (c *Catalog) Contract(module, name string) (reflect.Type, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	contracts, ok := c.modules[module]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, module)
	}
	iface, ok := contracts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrContractNotFound, name, module)
	}
	return iface, nil
}
