package host

import (
	"reflect"
	"sync"
)

// ServiceRegistry holds the multi-instance services the host discovers:
// HTTP middlewares, invocation filters and binding providers.
type ServiceRegistry struct {
	mu       sync.RWMutex
	services map[reflect.Type][]any
}

// NewServiceRegistry creates an empty registry
func NewServiceRegistry() *ServiceRegistry {
	return &ServiceRegistry{services: make(map[reflect.Type][]any)}
}

// TryAddEnumerable adds impl under iface unless an instance of the same
// concrete type is already registered there. It returns whether impl was added.
func (r *ServiceRegistry) TryAddEnumerable(iface reflect.Type, impl any) bool {
	if impl == nil || !reflect.TypeOf(impl).Implements(iface) {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	implType := reflect.TypeOf(impl)
	for _, existing := range r.services[iface] {
		if reflect.TypeOf(existing) == implType {
			return false
		}
	}
	r.services[iface] = append(r.services[iface], impl)
	return true
}

// Enumerate returns the instances registered under iface in registration order
func (r *ServiceRegistry) Enumerate(iface reflect.Type) []any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]any(nil), r.services[iface]...)
}

// AddHTTPMiddleware registers an HTTP middleware
func (r *ServiceRegistry) AddHTTPMiddleware(mw HTTPMiddleware) bool {
	return r.TryAddEnumerable(TypeOf[HTTPMiddleware](), mw)
}

// AddInvocationFilter registers an invocation filter
func (r *ServiceRegistry) AddInvocationFilter(f InvocationFilter) bool {
	return r.TryAddEnumerable(TypeOf[InvocationFilter](), f)
}

// AddBindingProvider registers a binding provider
func (r *ServiceRegistry) AddBindingProvider(p BindingProvider) bool {
	return r.TryAddEnumerable(TypeOf[BindingProvider](), p)
}

// HTTPMiddlewares returns the registered HTTP middlewares
func (r *ServiceRegistry) HTTPMiddlewares() []HTTPMiddleware {
	return enumerateAs[HTTPMiddleware](r)
}

// InvocationFilters returns the registered invocation filters
func (r *ServiceRegistry) InvocationFilters() []InvocationFilter {
	return enumerateAs[InvocationFilter](r)
}

// BindingProviders returns the registered binding providers
func (r *ServiceRegistry) BindingProviders() []BindingProvider {
	return enumerateAs[BindingProvider](r)
}

func enumerateAs[T any](r *ServiceRegistry) []T {
	items := r.Enumerate(TypeOf[T]())
	result := make([]T, 0, len(items))
	for _, item := range items {
		result = append(result, item.(T))
	}
	return result
}
