// Package endpoint exposes a function's authorization markers as endpoint
// metadata, so generic authorization can treat an invocation like a routed
// endpoint.
package endpoint

import (
	"fmt"
	"strings"
	"sync"

	"github.com/toyz/fnbridge/pkg/authz"
	"github.com/toyz/fnbridge/pkg/host"
	"github.com/toyz/fnbridge/pkg/web"
)

// Resolver resolves and caches endpoint metadata per function name. Entries
// are never evicted; the function set is fixed once the host has started.
type Resolver struct {
	index  host.FunctionIndex
	router host.Router
	cache  sync.Map // string -> *host.Endpoint
}

// NewResolver creates a resolver over a function index
func NewResolver(index host.FunctionIndex, router host.Router) *Resolver {
	if router == nil {
		router = host.InvocationRouter{}
	}
	return &Resolver{index: index, router: router}
}

// Resolve returns the endpoint for a function: its class-level then
// method-level filters, keeping only authorization markers. Every call for
// the same name returns the same *host.Endpoint.
func (r *Resolver) Resolve(functionName string) (*host.Endpoint, error) {
	key := strings.ToLower(functionName)
	if cached, ok := r.cache.Load(key); ok {
		return cached.(*host.Endpoint), nil
	}

	fn, ok := r.index.LookupByName(functionName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", host.ErrFunctionNotFound, functionName)
	}

	var markers []any
	for _, filter := range fn.Filters() {
		switch filter.(type) {
		case authz.AuthorizeData, authz.AllowAnonymousData:
			markers = append(markers, filter)
		}
	}
	ep := &host.Endpoint{DisplayName: fn.Name, Metadata: host.NewMetadata(markers...)}

	// racing resolvers build equal values; the first stored one wins
	actual, _ := r.cache.LoadOrStore(key, ep)
	return actual.(*host.Endpoint), nil
}

// Attach resolves the endpoint of the function the request is routed to and
// sets it on inv. Requests the router cannot name are left untouched.
func (r *Resolver) Attach(ctx web.RequestContext, inv *host.Invocation) error {
	if inv == nil {
		return nil
	}
	name, ok := r.router.Route(ctx)
	if !ok {
		return nil
	}
	ep, err := r.Resolve(name)
	if err != nil {
		return err
	}
	inv.Endpoint = ep
	return nil
}
