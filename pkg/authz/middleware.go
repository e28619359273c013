package authz

import (
	"errors"
	"log/slog"

	"github.com/toyz/fnbridge/pkg/authn"
	"github.com/toyz/fnbridge/pkg/claims"
	"github.com/toyz/fnbridge/pkg/host"
	"github.com/toyz/fnbridge/pkg/web"
)

// EndpointSource resolves the endpoint metadata of a function
type EndpointSource interface {
	Resolve(functionName string) (*host.Endpoint, error)
}

// authorize evaluates the endpoint attached to inv. On failure the challenge
// or forbid response has been written when it returns false.
func authorize(ctx web.RequestContext, evaluator *Evaluator, inv *host.Invocation) (bool, error) {
	var metadata host.Metadata
	if inv != nil && inv.Endpoint != nil {
		metadata = inv.Endpoint.Metadata
	}

	policies := evaluator.Policies()
	policy, err := CombinePolicies(policies, host.MetadataOf[AuthorizeData](metadata))
	if err != nil {
		return false, err
	}
	if policy == nil {
		policy = policies.FallbackPolicy()
	}
	if policy == nil {
		return true, nil
	}

	authResult := evaluator.Authenticate(ctx, policy)
	if host.HasMetadata[AllowAnonymousData](metadata) {
		return true, nil
	}

	decision, err := evaluator.Authorize(ctx, policy, authResult, inv)
	if err != nil {
		return false, err
	}
	if decision == Success {
		return true, nil
	}
	return false, evaluator.Respond(ctx, policy, decision)
}

// Middleware authorizes each request against the endpoint metadata attached
// to its invocation. On success it marks the invocation authorized and calls
// next; otherwise it writes the challenge or forbid response and stops.
func Middleware(evaluator *Evaluator) web.MiddlewareFunc {
	return func(next web.HandlerFunc) web.HandlerFunc {
		return func(ctx web.RequestContext) error {
			inv := host.FromRequest(ctx)
			ok, err := authorize(ctx, evaluator, inv)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if inv != nil {
				inv.Authorized = true
			}
			return next(ctx)
		}
	}
}

// Gate is an invocation filter that keeps a function from running unless its
// invocation was authorized. Invocations the pipeline has not authorized yet
// are evaluated here.
type Gate struct {
	evaluator *Evaluator
	endpoints EndpointSource
	logger    *slog.Logger
}

// NewGate creates a gate
func NewGate(evaluator *Evaluator, endpoints EndpointSource, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{evaluator: evaluator, endpoints: endpoints, logger: logger}
}

func (g *Gate) OnExecuting(ctx web.RequestContext, inv *host.Invocation, fn *host.FunctionDescriptor) error {
	if inv.Authorized {
		return nil
	}
	if inv.Endpoint == nil {
		ep, err := g.endpoints.Resolve(fn.Name)
		if err != nil {
			return err
		}
		inv.Endpoint = ep
	}

	ok, err := authorize(ctx, g.evaluator, inv)
	if err != nil {
		return err
	}
	if ok {
		inv.Authorized = true
		return nil
	}

	g.logger.Debug("invocation not authorized", "function", fn.Name, "invocation_id", inv.ID.String())
	if !ctx.Response().Written() {
		if err := ctx.Response().JSON(403, web.ErrForbidden("access denied")); err != nil {
			return errors.Join(host.ErrInvocationHalted, err)
		}
	}
	return host.ErrInvocationHalted
}

// AuthenticationFilter authenticates invocations with the default scheme
// before authorization runs, for hosts that do not route through the
// authentication middleware
func AuthenticationFilter(service *authn.Service) host.InvocationFilter {
	return host.InvocationFilterFunc(func(ctx web.RequestContext, inv *host.Invocation, fn *host.FunctionDescriptor) error {
		if claims.PrincipalFrom(ctx).IsAuthenticated() {
			return nil
		}
		if result := service.Authenticate(ctx, ""); result.Succeeded() {
			claims.SetPrincipal(ctx, result.Principal)
		}
		return nil
	})
}
