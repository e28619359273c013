package authz

import (
	"strings"
	"sync"

	"github.com/toyz/fnbridge/pkg/authn"
	"github.com/toyz/fnbridge/pkg/claims"
	"github.com/toyz/fnbridge/pkg/web"
)

// Decision is the outcome of evaluating a policy for a request
type Decision int

const (
	Success Decision = iota
	// Challenge means the caller is not authenticated
	Challenge
	// Forbid means the caller is authenticated but not allowed
	Forbid
)

func (d Decision) String() string {
	switch d {
	case Success:
		return "success"
	case Challenge:
		return "challenge"
	case Forbid:
		return "forbid"
	}
	return "unknown"
}

// Evaluator authenticates and authorizes requests against policies
type Evaluator struct {
	authn    *authn.Service
	authz    *Service
	policies PolicyProvider

	defaultOnce    sync.Once
	defaultSchemes []string
}

// NewEvaluator creates an evaluator
func NewEvaluator(authnService *authn.Service, authzService *Service, policies PolicyProvider) *Evaluator {
	return &Evaluator{authn: authnService, authz: authzService, policies: policies}
}

// Policies returns the evaluator's policy provider
func (e *Evaluator) Policies() PolicyProvider {
	return e.policies
}

// schemesFor returns the policy's schemes, or the default policy's schemes
// when it lists none. The default policy is read once.
func (e *Evaluator) schemesFor(policy *Policy) []string {
	if len(policy.AuthenticationSchemes) > 0 {
		return policy.AuthenticationSchemes
	}
	e.defaultOnce.Do(func() {
		if def := e.policies.DefaultPolicy(); def != nil {
			e.defaultSchemes = append([]string(nil), def.AuthenticationSchemes...)
		}
	})
	return e.defaultSchemes
}

// Authenticate produces the principal for the policy's schemes and stores it
// on the request. Without any schemes the principal already on the request
// is used.
func (e *Evaluator) Authenticate(ctx web.RequestContext, policy *Policy) authn.Result {
	schemes := e.schemesFor(policy)
	if len(schemes) == 0 {
		if p := claims.PrincipalFrom(ctx); p.IsAuthenticated() {
			return authn.Success("", p)
		}
		return authn.NoResult("")
	}

	var principal *claims.Principal
	for _, scheme := range schemes {
		if result := e.authn.Authenticate(ctx, scheme); result.Succeeded() {
			principal = claims.Merge(principal, result.Principal)
		}
	}
	name := strings.Join(schemes, ",")
	if principal == nil {
		claims.SetPrincipal(ctx, claims.Anonymous())
		return authn.NoResult(name)
	}
	claims.SetPrincipal(ctx, principal)
	return authn.Success(name, principal)
}

// Authorize decides whether the authenticated caller satisfies policy
func (e *Evaluator) Authorize(ctx web.RequestContext, policy *Policy, authResult authn.Result, resource any) (Decision, error) {
	result, err := e.authz.Authorize(ctx.Context(), claims.PrincipalFrom(ctx), resource, policy)
	if err != nil {
		return Forbid, err
	}
	if result.Succeeded {
		return Success, nil
	}
	if authResult.Succeeded() {
		return Forbid, nil
	}
	return Challenge, nil
}

// Respond writes the challenge or forbid response for a failed decision
// using the policy's first scheme, or the authentication defaults
func (e *Evaluator) Respond(ctx web.RequestContext, policy *Policy, decision Decision) error {
	scheme := ""
	if schemes := e.schemesFor(policy); len(schemes) > 0 {
		scheme = schemes[0]
	}
	switch decision {
	case Challenge:
		return e.authn.Challenge(ctx, scheme)
	case Forbid:
		return e.authn.Forbid(ctx, scheme)
	}
	return nil
}
