package authz

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrPolicyNotFound = errors.New("authorization policy not found")
	ErrEmptyPolicy    = errors.New("authorization policy requires at least one requirement")
)

// Policy is a set of requirements evaluated against the principal produced
// by its authentication schemes
type Policy struct {
	Requirements          []Requirement
	AuthenticationSchemes []string
}

// PolicyBuilder assembles a Policy
type PolicyBuilder struct {
	requirements []Requirement
	schemes      []string
}

// NewPolicyBuilder creates a builder authenticating with schemes
func NewPolicyBuilder(schemes ...string) *PolicyBuilder {
	return &PolicyBuilder{schemes: append([]string(nil), schemes...)}
}

// AddAuthenticationSchemes adds schemes the policy authenticates with
func (b *PolicyBuilder) AddAuthenticationSchemes(schemes ...string) *PolicyBuilder {
	for _, s := range schemes {
		if !contains(b.schemes, s) {
			b.schemes = append(b.schemes, s)
		}
	}
	return b
}

// AddRequirements appends requirements
func (b *PolicyBuilder) AddRequirements(reqs ...Requirement) *PolicyBuilder {
	b.requirements = append(b.requirements, reqs...)
	return b
}

// RequireAuthenticatedUser denies anonymous callers
func (b *PolicyBuilder) RequireAuthenticatedUser() *PolicyBuilder {
	return b.AddRequirements(&DenyAnonymous{})
}

// RequireClaim requires a claim, optionally with one of the allowed values
func (b *PolicyBuilder) RequireClaim(claimType string, allowed ...string) *PolicyBuilder {
	return b.AddRequirements(&ClaimsRequirement{ClaimType: claimType, AllowedValues: allowed})
}

// RequireRole requires one of the roles
func (b *PolicyBuilder) RequireRole(roles ...string) *PolicyBuilder {
	return b.AddRequirements(&RolesRequirement{Roles: roles})
}

// RequireAssertion requires fn to return true
func (b *PolicyBuilder) RequireAssertion(name string, fn func(ctx context.Context, hc *HandlerContext) (bool, error)) *PolicyBuilder {
	return b.AddRequirements(&AssertionRequirement{Name: name, Assert: fn})
}

// Combine adds the requirements and schemes of p
func (b *PolicyBuilder) Combine(p *Policy) *PolicyBuilder {
	if p == nil {
		return b
	}
	b.AddAuthenticationSchemes(p.AuthenticationSchemes...)
	return b.AddRequirements(p.Requirements...)
}

// Build returns the policy
func (b *PolicyBuilder) Build() (*Policy, error) {
	if len(b.requirements) == 0 {
		return nil, ErrEmptyPolicy
	}
	return &Policy{
		Requirements:          append([]Requirement(nil), b.requirements...),
		AuthenticationSchemes: append([]string(nil), b.schemes...),
	}, nil
}

// Options configures authorization
type Options struct {
	// DefaultPolicy is used by Authorize markers naming neither a policy nor roles
	DefaultPolicy *Policy

	// FallbackPolicy applies to functions without any Authorize marker; nil allows them
	FallbackPolicy *Policy

	// InvokeHandlersAfterFailure keeps running handlers after one calls Fail
	InvokeHandlersAfterFailure bool

	mu       sync.RWMutex
	policies map[string]*Policy
}

// NewOptions returns options whose default policy requires an authenticated user
func NewOptions() *Options {
	def, _ := NewPolicyBuilder().RequireAuthenticatedUser().Build()
	return &Options{
		DefaultPolicy:              def,
		InvokeHandlersAfterFailure: true,
		policies:                   make(map[string]*Policy),
	}
}

// AddPolicy builds and registers a named policy
func (o *Options) AddPolicy(name string, configure func(*PolicyBuilder)) error {
	b := NewPolicyBuilder()
	configure(b)
	p, err := b.Build()
	if err != nil {
		return fmt.Errorf("policy %s: %w", name, err)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.policies == nil {
		o.policies = make(map[string]*Policy)
	}
	o.policies[name] = p
	return nil
}

// Policy returns a registered policy
func (o *Options) Policy(name string) (*Policy, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	p, ok := o.policies[name]
	return p, ok
}

// PolicyProvider resolves policies
type PolicyProvider interface {
	DefaultPolicy() *Policy
	FallbackPolicy() *Policy
	Policy(name string) (*Policy, bool)
}

// OptionsPolicyProvider serves policies from Options
type OptionsPolicyProvider struct {
	options *Options
}

// NewPolicyProvider creates a provider over options
func NewPolicyProvider(options *Options) *OptionsPolicyProvider {
	return &OptionsPolicyProvider{options: options}
}

func (p *OptionsPolicyProvider) DefaultPolicy() *Policy  { return p.options.DefaultPolicy }
func (p *OptionsPolicyProvider) FallbackPolicy() *Policy { return p.options.FallbackPolicy }

func (p *OptionsPolicyProvider) Policy(name string) (*Policy, bool) {
	return p.options.Policy(name)
}

// CombinePolicies builds the effective policy for a set of Authorize markers.
// Every marker naming neither a policy nor roles contributes the default
// policy. It returns nil when data is empty.
func CombinePolicies(provider PolicyProvider, data []AuthorizeData) (*Policy, error) {
	if len(data) == 0 {
		return nil, nil
	}

	b := NewPolicyBuilder()
	for _, d := range data {
		useDefault := true
		if name := d.AuthorizePolicy(); name != "" {
			p, ok := provider.Policy(name)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrPolicyNotFound, name)
			}
			b.Combine(p)
			useDefault = false
		}
		if roles := splitList(d.AuthorizeRoles()); len(roles) > 0 {
			b.RequireRole(roles...)
			useDefault = false
		}
		b.AddAuthenticationSchemes(splitList(d.AuthorizeSchemes())...)
		if useDefault {
			b.Combine(provider.DefaultPolicy())
		}
	}
	return b.Build()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
