package authz

import (
	"context"
	"fmt"
	"strings"
)

// Requirement is one condition of a policy. Pointer requirements are matched
// by identity, value requirements by content.
type Requirement interface {
	fmt.Stringer
}

// RequirementHandler is a requirement that evaluates itself
type RequirementHandler interface {
	Requirement
	HandleRequirement(ctx context.Context, hc *HandlerContext) error
}

// DenyAnonymous requires an authenticated user
type DenyAnonymous struct{}

func (r *DenyAnonymous) String() string { return "DenyAnonymousAuthorizationRequirement" }

func (r *DenyAnonymous) HandleRequirement(_ context.Context, hc *HandlerContext) error {
	if hc.User.IsAuthenticated() {
		hc.Succeed(r)
	}
	return nil
}

// RolesRequirement requires the user to be in at least one of Roles
type RolesRequirement struct {
	Roles []string
}

func (r *RolesRequirement) String() string {
	return fmt.Sprintf("RolesAuthorizationRequirement: User.IsInRole must be true for one of the following roles: (%s)", strings.Join(r.Roles, "|"))
}

func (r *RolesRequirement) HandleRequirement(_ context.Context, hc *HandlerContext) error {
	for _, role := range r.Roles {
		if hc.User.IsInRole(role) {
			hc.Succeed(r)
			return nil
		}
	}
	return nil
}

// ClaimsRequirement requires a claim of ClaimType, with one of AllowedValues
// when any are given
type ClaimsRequirement struct {
	ClaimType     string
	AllowedValues []string
}

func (r *ClaimsRequirement) String() string {
	if len(r.AllowedValues) == 0 {
		return fmt.Sprintf("ClaimsAuthorizationRequirement: Claim.Type=%s", r.ClaimType)
	}
	return fmt.Sprintf("ClaimsAuthorizationRequirement: Claim.Type=%s and Claim.Value is one of the following values: (%s)", r.ClaimType, strings.Join(r.AllowedValues, "|"))
}

func (r *ClaimsRequirement) HandleRequirement(_ context.Context, hc *HandlerContext) error {
	if len(r.AllowedValues) == 0 {
		if hc.User.HasClaim(r.ClaimType, "") {
			hc.Succeed(r)
		}
		return nil
	}
	for _, v := range r.AllowedValues {
		if hc.User.HasClaim(r.ClaimType, v) {
			hc.Succeed(r)
			return nil
		}
	}
	return nil
}

// AssertionRequirement succeeds when Assert returns true
type AssertionRequirement struct {
	Name   string
	Assert func(ctx context.Context, hc *HandlerContext) (bool, error)
}

func (r *AssertionRequirement) String() string {
	if r.Name != "" {
		return "AssertionRequirement: " + r.Name
	}
	return "AssertionRequirement"
}

func (r *AssertionRequirement) HandleRequirement(ctx context.Context, hc *HandlerContext) error {
	ok, err := r.Assert(ctx, hc)
	if err != nil {
		return err
	}
	if ok {
		hc.Succeed(r)
	}
	return nil
}
