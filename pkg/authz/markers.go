// Package authz authorizes function invocations against policies built from
// declarative markers.
package authz

import "strings"

// AuthorizeData is implemented by markers that require authorization
type AuthorizeData interface {
	AuthorizePolicy() string
	AuthorizeRoles() string
	AuthorizeSchemes() string
}

// AllowAnonymousData is implemented by markers that exempt a target from
// authorization
type AllowAnonymousData interface {
	AllowsAnonymous()
}

// Authorize requires the named policy, or the default policy when Policy and
// Roles are both empty. Roles and AuthenticationSchemes are comma-separated.
// Several Authorize markers on one target must all be satisfied.
type Authorize struct {
	Policy                string
	Roles                 string
	AuthenticationSchemes string
}

func (a Authorize) AuthorizePolicy() string  { return a.Policy }
func (a Authorize) AuthorizeRoles() string   { return a.Roles }
func (a Authorize) AuthorizeSchemes() string { return a.AuthenticationSchemes }

// AllowAnonymous exempts a target from authorization regardless of any
// Authorize markers present
type AllowAnonymous struct{}

func (AllowAnonymous) AllowsAnonymous() {}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
