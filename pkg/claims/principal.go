// Package claims models the authenticated caller of a request.
package claims

import (
	"strings"

	"github.com/toyz/fnbridge/pkg/web"
)

// Well-known claim types
const (
	TypeName    = "name"
	TypeRole    = "role"
	TypeEmail   = "email"
	TypeSubject = "sub"
	TypeScope   = "scope"
)

const principalKey = "fnbridge.principal"

// Claim is a single statement about a subject
type Claim struct {
	Type   string `json:"type"`
	Value  string `json:"value"`
	Issuer string `json:"issuer,omitempty"`
}

// Identity is a set of claims issued by one authentication scheme
type Identity struct {
	// AuthenticationType is empty for anonymous identities
	AuthenticationType string
	NameClaimType      string
	RoleClaimType      string
	Claims             []Claim
}

// NewIdentity creates an authenticated identity using the default name and role claim types
func NewIdentity(authenticationType string, claims ...Claim) *Identity {
	return &Identity{
		AuthenticationType: authenticationType,
		NameClaimType:      TypeName,
		RoleClaimType:      TypeRole,
		Claims:             claims,
	}
}

// IsAuthenticated reports whether the identity was produced by an authentication scheme
func (i *Identity) IsAuthenticated() bool {
	return i != nil && i.AuthenticationType != ""
}

// FindFirst returns the first claim of the given type
func (i *Identity) FindFirst(claimType string) (Claim, bool) {
	if i == nil {
		return Claim{}, false
	}
	for _, c := range i.Claims {
		if strings.EqualFold(c.Type, claimType) {
			return c, true
		}
	}
	return Claim{}, false
}

// Name returns the value of the name claim
func (i *Identity) Name() string {
	c, _ := i.FindFirst(i.nameClaimType())
	return c.Value
}

func (i *Identity) nameClaimType() string {
	if i != nil && i.NameClaimType != "" {
		return i.NameClaimType
	}
	return TypeName
}

func (i *Identity) roleClaimType() string {
	if i != nil && i.RoleClaimType != "" {
		return i.RoleClaimType
	}
	return TypeRole
}

// Principal is the caller of a request, possibly carrying several identities
type Principal struct {
	Identities []*Identity
}

// NewPrincipal creates a principal from the given identities
func NewPrincipal(identities ...*Identity) *Principal {
	return &Principal{Identities: identities}
}

// Anonymous returns a principal with a single unauthenticated identity
func Anonymous() *Principal {
	return NewPrincipal(&Identity{})
}

// Identity returns the primary identity
func (p *Principal) Identity() *Identity {
	if p == nil || len(p.Identities) == 0 {
		return nil
	}
	for _, id := range p.Identities {
		if id.IsAuthenticated() {
			return id
		}
	}
	return p.Identities[0]
}

// IsAuthenticated reports whether any identity is authenticated
func (p *Principal) IsAuthenticated() bool {
	if p == nil {
		return false
	}
	for _, id := range p.Identities {
		if id.IsAuthenticated() {
			return true
		}
	}
	return false
}

// Name returns the name of the primary identity
func (p *Principal) Name() string {
	return p.Identity().Name()
}

// FindFirst returns the first claim of the given type across identities
func (p *Principal) FindFirst(claimType string) (Claim, bool) {
	if p == nil {
		return Claim{}, false
	}
	for _, id := range p.Identities {
		if c, ok := id.FindFirst(claimType); ok {
			return c, true
		}
	}
	return Claim{}, false
}

// HasClaim reports whether any identity carries the claim. An empty value
// matches any value of that type.
func (p *Principal) HasClaim(claimType, value string) bool {
	if p == nil {
		return false
	}
	for _, id := range p.Identities {
		for _, c := range id.Claims {
			if strings.EqualFold(c.Type, claimType) && (value == "" || c.Value == value) {
				return true
			}
		}
	}
	return false
}

// IsInRole reports whether any identity has the role
func (p *Principal) IsInRole(role string) bool {
	if p == nil {
		return false
	}
	for _, id := range p.Identities {
		for _, c := range id.Claims {
			if strings.EqualFold(c.Type, id.roleClaimType()) && c.Value == role {
				return true
			}
		}
	}
	return false
}

// Merge returns a principal holding the identities of both principals
func Merge(a, b *Principal) *Principal {
	merged := &Principal{}
	if a != nil {
		merged.Identities = append(merged.Identities, a.Identities...)
	}
	if b != nil {
		merged.Identities = append(merged.Identities, b.Identities...)
	}
	return merged
}

// SetPrincipal stores the request's principal
func SetPrincipal(ctx web.RequestContext, p *Principal) {
	ctx.Set(principalKey, p)
}

// PrincipalFrom returns the request's principal, or an anonymous one
func PrincipalFrom(ctx web.RequestContext) *Principal {
	if p, ok := ctx.Get(principalKey).(*Principal); ok && p != nil {
		return p
	}
	return Anonymous()
}
