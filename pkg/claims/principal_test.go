package claims

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrincipal_Authentication(t *testing.T) {
	assert.False(t, Anonymous().IsAuthenticated())
	assert.False(t, (*Principal)(nil).IsAuthenticated())

	p := NewPrincipal(&Identity{}, NewIdentity("B2C", Claim{Type: TypeName, Value: "ada"}))
	assert.True(t, p.IsAuthenticated())
	assert.Equal(t, "ada", p.Name())
}

func TestPrincipal_ClaimsAndRoles(t *testing.T) {
	id := NewIdentity("B2C",
		Claim{Type: TypeEmail, Value: "ada@example.com"},
		Claim{Type: TypeRole, Value: "admin"},
	)
	p := NewPrincipal(id)

	assert.True(t, p.HasClaim("EMAIL", ""))
	assert.True(t, p.HasClaim(TypeEmail, "ada@example.com"))
	assert.False(t, p.HasClaim(TypeEmail, "bob@example.com"))
	assert.True(t, p.IsInRole("admin"))
	assert.False(t, p.IsInRole("Admin"))

	c, ok := p.FindFirst(TypeEmail)
	assert.True(t, ok)
	assert.Equal(t, "ada@example.com", c.Value)
}

func TestIdentity_CustomRoleClaimType(t *testing.T) {
	id := &Identity{
		AuthenticationType: "Bearer",
		RoleClaimType:      "roles",
		Claims:             []Claim{{Type: "roles", Value: "reader"}},
	}

	assert.True(t, NewPrincipal(id).IsInRole("reader"))
}

func TestMerge(t *testing.T) {
	a := NewPrincipal(NewIdentity("A"))
	b := NewPrincipal(NewIdentity("B"))

	merged := Merge(a, b)
	assert.Len(t, merged.Identities, 2)
	assert.Len(t, Merge(nil, b).Identities, 1)
}
