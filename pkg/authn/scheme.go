// Package authn authenticates requests through named schemes.
package authn

import (
	"errors"

	"github.com/toyz/fnbridge/pkg/claims"
	"github.com/toyz/fnbridge/pkg/web"
)

// Handler authenticates requests for one scheme and produces its challenge
// and forbid responses.
type Handler interface {
	Authenticate(ctx web.RequestContext) Result
	Challenge(ctx web.RequestContext) error
	Forbid(ctx web.RequestContext) error
}

// Scheme binds a name to a handler
type Scheme struct {
	Name        string
	DisplayName string
	Handler     Handler
}

// Result is the outcome of an authentication attempt
type Result struct {
	Principal *claims.Principal
	Scheme    string
	Failure   error
	// None is set when the scheme found nothing to authenticate
	None bool
}

// Succeeded reports whether a principal was produced
func (r Result) Succeeded() bool {
	return r.Failure == nil && !r.None && r.Principal != nil
}

// Success creates a successful result
func Success(scheme string, p *claims.Principal) Result {
	return Result{Principal: p, Scheme: scheme}
}

// Fail creates a failed result
func Fail(scheme string, err error) Result {
	return Result{Scheme: scheme, Failure: err}
}

// NoResult creates a result for requests the scheme does not apply to
func NoResult(scheme string) Result {
	return Result{Scheme: scheme, None: true}
}

var (
	// ErrDuplicateScheme is returned when a scheme name is already registered
	ErrDuplicateScheme = errors.New("authentication scheme already registered")
	// ErrUnknownScheme is returned when no scheme is registered under a name
	ErrUnknownScheme = errors.New("authentication scheme not registered")
	// ErrNoDefaultScheme is returned when an operation needs a default scheme and none is set
	ErrNoDefaultScheme = errors.New("no default authentication scheme configured")
)
