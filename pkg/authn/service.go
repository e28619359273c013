package authn

import (
	"fmt"

	"github.com/toyz/fnbridge/pkg/claims"
	"github.com/toyz/fnbridge/pkg/web"
)

// Service dispatches authentication operations to scheme handlers
type Service struct {
	registry SchemeRegistry
	options  *Options
}

// NewService creates a service over a scheme registry. The options pointer is
// read on every call so later configuration is observed.
func NewService(registry SchemeRegistry, options *Options) *Service {
	if options == nil {
		options = &Options{}
	}
	return &Service{registry: registry, options: options}
}

// Options returns the live options
func (s *Service) Options() *Options {
	return s.options
}

// Authenticate runs the named scheme, or the default authenticate scheme when name is empty
func (s *Service) Authenticate(ctx web.RequestContext, name string) Result {
	if name == "" {
		name = s.options.authenticateScheme()
	}
	if name == "" {
		return Fail("", ErrNoDefaultScheme)
	}
	scheme, ok := s.registry.Lookup(name)
	if !ok {
		return Fail(name, fmt.Errorf("%w: %s", ErrUnknownScheme, name))
	}
	return scheme.Handler.Authenticate(ctx)
}

// Challenge asks the caller to authenticate
func (s *Service) Challenge(ctx web.RequestContext, name string) error {
	if name == "" {
		name = s.options.challengeScheme()
	}
	if name == "" {
		return ctx.Response().JSON(401, web.ErrUnauthorized("authentication required"))
	}
	scheme, err := s.lookup(name)
	if err != nil {
		return err
	}
	return scheme.Handler.Challenge(ctx)
}

// Forbid tells an authenticated caller they lack access
func (s *Service) Forbid(ctx web.RequestContext, name string) error {
	if name == "" {
		name = s.options.forbidScheme()
	}
	if name == "" {
		return ctx.Response().JSON(403, web.ErrForbidden("access denied"))
	}
	scheme, err := s.lookup(name)
	if err != nil {
		return err
	}
	return scheme.Handler.Forbid(ctx)
}

func (s *Service) lookup(name string) (*Scheme, error) {
	scheme, ok := s.registry.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScheme, name)
	}
	return scheme, nil
}

// Middleware authenticates every request with the default authenticate
// scheme and stores the resulting principal. Failures leave the caller
// anonymous; authorization decides whether that is acceptable.
func Middleware(service *Service) web.MiddlewareFunc {
	return func(next web.HandlerFunc) web.HandlerFunc {
		return func(ctx web.RequestContext) error {
			if service.options.authenticateScheme() != "" {
				if result := service.Authenticate(ctx, ""); result.Succeeded() {
					claims.SetPrincipal(ctx, result.Principal)
				}
			}
			return next(ctx)
		}
	}
}
