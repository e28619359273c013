package authz

import (
	"context"
	"reflect"

	"github.com/toyz/fnbridge/pkg/claims"
)

// HandlerContext tracks which requirements of a policy have been met while
// handlers run for one authorization call
type HandlerContext struct {
	User         *claims.Principal
	Resource     any
	requirements []Requirement
	succeeded    []bool
	failCalled   bool
	reasons      []string
}

// NewHandlerContext creates a context with every requirement pending
func NewHandlerContext(requirements []Requirement, user *claims.Principal, resource any) *HandlerContext {
	if user == nil {
		user = claims.Anonymous()
	}
	return &HandlerContext{
		User:         user,
		Resource:     resource,
		requirements: requirements,
		succeeded:    make([]bool, len(requirements)),
	}
}

// Requirements returns all requirements of the policy
func (c *HandlerContext) Requirements() []Requirement {
	return append([]Requirement(nil), c.requirements...)
}

// PendingRequirements returns the requirements not yet succeeded
func (c *HandlerContext) PendingRequirements() []Requirement {
	var pending []Requirement
	for i, req := range c.requirements {
		if !c.succeeded[i] {
			pending = append(pending, req)
		}
	}
	return pending
}

// Succeed marks a requirement as met
func (c *HandlerContext) Succeed(req Requirement) {
	for i, r := range c.requirements {
		if sameRequirement(r, req) {
			c.succeeded[i] = true
		}
	}
}

// sameRequirement compares pointers by identity and values by content;
// interface equality would panic on values holding slices or maps.
func sameRequirement(a, b Requirement) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta == nil || tb == nil || ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

// Fail marks the whole authorization as failed; no later Succeed can undo it
func (c *HandlerContext) Fail(reason string) {
	c.failCalled = true
	if reason != "" {
		c.reasons = append(c.reasons, reason)
	}
}

// HasFailed reports whether Fail was called
func (c *HandlerContext) HasFailed() bool {
	return c.failCalled
}

// HasSucceeded reports whether every requirement succeeded and Fail was not called
func (c *HandlerContext) HasSucceeded() bool {
	if c.failCalled {
		return false
	}
	for _, ok := range c.succeeded {
		if !ok {
			return false
		}
	}
	return true
}

// Handler evaluates requirements
type Handler interface {
	Handle(ctx context.Context, hc *HandlerContext) error
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, hc *HandlerContext) error

// Handle calls f
func (f HandlerFunc) Handle(ctx context.Context, hc *HandlerContext) error {
	return f(ctx, hc)
}

// HandlerProvider supplies the handlers for one authorization call
type HandlerProvider interface {
	Handlers(hc *HandlerContext) []Handler
}

// PassThroughHandler lets requirements that are also handlers evaluate
// themselves
type PassThroughHandler struct{}

func (PassThroughHandler) Handle(ctx context.Context, hc *HandlerContext) error {
	for _, req := range hc.Requirements() {
		if h, ok := req.(RequirementHandler); ok {
			if err := h.HandleRequirement(ctx, hc); err != nil {
				return err
			}
		}
	}
	return nil
}

// DefaultHandlerProvider provides the built-in handler set
type DefaultHandlerProvider struct{}

func (DefaultHandlerProvider) Handlers(*HandlerContext) []Handler {
	return []Handler{PassThroughHandler{}}
}

// CombineHandlers returns defaults followed by app. Nothing is removed, so
// the result holds len(defaults)+len(app) handlers.
func CombineHandlers(defaults, app []Handler) []Handler {
	combined := make([]Handler, 0, len(defaults)+len(app))
	combined = append(combined, defaults...)
	return append(combined, app...)
}

// MergedHandlerProvider presents the host defaults and the application's
// handlers as one set, defaults first, so custom handlers run in the same
// evaluation pass as the built-in ones.
type MergedHandlerProvider struct {
	Defaults HandlerProvider
	App      []Handler
}

// NewMergedHandlerProvider combines defaults with application handlers
func NewMergedHandlerProvider(defaults HandlerProvider, app ...Handler) *MergedHandlerProvider {
	if defaults == nil {
		defaults = DefaultHandlerProvider{}
	}
	return &MergedHandlerProvider{Defaults: defaults, App: app}
}

func (m *MergedHandlerProvider) Handlers(hc *HandlerContext) []Handler {
	return CombineHandlers(m.Defaults.Handlers(hc), m.App)
}
