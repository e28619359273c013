package host

import (
	"github.com/google/uuid"
	"github.com/toyz/fnbridge/pkg/web"
)

const invocationKey = "fnbridge.invocation"

// Invocation is the per-request state shared by the host, its middlewares
// and the binders. It lives exactly as long as one request.
type Invocation struct {
	ID           uuid.UUID
	FunctionName string

	// RouteData holds route values, typed by the route template, keyed by parameter name
	RouteData map[string]any

	// Endpoint is set once authorization metadata has been resolved
	Endpoint *Endpoint

	// Authorized is set when authorization succeeded for this request
	Authorized bool

	// Culture is the BCP 47 tag negotiated for localized messages
	Culture string

	continuation web.HandlerFunc
	boundBody    any
	hasBody      bool
	rawBody      []byte
	bodyErr      error
	bodyRead     bool
}

// NewInvocation creates the state for one call of functionName
func NewInvocation(functionName string) *Invocation {
	return &Invocation{
		ID:           uuid.New(),
		FunctionName: functionName,
		RouteData:    make(map[string]any),
	}
}

// Attach stores inv on the request
func Attach(ctx web.RequestContext, inv *Invocation) {
	ctx.Set(invocationKey, inv)
}

// FromRequest returns the invocation attached to the request, or nil
func FromRequest(ctx web.RequestContext) *Invocation {
	inv, _ := ctx.Get(invocationKey).(*Invocation)
	return inv
}

// StoreContinuation keeps the host's continuation until a pipeline consumes it
func (i *Invocation) StoreContinuation(next web.HandlerFunc) {
	i.continuation = next
}

// TakeContinuation returns the stored continuation and clears it, so it can
// be taken at most once.
func (i *Invocation) TakeContinuation() (web.HandlerFunc, bool) {
	next := i.continuation
	i.continuation = nil
	return next, next != nil
}

// SetBoundBody records the value bound from the request body. The body
// stream cannot be read twice, so later readers use this value.
func (i *Invocation) SetBoundBody(v any) {
	i.boundBody = v
	i.hasBody = true
}

// BoundBody returns the value recorded by SetBoundBody
func (i *Invocation) BoundBody() (any, bool) {
	return i.boundBody, i.hasBody
}

// RequestBody reads the request body once and returns the same bytes to
// every later caller in this invocation
func (i *Invocation) RequestBody(ctx web.RequestContext) ([]byte, error) {
	if !i.bodyRead {
		i.rawBody, i.bodyErr = ctx.Request().Body()
		i.bodyRead = true
	}
	return i.rawBody, i.bodyErr
}
