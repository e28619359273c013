// Package web is the framework-agnostic HTTP surface that functions are mounted on.
package web

import (
	"context"
	"net/url"
)

// WebServerInterface defines the contract for web server implementations
type WebServerInterface interface {
	// Route registration
	RegisterRoute(method string, path RoutePath, handler HandlerFunc, middlewares ...MiddlewareFunc)

	// Global middleware
	Use(middleware MiddlewareFunc)

	// Server lifecycle
	Start(addr string) error
	Stop(ctx context.Context) error

	// Server information
	Name() string
}

// RequestContext provides a framework-agnostic interface for handling HTTP requests
type RequestContext interface {
	// Context returns the context of the underlying request
	Context() context.Context

	// Request data
	Method() string
	Path() string
	RealIP() string

	// Route parameters
	Param(key string) string
	ParamNames() []string

	// Query parameters
	QueryParams() url.Values

	Request() RequestInterface
	Response() ResponseInterface

	// Per-request locals
	Get(key string) any
	Set(key string, val any)
}

// RequestInterface provides access to the underlying request
type RequestInterface interface {
	Header(key string) string
	SetHeader(key, value string)
	ContentLength() int64
	ContentType() string

	// Body reads the request body. On stream-backed adapters the body can be
	// read only once; later calls return an empty slice.
	Body() ([]byte, error)

	// Cookie returns the value of the named cookie
	Cookie(name string) (string, bool)
}

// ResponseInterface provides response writing capabilities
type ResponseInterface interface {
	Status() int
	SetStatus(code int)

	Header(key string) string
	SetHeader(key, value string)

	JSON(code int, i any) error
	String(code int, s string) error
	NoContent(code int) error

	// Written reports whether the response has been committed
	Written() bool
}

// HandlerFunc defines the signature for HTTP handlers
type HandlerFunc func(RequestContext) error

// MiddlewareFunc defines the signature for middleware
type MiddlewareFunc func(HandlerFunc) HandlerFunc

// Chain composes middlewares so that the first one is the outermost.
func Chain(handler HandlerFunc, middlewares ...MiddlewareFunc) HandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}
