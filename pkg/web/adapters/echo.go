package adapters

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/toyz/fnbridge/pkg/web"
)

// EchoAdapter implements web.WebServerInterface for Echo v4
type EchoAdapter struct {
	engine *echo.Echo
}

// NewEchoAdapter creates a new Echo adapter
func NewEchoAdapter(e *echo.Echo) *EchoAdapter {
	return &EchoAdapter{engine: e}
}

// NewDefaultEchoAdapter creates a new Echo adapter with default Echo instance
func NewDefaultEchoAdapter() *EchoAdapter {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return &EchoAdapter{engine: e}
}

// RegisterRoute registers a route with the Echo server
func (ea *EchoAdapter) RegisterRoute(method string, path web.RoutePath, handler web.HandlerFunc, middlewares ...web.MiddlewareFunc) {
	echoMiddlewares := make([]echo.MiddlewareFunc, len(middlewares))
	for i, mw := range middlewares {
		echoMiddlewares[i] = ea.convertMiddleware(mw)
	}

	ea.engine.Add(method, path.Format(":", "*"), ea.convertHandler(handler), echoMiddlewares...)
}

// Use adds global middleware
func (ea *EchoAdapter) Use(middleware web.MiddlewareFunc) {
	ea.engine.Use(ea.convertMiddleware(middleware))
}

// Start starts the server
func (ea *EchoAdapter) Start(addr string) error {
	return ea.engine.Start(addr)
}

// Stop stops the server
func (ea *EchoAdapter) Stop(ctx context.Context) error {
	return ea.engine.Shutdown(ctx)
}

// Name returns the adapter name
func (ea *EchoAdapter) Name() string {
	return "Echo"
}

// GetEngine returns the underlying Echo instance
func (ea *EchoAdapter) GetEngine() *echo.Echo {
	return ea.engine
}

// convertHandler converts web.HandlerFunc to echo.HandlerFunc
func (ea *EchoAdapter) convertHandler(handler web.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := &EchoRequestContext{context: c}
		if err := handler(ctx); err != nil {
			return web.WriteError(ctx, err)
		}
		return nil
	}
}

// convertMiddleware converts web.MiddlewareFunc to echo.MiddlewareFunc
func (ea *EchoAdapter) convertMiddleware(middleware web.MiddlewareFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			webNext := func(web.RequestContext) error {
				return next(c)
			}
			ctx := &EchoRequestContext{context: c}
			if err := middleware(webNext)(ctx); err != nil {
				return web.WriteError(ctx, err)
			}
			return nil
		}
	}
}

// EchoRequestContext implements web.RequestContext for Echo
type EchoRequestContext struct {
	context echo.Context
}

// NewEchoRequestContext wraps an existing echo.Context
func NewEchoRequestContext(c echo.Context) *EchoRequestContext {
	return &EchoRequestContext{context: c}
}

// Context returns the request's context
func (erc *EchoRequestContext) Context() context.Context {
	return erc.context.Request().Context()
}

// Method returns the HTTP method
func (erc *EchoRequestContext) Method() string {
	return erc.context.Request().Method
}

// Path returns the request path
func (erc *EchoRequestContext) Path() string {
	return erc.context.Request().URL.Path
}

// RealIP returns the real IP address
func (erc *EchoRequestContext) RealIP() string {
	return erc.context.RealIP()
}

// Param returns path parameter by name
func (erc *EchoRequestContext) Param(key string) string {
	return erc.context.Param(key)
}

// ParamNames returns path parameter names
func (erc *EchoRequestContext) ParamNames() []string {
	return erc.context.ParamNames()
}

// QueryParams returns all query parameters
func (erc *EchoRequestContext) QueryParams() url.Values {
	return erc.context.QueryParams()
}

// Request returns the request interface
func (erc *EchoRequestContext) Request() web.RequestInterface {
	return &EchoRequestInterface{request: erc.context.Request()}
}

// Response returns the response interface
func (erc *EchoRequestContext) Response() web.ResponseInterface {
	return &EchoResponseInterface{response: erc.context.Response(), context: erc.context}
}

// Get retrieves data from context
func (erc *EchoRequestContext) Get(key string) any {
	return erc.context.Get(key)
}

// Set stores data in context
func (erc *EchoRequestContext) Set(key string, val any) {
	erc.context.Set(key, val)
}

// EchoRequestInterface implements web.RequestInterface for Echo requests
type EchoRequestInterface struct {
	request *http.Request
}

// Header returns request header value
func (eri *EchoRequestInterface) Header(key string) string {
	return eri.request.Header.Get(key)
}

// SetHeader sets request header
func (eri *EchoRequestInterface) SetHeader(key, value string) {
	eri.request.Header.Set(key, value)
}

// Body reads the request stream
func (eri *EchoRequestInterface) Body() ([]byte, error) {
	if eri.request.Body == nil {
		return nil, nil
	}
	return io.ReadAll(eri.request.Body)
}

// ContentLength returns content length
func (eri *EchoRequestInterface) ContentLength() int64 {
	return eri.request.ContentLength
}

// ContentType returns content type
func (eri *EchoRequestInterface) ContentType() string {
	return eri.request.Header.Get(echo.HeaderContentType)
}

// Cookie returns the value of the named cookie
func (eri *EchoRequestInterface) Cookie(name string) (string, bool) {
	c, err := eri.request.Cookie(name)
	if err != nil {
		return "", false
	}
	return c.Value, true
}

// EchoResponseInterface implements web.ResponseInterface for Echo responses
type EchoResponseInterface struct {
	response *echo.Response
	context  echo.Context
}

// Status returns response status code
func (eri *EchoResponseInterface) Status() int {
	return eri.response.Status
}

// SetStatus sets response status code
func (eri *EchoResponseInterface) SetStatus(code int) {
	eri.response.Status = code
}

// Header returns response header value
func (eri *EchoResponseInterface) Header(key string) string {
	return eri.response.Header().Get(key)
}

// SetHeader sets response header
func (eri *EchoResponseInterface) SetHeader(key, value string) {
	eri.response.Header().Set(key, value)
}

// JSON writes JSON response
func (eri *EchoResponseInterface) JSON(code int, i any) error {
	return eri.context.JSON(code, i)
}

// String writes string response
func (eri *EchoResponseInterface) String(code int, s string) error {
	return eri.context.String(code, s)
}

// NoContent writes headers and status only
func (eri *EchoResponseInterface) NoContent(code int) error {
	return eri.context.NoContent(code)
}

// Written returns whether response has been written
func (eri *EchoResponseInterface) Written() bool {
	return eri.response.Committed
}
