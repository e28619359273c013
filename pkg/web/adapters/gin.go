package adapters

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/toyz/fnbridge/pkg/web"
)

// GinAdapter implements web.WebServerInterface for Gin framework
type GinAdapter struct {
	engine *gin.Engine
	server *http.Server
}

// NewGinAdapter creates a new Gin adapter
func NewGinAdapter(g *gin.Engine) *GinAdapter {
	return &GinAdapter{engine: g}
}

// NewDefaultGinAdapter creates a new Gin adapter with a recovery-only engine
func NewDefaultGinAdapter() *GinAdapter {
	g := gin.New()
	g.Use(gin.Recovery())
	return &GinAdapter{engine: g}
}

// RegisterRoute registers a route with the Gin server
func (ga *GinAdapter) RegisterRoute(method string, path web.RoutePath, handler web.HandlerFunc, middlewares ...web.MiddlewareFunc) {
	handlers := make([]gin.HandlerFunc, 0, len(middlewares)+1)
	for _, middleware := range middlewares {
		handlers = append(handlers, ga.convertMiddleware(middleware))
	}
	handlers = append(handlers, ga.convertHandler(handler))

	ga.engine.Handle(method, path.Format(":", "*path"), handlers...)
}

// Use registers a global middleware with the Gin server
func (ga *GinAdapter) Use(middleware web.MiddlewareFunc) {
	ga.engine.Use(ga.convertMiddleware(middleware))
}

// Start starts the Gin server
func (ga *GinAdapter) Start(addr string) error {
	ga.server = &http.Server{Addr: addr, Handler: ga.engine}
	if err := ga.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts the wrapping http.Server down
func (ga *GinAdapter) Stop(ctx context.Context) error {
	if ga.server == nil {
		return nil
	}
	return ga.server.Shutdown(ctx)
}

// Name returns the adapter name
func (ga *GinAdapter) Name() string {
	return "Gin"
}

// GetEngine returns the underlying Gin engine
func (ga *GinAdapter) GetEngine() *gin.Engine {
	return ga.engine
}

func (ga *GinAdapter) convertHandler(handler web.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := &GinRequestContext{ctx: c}
		if err := handler(ctx); err != nil {
			_ = web.WriteError(ctx, err)
		}
	}
}

func (ga *GinAdapter) convertMiddleware(middleware web.MiddlewareFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := &GinRequestContext{ctx: c}
		calledNext := false
		err := middleware(func(web.RequestContext) error {
			calledNext = true
			c.Next()
			return nil
		})(ctx)
		if err != nil {
			_ = web.WriteError(ctx, err)
			c.Abort()
			return
		}
		// a middleware that did not call next stops the chain
		if !calledNext {
			c.Abort()
		}
	}
}

// GinRequestContext implements web.RequestContext for Gin
type GinRequestContext struct {
	ctx *gin.Context
}

// Context returns the request's context
func (grc *GinRequestContext) Context() context.Context {
	return grc.ctx.Request.Context()
}

// Method returns the HTTP method
func (grc *GinRequestContext) Method() string {
	return grc.ctx.Request.Method
}

// Path returns the request path
func (grc *GinRequestContext) Path() string {
	return grc.ctx.Request.URL.Path
}

// RealIP returns the client IP
func (grc *GinRequestContext) RealIP() string {
	return grc.ctx.ClientIP()
}

// Param returns a path parameter
func (grc *GinRequestContext) Param(key string) string {
	return grc.ctx.Param(key)
}

// ParamNames returns all path parameter names
func (grc *GinRequestContext) ParamNames() []string {
	names := make([]string, len(grc.ctx.Params))
	for i, param := range grc.ctx.Params {
		names[i] = param.Key
	}
	return names
}

// QueryParams returns all query parameters
func (grc *GinRequestContext) QueryParams() url.Values {
	return grc.ctx.Request.URL.Query()
}

// Request returns the request interface
func (grc *GinRequestContext) Request() web.RequestInterface {
	return &GinRequestInterface{ctx: grc.ctx}
}

// Response returns the response interface
func (grc *GinRequestContext) Response() web.ResponseInterface {
	return &GinResponseInterface{ctx: grc.ctx}
}

// Get returns a value from context
func (grc *GinRequestContext) Get(key string) any {
	value, _ := grc.ctx.Get(key)
	return value
}

// Set sets a value in context
func (grc *GinRequestContext) Set(key string, val any) {
	grc.ctx.Set(key, val)
}

// GinRequestInterface implements web.RequestInterface for Gin
type GinRequestInterface struct {
	ctx *gin.Context
}

// Header returns a request header
func (gri *GinRequestInterface) Header(key string) string {
	return gri.ctx.GetHeader(key)
}

// SetHeader sets a request header
func (gri *GinRequestInterface) SetHeader(key, value string) {
	gri.ctx.Request.Header.Set(key, value)
}

// Body reads the request stream
func (gri *GinRequestInterface) Body() ([]byte, error) {
	if gri.ctx.Request.Body == nil {
		return nil, nil
	}
	return io.ReadAll(gri.ctx.Request.Body)
}

// ContentLength returns the content length
func (gri *GinRequestInterface) ContentLength() int64 {
	return gri.ctx.Request.ContentLength
}

// ContentType returns the full content type header
func (gri *GinRequestInterface) ContentType() string {
	return gri.ctx.GetHeader("Content-Type")
}

// Cookie returns the value of the named cookie
func (gri *GinRequestInterface) Cookie(name string) (string, bool) {
	value, err := gri.ctx.Cookie(name)
	if err != nil {
		return "", false
	}
	return value, true
}

// GinResponseInterface implements web.ResponseInterface for Gin
type GinResponseInterface struct {
	ctx *gin.Context
}

// Status returns the response status code
func (gri *GinResponseInterface) Status() int {
	return gri.ctx.Writer.Status()
}

// SetStatus sets the response status code
func (gri *GinResponseInterface) SetStatus(code int) {
	gri.ctx.Status(code)
}

// Header returns a response header
func (gri *GinResponseInterface) Header(key string) string {
	return gri.ctx.Writer.Header().Get(key)
}

// SetHeader sets a response header
func (gri *GinResponseInterface) SetHeader(key, value string) {
	gri.ctx.Header(key, value)
}

// JSON writes a JSON response
func (gri *GinResponseInterface) JSON(code int, i any) error {
	gri.ctx.JSON(code, i)
	return nil
}

// String writes a string response
func (gri *GinResponseInterface) String(code int, s string) error {
	gri.ctx.String(code, s)
	return nil
}

// NoContent writes the status only
func (gri *GinResponseInterface) NoContent(code int) error {
	gri.ctx.Status(code)
	gri.ctx.Writer.WriteHeaderNow()
	return nil
}

// Written returns whether the response has been written
func (gri *GinResponseInterface) Written() bool {
	return gri.ctx.Writer.Written()
}
