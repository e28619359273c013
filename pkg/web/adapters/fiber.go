package adapters

import (
	"context"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/toyz/fnbridge/pkg/web"
)

const fiberWrittenKey = "fnbridge.fiber.written"

// FiberAdapter wraps a Fiber app to implement web.WebServerInterface
type FiberAdapter struct {
	app *fiber.App
}

// NewFiberAdapter creates a new Fiber adapter instance
func NewFiberAdapter() *FiberAdapter {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(web.NewHttpError(code, err.Error()))
		},
	})

	return &FiberAdapter{app: app}
}

// NewDefaultFiberAdapter creates a new Fiber adapter with default middleware
func NewDefaultFiberAdapter() *FiberAdapter {
	adapter := NewFiberAdapter()

	adapter.app.Use(logger.New())
	adapter.app.Use(recover.New())

	return adapter
}

// RegisterRoute registers a route with the Fiber app
func (fa *FiberAdapter) RegisterRoute(method string, path web.RoutePath, handler web.HandlerFunc, middlewares ...web.MiddlewareFunc) {
	handlers := make([]fiber.Handler, 0, len(middlewares)+1)
	for _, middleware := range middlewares {
		handlers = append(handlers, convertMiddlewareToFiber(middleware))
	}
	handlers = append(handlers, convertHandlerToFiber(handler))

	fa.app.Add(method, path.Format(":", "*"), handlers...)
}

// Use adds global middleware
func (fa *FiberAdapter) Use(middleware web.MiddlewareFunc) {
	fa.app.Use(convertMiddlewareToFiber(middleware))
}

// Start starts the Fiber server
func (fa *FiberAdapter) Start(addr string) error {
	return fa.app.Listen(addr)
}

// Stop gracefully shuts down the Fiber server
func (fa *FiberAdapter) Stop(ctx context.Context) error {
	return fa.app.ShutdownWithContext(ctx)
}

// Name returns the adapter name
func (fa *FiberAdapter) Name() string {
	return "Fiber"
}

// GetApp returns the underlying Fiber app
func (fa *FiberAdapter) GetApp() *fiber.App {
	return fa.app
}

func convertHandlerToFiber(handler web.HandlerFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := &FiberRequestContext{ctx: c}
		if err := handler(ctx); err != nil {
			return web.WriteError(ctx, err)
		}
		return nil
	}
}

func convertMiddlewareToFiber(middleware web.MiddlewareFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := &FiberRequestContext{ctx: c}
		err := middleware(func(web.RequestContext) error {
			return c.Next()
		})(ctx)
		if err != nil {
			return web.WriteError(ctx, err)
		}
		return nil
	}
}

// FiberRequestContext wraps fiber.Ctx to implement web.RequestContext
type FiberRequestContext struct {
	ctx *fiber.Ctx
}

func (frc *FiberRequestContext) Context() context.Context {
	return frc.ctx.UserContext()
}

func (frc *FiberRequestContext) Method() string {
	return frc.ctx.Method()
}

func (frc *FiberRequestContext) Path() string {
	return frc.ctx.Path()
}

func (frc *FiberRequestContext) RealIP() string {
	return frc.ctx.IP()
}

func (frc *FiberRequestContext) Param(name string) string {
	return frc.ctx.Params(name)
}

func (frc *FiberRequestContext) ParamNames() []string {
	return frc.ctx.Route().Params
}

func (frc *FiberRequestContext) QueryParams() url.Values {
	params := make(url.Values)
	frc.ctx.Request().URI().QueryArgs().VisitAll(func(key, value []byte) {
		params.Add(string(key), string(value))
	})
	return params
}

func (frc *FiberRequestContext) Request() web.RequestInterface {
	return &FiberRequest{ctx: frc.ctx}
}

func (frc *FiberRequestContext) Response() web.ResponseInterface {
	return &FiberResponse{ctx: frc.ctx}
}

func (frc *FiberRequestContext) Get(key string) any {
	return frc.ctx.Locals(key)
}

func (frc *FiberRequestContext) Set(key string, val any) {
	frc.ctx.Locals(key, val)
}

// FiberRequest wraps fiber.Ctx to implement web.RequestInterface
type FiberRequest struct {
	ctx *fiber.Ctx
}

func (fr *FiberRequest) Header(key string) string {
	return fr.ctx.Get(key)
}

func (fr *FiberRequest) SetHeader(key, value string) {
	fr.ctx.Request().Header.Set(key, value)
}

// Body returns a copy of the buffered body. Fiber buffers the whole request,
// so repeated reads return the same bytes.
func (fr *FiberRequest) Body() ([]byte, error) {
	return append([]byte(nil), fr.ctx.Body()...), nil
}

func (fr *FiberRequest) ContentLength() int64 {
	return int64(fr.ctx.Request().Header.ContentLength())
}

func (fr *FiberRequest) ContentType() string {
	return string(fr.ctx.Request().Header.ContentType())
}

func (fr *FiberRequest) Cookie(name string) (string, bool) {
	value := fr.ctx.Cookies(name)
	return value, value != ""
}

// FiberResponse wraps fiber.Ctx to implement web.ResponseInterface
type FiberResponse struct {
	ctx *fiber.Ctx
}

func (fr *FiberResponse) Status() int {
	return fr.ctx.Response().StatusCode()
}

func (fr *FiberResponse) SetStatus(code int) {
	fr.ctx.Status(code)
}

func (fr *FiberResponse) Header(key string) string {
	return string(fr.ctx.Response().Header.Peek(key))
}

func (fr *FiberResponse) SetHeader(name, value string) {
	fr.ctx.Set(name, value)
}

func (fr *FiberResponse) JSON(code int, data any) error {
	fr.markWritten()
	return fr.ctx.Status(code).JSON(data)
}

func (fr *FiberResponse) String(code int, s string) error {
	fr.markWritten()
	return fr.ctx.Status(code).SendString(s)
}

func (fr *FiberResponse) NoContent(code int) error {
	fr.markWritten()
	return fr.ctx.SendStatus(code)
}

// Written reports whether a body or status was sent through this interface.
// fasthttp always reports a status code, so it cannot be used for this.
func (fr *FiberResponse) Written() bool {
	written, _ := fr.ctx.Locals(fiberWrittenKey).(bool)
	return written
}

func (fr *FiberResponse) markWritten() {
	fr.ctx.Locals(fiberWrittenKey, true)
}
