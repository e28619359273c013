package adapters

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/toyz/fnbridge/pkg/web"
)

func TestEchoAdapter_BasicFunctionality(t *testing.T) {
	e := echo.New()
	adapter := NewEchoAdapter(e)

	if adapter.Name() != "Echo" {
		t.Errorf("Expected adapter name 'Echo', got '%s'", adapter.Name())
	}

	handler := func(ctx web.RequestContext) error {
		return ctx.Response().JSON(200, map[string]string{"message": "hello"})
	}

	adapter.RegisterRoute("GET", "/test", handler)

	req := httptest.NewRequest("GET", "/test", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	expectedBody := `{"message":"hello"}`
	body := strings.TrimSpace(rec.Body.String())
	if body != expectedBody {
		t.Errorf("Expected body '%s', got '%s'", expectedBody, body)
	}
}

func TestEchoAdapter_ParameterAndQuery(t *testing.T) {
	e := echo.New()
	adapter := NewEchoAdapter(e)

	handler := func(ctx web.RequestContext) error {
		return ctx.Response().JSON(200, map[string]string{
			"id":   ctx.Param("id"),
			"name": ctx.QueryParams().Get("name"),
		})
	}

	adapter.RegisterRoute("GET", "/users/{id:int}", handler)

	req := httptest.NewRequest("GET", "/users/123?name=john", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	expectedBody := `{"id":"123","name":"john"}`
	body := strings.TrimSpace(rec.Body.String())
	if body != expectedBody {
		t.Errorf("Expected body '%s', got '%s'", expectedBody, body)
	}
}

func TestEchoAdapter_BodyIsSingleRead(t *testing.T) {
	e := echo.New()
	adapter := NewEchoAdapter(e)

	handler := func(ctx web.RequestContext) error {
		first, err := ctx.Request().Body()
		if err != nil {
			return err
		}
		second, _ := ctx.Request().Body()
		return ctx.Response().JSON(200, map[string]int{"first": len(first), "second": len(second)})
	}

	adapter.RegisterRoute("POST", "/body", handler)

	req := httptest.NewRequest("POST", "/body", strings.NewReader(`{"a":1}`))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	expectedBody := `{"first":7,"second":0}`
	body := strings.TrimSpace(rec.Body.String())
	if body != expectedBody {
		t.Errorf("Expected body '%s', got '%s'", expectedBody, body)
	}
}

func TestEchoAdapter_ContextStorage(t *testing.T) {
	e := echo.New()
	adapter := NewEchoAdapter(e)

	middleware := func(next web.HandlerFunc) web.HandlerFunc {
		return func(ctx web.RequestContext) error {
			ctx.Set("user", "test-user")
			return next(ctx)
		}
	}

	handler := func(ctx web.RequestContext) error {
		user := ctx.Get("user").(string)
		return ctx.Response().JSON(200, map[string]string{"user": user})
	}

	adapter.RegisterRoute("GET", "/context-test", handler, middleware)

	req := httptest.NewRequest("GET", "/context-test", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	expectedBody := `{"user":"test-user"}`
	body := strings.TrimSpace(rec.Body.String())
	if body != expectedBody {
		t.Errorf("Expected body '%s', got '%s'", expectedBody, body)
	}
}

func TestEchoAdapter_MiddlewareErrorHandling(t *testing.T) {
	e := echo.New()
	adapter := NewEchoAdapter(e)

	authMiddleware := func(next web.HandlerFunc) web.HandlerFunc {
		return func(ctx web.RequestContext) error {
			return web.ErrUnauthorized("unauthorized")
		}
	}

	handler := func(ctx web.RequestContext) error {
		t.Error("handler should not be reached")
		return nil
	}

	adapter.RegisterRoute("POST", "/protected", handler, authMiddleware)

	req := httptest.NewRequest("POST", "/protected", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != 401 {
		t.Errorf("Expected status 401 from middleware, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unauthorized") {
		t.Errorf("Expected 'unauthorized' message in response body, got '%s'", rec.Body.String())
	}
}

func TestEchoAdapter_PlainErrorDoesNotLeak(t *testing.T) {
	e := echo.New()
	adapter := NewEchoAdapter(e)

	adapter.RegisterRoute("GET", "/boom", func(ctx web.RequestContext) error {
		return errTest("database password is hunter2")
	})

	req := httptest.NewRequest("GET", "/boom", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != 500 {
		t.Errorf("Expected status 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "hunter2") {
		t.Errorf("internal error leaked into response: %s", rec.Body.String())
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
