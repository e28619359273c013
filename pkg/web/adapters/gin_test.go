package adapters

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/toyz/fnbridge/pkg/web"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGinAdapter_BasicFunctionality(t *testing.T) {
	adapter := NewDefaultGinAdapter()

	if adapter.Name() != "Gin" {
		t.Errorf("Expected adapter name 'Gin', got '%s'", adapter.Name())
	}

	adapter.RegisterRoute("GET", "/users/{id}", func(ctx web.RequestContext) error {
		return ctx.Response().JSON(200, map[string]string{"id": ctx.Param("id")})
	})

	req := httptest.NewRequest("GET", "/users/42", nil)
	rec := httptest.NewRecorder()
	adapter.GetEngine().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	expectedBody := `{"id":"42"}`
	if body := strings.TrimSpace(rec.Body.String()); body != expectedBody {
		t.Errorf("Expected body '%s', got '%s'", expectedBody, body)
	}
}

func TestGinAdapter_ShortCircuitingMiddleware(t *testing.T) {
	adapter := NewDefaultGinAdapter()

	deny := func(next web.HandlerFunc) web.HandlerFunc {
		return func(ctx web.RequestContext) error {
			return ctx.Response().JSON(403, map[string]string{"error": "forbidden"})
		}
	}

	handlerCalled := false
	adapter.RegisterRoute("GET", "/secret", func(ctx web.RequestContext) error {
		handlerCalled = true
		return ctx.Response().JSON(200, map[string]string{"ok": "yes"})
	}, deny)

	req := httptest.NewRequest("GET", "/secret", nil)
	rec := httptest.NewRecorder()
	adapter.GetEngine().ServeHTTP(rec, req)

	if rec.Code != 403 {
		t.Errorf("Expected status 403, got %d", rec.Code)
	}
	if handlerCalled {
		t.Error("handler must not run after a middleware stopped the chain")
	}
}

func TestGinAdapter_HttpError(t *testing.T) {
	adapter := NewDefaultGinAdapter()

	adapter.RegisterRoute("GET", "/missing", func(ctx web.RequestContext) error {
		return web.ErrNotFound("nothing here")
	})

	req := httptest.NewRequest("GET", "/missing", nil)
	rec := httptest.NewRecorder()
	adapter.GetEngine().ServeHTTP(rec, req)

	if rec.Code != 404 {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "nothing here") {
		t.Errorf("Expected error message in body, got '%s'", rec.Body.String())
	}
}
