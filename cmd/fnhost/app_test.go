package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"github.com/toyz/fnbridge/pkg/authn"
	"github.com/toyz/fnbridge/pkg/host"
	"github.com/toyz/fnbridge/pkg/web/adapters"
)

type client struct {
	t      *testing.T
	server *adapters.EchoAdapter
}

func newClient(t *testing.T) *client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.LogLevel = "error"

	var h *host.Host
	app := fx.New(
		appOptions(cfg, &host.Config{Adapter: "echo", Port: "0", ShutdownTimeout: time.Second}),
		fx.Supply(&authn.Latch{}),
		fx.Populate(&h),
	)
	require.NoError(t, app.Err())
	require.NoError(t, h.Mount())
	return &client{t: t, server: h.Server().(*adapters.EchoAdapter)}
}

func (c *client) do(method, target, contentType, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c.server.GetEngine().ServeHTTP(rec, req)
	return rec
}

func (c *client) register(email, name string) {
	body := `{"email":"` + email + `","name":"` + name + `"}`
	rec := c.do(http.MethodPost, "/accounts", "application/json", body, "")
	require.Equal(c.t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (c *client) token(email string) string {
	rec := c.do(http.MethodPost, "/token", "application/json", `{"email":"`+email+`"}`, "")
	require.Equal(c.t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(c.t, "Bearer", out.TokenType)
	return out.AccessToken
}

func TestRegisterValidatesBody(t *testing.T) {
	c := newClient(t)

	rec := c.do(http.MethodPost, "/accounts", "application/json", `{"email":"nope","name":"Ada"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var problem struct {
		Status int                 `json:"status"`
		Errors map[string][]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, http.StatusBadRequest, problem.Status)
	assert.Contains(t, problem.Errors, "email")

	c.register("ada@example.com", "Ada")
	rec = c.do(http.MethodPost, "/accounts", "application/json", `{"email":"ADA@example.com","name":"Ada"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAuthorizedFunctionsRequireToken(t *testing.T) {
	c := newClient(t)
	c.register("ada@example.com", "Ada")

	rec := c.do(http.MethodGet, "/accounts/1", "", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = c.do(http.MethodGet, "/accounts/1", "", "", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := c.token("ada@example.com")
	rec = c.do(http.MethodGet, "/accounts/1", "", "", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"email":"ada@example.com"`)

	rec = c.do(http.MethodGet, "/me", "", "", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"name":"Ada"`)

	rec = c.do(http.MethodGet, "/accounts/42", "", "", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchBindsQuery(t *testing.T) {
	c := newClient(t)
	c.register("ada@example.com", "Ada")
	c.register("grace@example.com", "Grace")
	token := c.token("ada@example.com")

	rec := c.do(http.MethodGet, "/accounts?q=grace", "", "", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var found []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &found))
	require.Len(t, found, 1)
	assert.Equal(t, "Grace", found[0]["name"])

	rec = c.do(http.MethodGet, "/accounts?page=0", "", "", token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodGet, "/accounts?page=2", "", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestUpdateProfileRequiresRole(t *testing.T) {
	c := newClient(t)
	c.register("ada@example.com", "Ada")
	c.register("grace@example.com", "Grace")

	form := url.Values{"bio": {"first programmer"}}.Encode()
	const formType = "application/x-www-form-urlencoded"

	rec := c.do(http.MethodPost, "/accounts/2/profile", formType, form, c.token("grace@example.com"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := c.token("ada@example.com")
	rec = c.do(http.MethodPost, "/accounts/2/profile", formType, form, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"bio":"first programmer"`)

	long := url.Values{"bio": {strings.Repeat("x", 300)}}.Encode()
	rec = c.do(http.MethodPost, "/accounts/2/profile", formType, long, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
