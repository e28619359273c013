package authn

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toyz/fnbridge/pkg/claims"
	"github.com/toyz/fnbridge/pkg/web"
	"github.com/toyz/fnbridge/pkg/web/adapters"
)

func newRequest(authorization string) (web.RequestContext, *httptest.ResponseRecorder) {
	req := httptest.NewRequest("GET", "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	return adapters.NewEchoRequestContext(echo.New().NewContext(req, rec)), rec
}

type staticHandler struct {
	result Result
}

func (h staticHandler) Authenticate(web.RequestContext) Result { return h.result }
func (h staticHandler) Challenge(ctx web.RequestContext) error {
	return ctx.Response().NoContent(401)
}
func (h staticHandler) Forbid(ctx web.RequestContext) error {
	return ctx.Response().NoContent(403)
}

type fakeHost struct {
	table   *SchemeTable
	options *Options
}

func (h *fakeHost) AuthenticationSchemes() SchemeRegistry { return h.table }
func (h *fakeHost) AuthenticationOptions() *Options      { return h.options }

func TestSchemeTable_RejectsDuplicates(t *testing.T) {
	table := NewSchemeTable()

	require.NoError(t, table.Add(&Scheme{Name: "B2C", Handler: staticHandler{}}))
	err := table.Add(&Scheme{Name: "B2C", Handler: staticHandler{}})

	assert.ErrorIs(t, err, ErrDuplicateScheme)
	assert.Equal(t, []string{"B2C"}, table.Names())
}

func TestJWTBearer_HS256RoundTrip(t *testing.T) {
	bearer, err := NewJWTBearer("B2C", JWTBearerConfig{
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("test-secret-test-secret-test-secret"),
		Issuer:        "fnbridge-test",
		Audience:      "functions",
	})
	require.NoError(t, err)

	token, err := bearer.Issue("user-1", time.Minute, map[string]any{
		"email": "ada@example.com",
		"role":  []string{"admin", "reader"},
	})
	require.NoError(t, err)

	ctx, _ := newRequest("Bearer " + token)
	result := bearer.Authenticate(ctx)

	require.True(t, result.Succeeded(), "failure: %v", result.Failure)
	assert.True(t, result.Principal.HasClaim("email", "ada@example.com"))
	assert.True(t, result.Principal.IsInRole("admin"))
	assert.True(t, result.Principal.IsInRole("reader"))
	assert.Equal(t, "B2C", result.Principal.Identity().AuthenticationType)
}

func TestJWTBearer_RejectsTamperedAndMissing(t *testing.T) {
	bearer, err := NewJWTBearer("B2C", JWTBearerConfig{
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("secret-one-secret-one-secret-one"),
	})
	require.NoError(t, err)
	other, err := NewJWTBearer("B2C", JWTBearerConfig{
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("secret-two-secret-two-secret-two"),
	})
	require.NoError(t, err)

	token, err := other.Issue("user-1", time.Minute, nil)
	require.NoError(t, err)

	ctx, _ := newRequest("Bearer " + token)
	assert.Error(t, bearer.Authenticate(ctx).Failure)

	ctx, _ = newRequest("")
	assert.True(t, bearer.Authenticate(ctx).None)

	ctx, _ = newRequest("Basic dXNlcjpwYXNz")
	assert.True(t, bearer.Authenticate(ctx).None)
}

func TestJWTBearer_Ed25519WithKeyID(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	bearer, err := NewJWTBearer("Partner", JWTBearerConfig{
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		KeyID:         "k1",
		VerifyKeys:    map[string][]byte{"k1": pub},
	})
	require.NoError(t, err)

	token, err := bearer.Issue("svc", time.Minute, nil)
	require.NoError(t, err)

	ctx, _ := newRequest("Bearer " + token)
	result := bearer.Authenticate(ctx)
	require.True(t, result.Succeeded(), "failure: %v", result.Failure)
	assert.True(t, result.Principal.HasClaim("sub", "svc"))
}

func TestNewJWTBearer_InvalidConfig(t *testing.T) {
	_, err := NewJWTBearer("x", JWTBearerConfig{SigningMethod: MethodHS256})
	assert.Error(t, err)

	_, err = NewJWTBearer("x", JWTBearerConfig{SigningMethod: MethodEd25519})
	assert.Error(t, err)

	_, err = NewJWTBearer("x", JWTBearerConfig{SigningMethod: "rs512"})
	assert.Error(t, err)
}

func TestService_DefaultSchemes(t *testing.T) {
	table := NewSchemeTable()
	p := claims.NewPrincipal(claims.NewIdentity("B2C"))
	require.NoError(t, table.Add(&Scheme{Name: "B2C", Handler: staticHandler{result: Success("B2C", p)}}))

	service := NewService(table, &Options{DefaultScheme: "B2C"})

	ctx, _ := newRequest("")
	assert.Same(t, p, service.Authenticate(ctx, "").Principal)

	ctx, rec := newRequest("")
	require.NoError(t, service.Challenge(ctx, ""))
	assert.Equal(t, 401, rec.Code)

	ctx, rec = newRequest("")
	require.NoError(t, service.Forbid(ctx, ""))
	assert.Equal(t, 403, rec.Code)

	ctx, _ = newRequest("")
	assert.ErrorIs(t, service.Authenticate(ctx, "Missing").Failure, ErrUnknownScheme)

	ctx, _ = newRequest("")
	assert.ErrorIs(t, NewService(table, nil).Authenticate(ctx, "").Failure, ErrNoDefaultScheme)
}

func TestMiddleware_SetsPrincipal(t *testing.T) {
	table := NewSchemeTable()
	p := claims.NewPrincipal(claims.NewIdentity("B2C"))
	require.NoError(t, table.Add(&Scheme{Name: "B2C", Handler: staticHandler{result: Success("B2C", p)}}))

	var seen *claims.Principal
	handler := Middleware(NewService(table, &Options{DefaultScheme: "B2C"}))(func(ctx web.RequestContext) error {
		seen = claims.PrincipalFrom(ctx)
		return nil
	})

	ctx, _ := newRequest("")
	require.NoError(t, handler(ctx))
	assert.Same(t, p, seen)
}

func TestExtension_RegistersOnce(t *testing.T) {
	host := &fakeHost{table: NewSchemeTable(), options: &Options{}}
	latch := &Latch{}

	builder := NewBuilder().
		AddScheme("B2C", "Azure AD B2C", staticHandler{}).
		Configure(func(o *Options) { o.DefaultScheme = "B2C" })

	first := NewExtension(builder, WithLatch(latch))
	second := NewExtension(NewBuilder().AddScheme("Other", "", staticHandler{}), WithLatch(latch))

	assert.True(t, first.Initialize(host))
	assert.False(t, second.Initialize(host))
	assert.False(t, first.Initialize(host))

	assert.Equal(t, []string{"B2C"}, host.table.Names())
	assert.Equal(t, "B2C", host.options.DefaultScheme)
}

func TestExtension_ConcurrentInitializeWaitsForWinner(t *testing.T) {
	host := &fakeHost{table: NewSchemeTable(), options: &Options{}}
	latch := &Latch{}
	want := []string{"B2C", "Partner", "Internal"}

	const n = 16
	var (
		wg     sync.WaitGroup
		start  = make(chan struct{})
		ran    = make([]bool, n)
		tables = make([][]string, n)
	)
	for i := 0; i < n; i++ {
		builder := NewBuilder()
		for _, name := range want {
			builder.AddScheme(name, "", staticHandler{})
		}
		ext := NewExtension(builder, WithLatch(latch))
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			ran[i] = ext.Initialize(host)
			tables[i] = host.table.Names()
		}(i)
	}
	assert.False(t, latch.Done())
	close(start)
	wg.Wait()

	winners := 0
	for i := 0; i < n; i++ {
		if ran[i] {
			winners++
		}
		assert.Equal(t, want, tables[i])
	}
	assert.Equal(t, 1, winners)
	assert.True(t, latch.Done())
	assert.True(t, NewExtension(NewBuilder(), WithLatch(latch)).Initialized())
}

func TestExtension_DuplicateSchemesAreSkipped(t *testing.T) {
	host := &fakeHost{table: NewSchemeTable(), options: &Options{}}
	require.NoError(t, host.table.Add(&Scheme{Name: ReservedBearerScheme, Handler: staticHandler{}}))
	require.NoError(t, host.table.Add(&Scheme{Name: "B2C", Handler: staticHandler{}}))

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	builder := NewBuilder().
		AddScheme(ReservedBearerScheme, "", staticHandler{}).
		AddScheme("B2C", "", staticHandler{}).
		AddScheme("Partner", "", staticHandler{})

	NewExtension(builder, WithLatch(&Latch{}), WithLogger(logger)).Initialize(host)

	assert.Equal(t, []string{ReservedBearerScheme, "B2C", "Partner"}, host.table.Names())
	assert.Contains(t, logs.String(), "reserved by the host")
	assert.Contains(t, logs.String(), "scheme=B2C")
}

func TestResult(t *testing.T) {
	assert.False(t, NoResult("x").Succeeded())
	assert.False(t, Fail("x", errors.New("bad")).Succeeded())
	assert.True(t, Success("x", claims.Anonymous()).Succeeded())
}
