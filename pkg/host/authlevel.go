package host

import (
	"crypto/subtle"

	"github.com/toyz/fnbridge/pkg/authn"
	"github.com/toyz/fnbridge/pkg/claims"
	"github.com/toyz/fnbridge/pkg/web"
)

// AuthLevelScheme is the host's built-in function-key scheme
const AuthLevelScheme = "WebJobsAuthLevel"

// FunctionKeyHeader carries the function key
const FunctionKeyHeader = "x-functions-key"

// authLevelHandler authenticates callers presenting the host function key
type authLevelHandler struct {
	key string
}

func (h *authLevelHandler) Authenticate(ctx web.RequestContext) authn.Result {
	presented := ctx.Request().Header(FunctionKeyHeader)
	if presented == "" {
		presented = ctx.QueryParams().Get("code")
	}
	if presented == "" || h.key == "" {
		return authn.NoResult(AuthLevelScheme)
	}
	if subtle.ConstantTimeCompare([]byte(presented), []byte(h.key)) != 1 {
		return authn.Fail(AuthLevelScheme, web.ErrUnauthorized("invalid function key"))
	}
	identity := claims.NewIdentity(AuthLevelScheme, claims.Claim{Type: "auth_level", Value: "function"})
	return authn.Success(AuthLevelScheme, claims.NewPrincipal(identity))
}

func (h *authLevelHandler) Challenge(ctx web.RequestContext) error {
	return ctx.Response().JSON(401, web.ErrUnauthorized("function key required"))
}

func (h *authLevelHandler) Forbid(ctx web.RequestContext) error {
	return ctx.Response().JSON(403, web.ErrForbidden("access denied"))
}

// hostBearerHandler backs the reserved bearer scheme. The host only reserves
// the name; tokens presented under it are not accepted by applications.
type hostBearerHandler struct{}

func (hostBearerHandler) Authenticate(web.RequestContext) authn.Result {
	return authn.NoResult(authn.ReservedBearerScheme)
}

func (hostBearerHandler) Challenge(ctx web.RequestContext) error {
	ctx.Response().SetHeader("WWW-Authenticate", "Bearer")
	return ctx.Response().JSON(401, web.ErrUnauthorized("authentication required"))
}

func (hostBearerHandler) Forbid(ctx web.RequestContext) error {
	return ctx.Response().JSON(403, web.ErrForbidden("access denied"))
}
