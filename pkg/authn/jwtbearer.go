package authn

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/toyz/fnbridge/pkg/claims"
	"github.com/toyz/fnbridge/pkg/web"
)

// SigningMethod selects the JWT algorithm a bearer scheme accepts
type SigningMethod string

const (
	MethodHS256   SigningMethod = "hs256"
	MethodEd25519 SigningMethod = "ed25519"
)

// JWTBearerConfig configures a JWT bearer scheme
type JWTBearerConfig struct {
	DisplayName   string        `yaml:"display_name"`
	SigningMethod SigningMethod `yaml:"signing_method"`
	// PrivateKey is the HS256 secret, or a PEM/raw ed25519 private key used for issuing
	PrivateKey []byte `yaml:"private_key"`
	// PublicKey verifies ed25519 tokens without a kid
	PublicKey  []byte            `yaml:"public_key"`
	VerifyKeys map[string][]byte `yaml:"verify_keys"`
	KeyID      string            `yaml:"key_id"`
	Issuer     string            `yaml:"issuer"`
	Audience   string            `yaml:"audience"`
	Leeway     time.Duration     `yaml:"leeway"`
	RequireIAT bool              `yaml:"require_iat"`

	NameClaimType string `yaml:"name_claim_type"`
	RoleClaimType string `yaml:"role_claim_type"`
}

// JWTBearer authenticates "Authorization: Bearer <jwt>" headers
type JWTBearer struct {
	scheme string
	config JWTBearerConfig
}

// NewJWTBearer validates cfg and creates the handler
func NewJWTBearer(scheme string, cfg JWTBearerConfig) (*JWTBearer, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)

	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) == 0 {
			return nil, errors.New("hs256 requires private key")
		}
	case MethodEd25519:
		if len(cfg.PrivateKey) > 0 {
			if _, err := parseEdPrivateKey(cfg.PrivateKey); err != nil {
				return nil, err
			}
		}
		if len(cfg.VerifyKeys) == 0 && len(cfg.PublicKey) == 0 {
			return nil, errors.New("ed25519 requires public key or verify key set")
		}
		for kid, key := range cfg.VerifyKeys {
			if strings.TrimSpace(kid) == "" {
				return nil, errors.New("verify key map contains empty kid")
			}
			if _, err := parseEdPublicKey(key); err != nil {
				return nil, fmt.Errorf("invalid ed25519 verify key for kid %q: %w", kid, err)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported signing method %q", cfg.SigningMethod)
	}

	if cfg.NameClaimType == "" {
		cfg.NameClaimType = claims.TypeName
	}
	if cfg.RoleClaimType == "" {
		cfg.RoleClaimType = claims.TypeRole
	}

	return &JWTBearer{scheme: scheme, config: cfg}, nil
}

// Authenticate validates the bearer token and converts its claims
func (j *JWTBearer) Authenticate(ctx web.RequestContext) Result {
	token, ok := bearerToken(ctx.Request().Header("Authorization"))
	if !ok {
		return NoResult(j.scheme)
	}

	mapClaims, err := j.parse(token)
	if err != nil {
		return Fail(j.scheme, err)
	}

	identity := &claims.Identity{
		AuthenticationType: j.scheme,
		NameClaimType:      j.config.NameClaimType,
		RoleClaimType:      j.config.RoleClaimType,
		Claims:             flattenClaims(mapClaims, j.config.Issuer),
	}
	return Success(j.scheme, claims.NewPrincipal(identity))
}

// Challenge writes a 401 with a bearer challenge
func (j *JWTBearer) Challenge(ctx web.RequestContext) error {
	ctx.Response().SetHeader("WWW-Authenticate", "Bearer")
	return ctx.Response().JSON(401, web.ErrUnauthorized("a valid bearer token is required"))
}

// Forbid writes a 403
func (j *JWTBearer) Forbid(ctx web.RequestContext) error {
	return ctx.Response().JSON(403, web.ErrForbidden("the caller is not allowed to access this function"))
}

// Issue signs a token for subject carrying extra claims
func (j *JWTBearer) Issue(subject string, ttl time.Duration, extra map[string]any) (string, error) {
	now := time.Now()
	mc := jwt.MapClaims{
		"sub": subject,
		"iat": jwt.NewNumericDate(now),
		"exp": jwt.NewNumericDate(now.Add(ttl)),
	}
	if j.config.Issuer != "" {
		mc["iss"] = j.config.Issuer
	}
	if j.config.Audience != "" {
		mc["aud"] = j.config.Audience
	}
	for k, v := range extra {
		mc[k] = v
	}

	token := jwt.NewWithClaims(j.method(), mc)
	if j.config.KeyID != "" {
		token.Header["kid"] = j.config.KeyID
	}

	signKey, err := j.signKey()
	if err != nil {
		return "", err
	}
	return token.SignedString(signKey)
}

func (j *JWTBearer) parse(tokenStr string) (jwt.MapClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{j.method().Alg()}),
		jwt.WithExpirationRequired(),
	}
	if j.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(j.config.Leeway))
	}
	if j.config.RequireIAT {
		options = append(options, jwt.WithIssuedAt())
	}
	if j.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(j.config.Issuer))
	}
	if j.config.Audience != "" {
		options = append(options, jwt.WithAudience(j.config.Audience))
	}

	mc := jwt.MapClaims{}
	token, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, mc, func(t *jwt.Token) (any, error) {
		if len(j.config.VerifyKeys) > 0 {
			kid, _ := t.Header["kid"].(string)
			if kid == "" {
				return nil, errors.New("missing kid")
			}
			key, ok := j.config.VerifyKeys[kid]
			if !ok {
				return nil, errors.New("unknown kid")
			}
			return parseEdPublicKey(key)
		}
		return j.verifyKey()
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return mc, nil
}

func (j *JWTBearer) method() jwt.SigningMethod {
	if j.config.SigningMethod == MethodHS256 {
		return jwt.SigningMethodHS256
	}
	return jwt.SigningMethodEdDSA
}

func (j *JWTBearer) signKey() (any, error) {
	if j.config.SigningMethod == MethodHS256 {
		return j.config.PrivateKey, nil
	}
	if len(j.config.PrivateKey) == 0 {
		return nil, errors.New("scheme has no private key for issuing tokens")
	}
	return parseEdPrivateKey(j.config.PrivateKey)
}

func (j *JWTBearer) verifyKey() (any, error) {
	if j.config.SigningMethod == MethodHS256 {
		return j.config.PrivateKey, nil
	}
	if len(j.config.PublicKey) > 0 {
		return parseEdPublicKey(j.config.PublicKey)
	}
	priv, err := parseEdPrivateKey(j.config.PrivateKey)
	if err != nil {
		return nil, err
	}
	return priv.Public(), nil
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}
	token := strings.TrimSpace(value[len(bearer):])
	return token, token != ""
}

// flattenClaims turns JWT claims into claim statements, expanding arrays into
// one claim per element. Keys are visited in sorted order.
func flattenClaims(mc jwt.MapClaims, issuer string) []claims.Claim {
	keys := make([]string, 0, len(mc))
	for k := range mc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []claims.Claim
	for _, k := range keys {
		switch v := mc[k].(type) {
		case []any:
			for _, item := range v {
				out = append(out, claims.Claim{Type: k, Value: fmt.Sprint(item), Issuer: issuer})
			}
		case []string:
			for _, item := range v {
				out = append(out, claims.Claim{Type: k, Value: item, Issuer: issuer})
			}
		case float64:
			out = append(out, claims.Claim{Type: k, Value: fmt.Sprintf("%.0f", v), Issuer: issuer})
		default:
			out = append(out, claims.Claim{Type: k, Value: fmt.Sprint(v), Issuer: issuer})
		}
	}
	return out
}

func parseEdPrivateKey(raw []byte) (ed25519.PrivateKey, error) {
	if len(raw) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(raw), nil
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not ed25519")
	}
	return priv, nil
}

func parseEdPublicKey(raw []byte) (ed25519.PublicKey, error) {
	if len(raw) == ed25519.PublicKeySize {
		return ed25519.PublicKey(raw), nil
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	pub, ok := key.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("public key is not ed25519")
	}
	return pub, nil
}
