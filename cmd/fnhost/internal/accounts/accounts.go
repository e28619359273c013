// Package accounts is a small account service exposed as host functions.
// Run fnbridge over this directory after changing an annotation.
package accounts

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/toyz/fnbridge/pkg/claims"
	"github.com/toyz/fnbridge/pkg/web"
)

const pageSize = 20

// TokenIssuer signs access tokens
type TokenIssuer interface {
	Issue(subject string, ttl time.Duration, extra map[string]any) (string, error)
}

type RegisterRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,max=64"`
}

type TokenRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Accounts serves the account functions
//
//fn::Authorize -Schemes=B2C
type Accounts struct {
	store    *Store
	issuer   TokenIssuer
	tokenTTL time.Duration
}

func New(store *Store, issuer TokenIssuer, tokenTTL time.Duration) *Accounts {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &Accounts{store: store, issuer: issuer, tokenTTL: tokenTTL}
}

// Register creates an account
//
//fn::Function -Route=/accounts -Methods=POST
//fn::AllowAnonymous
//fn::FromBody req
func (a *Accounts) Register(req RegisterRequest) (*web.Response, error) {
	account, err := a.store.Create(req.Email, req.Name)
	if errors.Is(err, ErrDuplicate) {
		return nil, web.NewHttpError(http.StatusConflict, "an account with this email already exists")
	}
	if err != nil {
		return nil, err
	}
	return web.Created(account).WithHeader("Location", "/accounts/"+strconv.FormatInt(account.ID, 10)), nil
}

// Token issues an access token for a registered email
//
//fn::Function -Route=/token -Methods=POST
//fn::AllowAnonymous
//fn::FromBody req
func (a *Accounts) Token(req TokenRequest) (*TokenResponse, error) {
	account, err := a.store.ByEmail(req.Email)
	if err != nil {
		return nil, web.ErrUnauthorized("unknown account")
	}
	extra := map[string]any{
		claims.TypeEmail: account.Email,
		claims.TypeName:  account.Name,
	}
	if len(account.Roles) > 0 {
		extra[claims.TypeRole] = account.Roles
	}
	token, err := a.issuer.Issue(strconv.FormatInt(account.ID, 10), a.tokenTTL, extra)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{AccessToken: token, TokenType: "Bearer", ExpiresIn: int(a.tokenTTL.Seconds())}, nil
}

//fn::Function -Route=/accounts/{id:int} -Methods=GET
//fn::FromRoute id
func (a *Accounts) Get(id int64) (*Account, error) {
	account, err := a.store.Get(id)
	if err != nil {
		return nil, web.ErrNotFound(err.Error())
	}
	return account, nil
}

// Search lists accounts page by page
//
//fn::Function -Route=/accounts -Methods=GET
//fn::FromQuery term -Name=q
//fn::FromQuery page
//fn::Default page -Value=1
//fn::Validate page -Rules=min=1
func (a *Accounts) Search(term string, page int) []*Account {
	return a.store.Search(term, page, pageSize)
}

// Me returns the caller's account
//
//fn::Function -Route=/me -Methods=GET
//fn::Authorize -Policy=Email
func (a *Accounts) Me(user *claims.Principal) (*Account, error) {
	email, _ := user.FindFirst(claims.TypeEmail)
	account, err := a.store.ByEmail(email.Value)
	if err != nil {
		return nil, web.ErrNotFound(err.Error())
	}
	return account, nil
}

//fn::Function -Route=/accounts/{id:int}/profile -Methods=POST
//fn::Authorize -Roles=admin
//fn::FromRoute id
//fn::FromForm bio -ValueLengthLimit=512
//fn::Validate bio -Rules=max=280
func (a *Accounts) UpdateProfile(id int64, bio string) (*Account, error) {
	account, err := a.store.UpdateBio(id, bio)
	if err != nil {
		return nil, web.ErrNotFound(err.Error())
	}
	return account, nil
}
