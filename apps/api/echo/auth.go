package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/mwalimu/core"
)

const (
	parentCookie   = "parent_token"
	parentAudience = "Parent"
)

var nowFunc = time.Now // mockable

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Parent bool `json:"parent,omitempty"`
}

type authenticator struct {
	conf      *core.Config
	jwtConfig middleware.JWTConfig
}

func newAuthenticator(conf *core.Config) *authenticator {
	return &authenticator{
		conf: conf,
		jwtConfig: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    "parentToken",
			Claims:        new(Claims),
			// the parent session lives in a cookie; an explicit Bearer header wins
			BeforeFunc: func(ctx echo.Context) {
				req := ctx.Request()
				if req.Header.Get(echo.HeaderAuthorization) != "" {
					return
				}
				if cookie, err := ctx.Cookie(parentCookie); err == nil && cookie.Value != "" {
					req.Header.Set(echo.HeaderAuthorization, middleware.DefaultJWTConfig.AuthScheme+" "+cookie.Value)
				}
			},
		},
	}
}

// middleware only lets requests carrying a valid parent token through.
func (a *authenticator) middleware() echo.MiddlewareFunc {
	jwtMiddleware := middleware.JWTWithConfig(a.jwtConfig)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return jwtMiddleware(func(ctx echo.Context) error {
			claims, err := a.contextClaims(ctx)
			if err != nil {
				return err
			}
			if !claims.Parent {
				return errHttpForbidden
			}
			return next(ctx)
		})
	}
}

func (a *authenticator) parentClaims() *Claims {
	now := nowFunc()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.conf.AppName,
			Subject:   "parent",
			Audience:  parentAudience,
			ExpiresAt: now.Add(a.conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Parent: true,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func (a *authenticator) GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(a.jwtConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(a.jwtConfig.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// sessionCookie holds the parent token; an empty token clears the cookie.
func (a *authenticator) sessionCookie(token string) *http.Cookie {
	cookie := &http.Cookie{
		Name:     parentCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   !(a.conf.Debug || a.conf.TestMode),
		SameSite: http.SameSiteLaxMode,
	}
	if token == "" {
		cookie.MaxAge = -1
	} else {
		cookie.Expires = nowFunc().Add(a.conf.Server.JWTExpirationDelta)
	}
	return cookie
}

// contextClaims returns the claims set by the JWT middleware.
func (a *authenticator) contextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(a.jwtConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}
