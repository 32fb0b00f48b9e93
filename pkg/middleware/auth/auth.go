package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_api/pkg/logging"
	"github.com/Skotchmaster/shop_api/pkg/tokens"
)

const (
	TokenCookie = "token"
	claimsKey   = "claims"
	userIDKey   = "user_id"
	roleKey     = "role"
)

type ValidatorFunc func(claims *tokens.AccessClaims) error

type Auth struct {
	JWTSecret []byte
}

func New(secret []byte) *Auth {
	return &Auth{JWTSecret: secret}
}

func (m *Auth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, nil)
}

func (m *Auth) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, func(claims *tokens.AccessClaims) error {
		if !claims.IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, "Admin access required")
		}
		return nil
	})
}

func (m *Auth) requireAuthWithValidator(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context()).With("middleware", "auth")

		raw, fromCookie := tokenFromRequest(c)
		if raw == "" {
			l.Warn("auth_no_token", "status", 401)
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized user!")
		}

		claims, err := tokens.AccessClaimsFromToken(raw, m.JWTSecret)
		if err != nil {
			if fromCookie {
				c.SetCookie(ClearCookie())
			}
			l.Warn("auth_invalid_token", "status", 401, "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized user!")
		}

		if validator != nil {
			if err := validator(claims); err != nil {
				l.Warn("auth_forbidden", "status", 403, "user_id", claims.ID, "role", claims.Role)
				return err
			}
		}

		setUserContext(c, claims)
		return next(c)
	}
}

// tokenFromRequest prefers the Authorization header over the session cookie.
func tokenFromRequest(c echo.Context) (string, bool) {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		scheme, tok, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok), false
		}
		return "", false
	}
	if ck, err := c.Cookie(TokenCookie); err == nil && ck.Value != "" {
		return ck.Value, true
	}
	return "", false
}

func setUserContext(c echo.Context, claims *tokens.AccessClaims) {
	c.Set(claimsKey, claims)
	c.Set(userIDKey, claims.ID)
	c.Set(roleKey, claims.Role)
}

func SetClaims(c echo.Context, claims *tokens.AccessClaims) {
	setUserContext(c, claims)
}

func ClaimsFrom(c echo.Context) (*tokens.AccessClaims, bool) {
	claims, ok := c.Get(claimsKey).(*tokens.AccessClaims)
	return claims, ok && claims != nil
}

// UsesCookie reports whether the request authenticates with the session cookie only.
func UsesCookie(c echo.Context) bool {
	if c.Request().Header.Get(echo.HeaderAuthorization) != "" {
		return false
	}
	ck, err := c.Cookie(TokenCookie)
	return err == nil && ck.Value != ""
}
