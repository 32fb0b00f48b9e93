package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_api/internal/service"
	"github.com/Skotchmaster/shop_api/pkg/logging"
	middleware "github.com/Skotchmaster/shop_api/pkg/middleware/auth"
)

type AuthHTTP struct {
	Svc          *service.AuthService
	CookieSecure bool
}

type registerRequest struct {
	UserName string `json:"userName" validate:"required,max=64"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	Email    string `json:"email"`
	Role     string `json:"role"`
	ID       string `json:"id"`
	UserName string `json:"userName"`
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondErr(c, l, "register", err)
	}

	user, err := h.Svc.Register(ctx, req.UserName, req.Email, req.Password)
	if err != nil {
		return respondErr(c, l, "register", err)
	}

	l.Info("user registered", "user_id", user.ID)
	return okMsg(c, http.StatusOK, "Registration successful", nil)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondErr(c, l, "login", err)
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return respondErr(c, l, "login", err)
	}

	c.SetCookie(middleware.SessionCookie(res.Token, res.ExpiresAt, h.CookieSecure))
	l.Info("user logged in", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Logged in successfully",
		"token":   res.Token,
		"user": userResponse{
			Email:    res.User.Email,
			Role:     res.User.Role,
			ID:       res.User.ID.String(),
			UserName: res.User.UserName,
		},
	})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	c.SetCookie(middleware.ClearCookie())
	return okMsg(c, http.StatusOK, "Logged out successfully!", nil)
}

// CheckAuth echoes the identity carried by the verified token.
func (h *AuthHTTP) CheckAuth(c echo.Context) error {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized user!")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Authenticated user!",
		"user": userResponse{
			Email:    claims.Email,
			Role:     claims.Role,
			ID:       claims.ID,
			UserName: claims.UserName,
		},
	})
}
