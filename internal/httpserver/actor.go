package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_api/internal/service"
	middleware "github.com/Skotchmaster/shop_api/pkg/middleware/auth"
)

func actorFrom(c echo.Context) (service.Actor, error) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return service.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized user!")
	}
	id, err := uuid.Parse(claims.ID)
	if err != nil {
		return service.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized user!")
	}
	return service.Actor{UserID: id, Admin: claims.IsAdmin()}, nil
}

// ensureSelf rejects requests that name a user other than the caller, unless the caller is an admin.
func ensureSelf(c echo.Context, userID uuid.UUID) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	if !actor.Owns(userID) {
		return echo.NewHTTPError(http.StatusForbidden, "Access denied")
	}
	return nil
}

func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return id, nil
}
