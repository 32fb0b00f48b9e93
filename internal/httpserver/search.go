package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_api/internal/service"
	"github.com/Skotchmaster/shop_api/internal/util"
	"github.com/Skotchmaster/shop_api/pkg/logging"
)

type SearchHTTP struct {
	Svc *service.SearchService
}

func (h *SearchHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "search")

	offset, limit := util.Calculate(
		util.ParseIntDefault(c.QueryParam("page"), 1),
		util.ParseIntDefault(c.QueryParam("size"), 20),
	)
	res, err := h.Svc.Search(ctx, c.Param("keyword"), offset, limit)
	if err != nil {
		return respondErr(c, l, "search_products", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": res.Items, "total": res.Total})
}
