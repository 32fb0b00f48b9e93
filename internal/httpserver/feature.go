package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_api/internal/service"
	"github.com/Skotchmaster/shop_api/pkg/logging"
)

type FeatureHTTP struct {
	Svc *service.FeatureService
}

func (h *FeatureHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "feature.add")

	var req struct {
		Image string `json:"image"`
	}
	if err := c.Bind(&req); err != nil {
		return respondErr(c, l, "add_feature_image", &bindError{err: err})
	}
	f, err := h.Svc.Add(ctx, req.Image)
	if err != nil {
		return respondErr(c, l, "add_feature_image", err)
	}
	return ok(c, http.StatusCreated, f)
}

func (h *FeatureHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "feature.list")

	images, err := h.Svc.List(ctx)
	if err != nil {
		return respondErr(c, l, "list_feature_images", err)
	}
	return ok(c, http.StatusOK, images)
}
