package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/service"
	"github.com/Skotchmaster/shop_api/pkg/logging"
)

type ReviewHTTP struct {
	Svc *service.ReviewService
}

type reviewRequest struct {
	ProductID     uuid.UUID `json:"productId"     validate:"required"`
	UserID        uuid.UUID `json:"userId"        validate:"required"`
	UserName      string    `json:"userName"`
	ReviewMessage string    `json:"reviewMessage" validate:"max=2000"`
	ReviewValue   int       `json:"reviewValue"   validate:"min=1,max=5"`
}

func (h *ReviewHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.add")

	var req reviewRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondErr(c, l, "add_review", err)
	}
	if err := ensureSelf(c, req.UserID); err != nil {
		return respondErr(c, l, "add_review", err)
	}

	r := models.Review{
		ProductID:     req.ProductID,
		UserID:        req.UserID,
		UserName:      req.UserName,
		ReviewMessage: req.ReviewMessage,
		ReviewValue:   req.ReviewValue,
	}
	if _, err := h.Svc.Add(ctx, &r); err != nil {
		return respondErr(c, l, "add_review", err)
	}
	l.Info("review added", "product_id", r.ProductID, "user_id", r.UserID)
	return ok(c, http.StatusCreated, r)
}

func (h *ReviewHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.list")

	productID, err := uuidParam(c, "productId")
	if err != nil {
		return respondErr(c, l, "list_reviews", err)
	}
	reviews, err := h.Svc.List(ctx, productID)
	if err != nil {
		return respondErr(c, l, "list_reviews", err)
	}
	return ok(c, http.StatusOK, reviews)
}
