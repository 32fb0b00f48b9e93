package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_api/internal/service"
	"github.com/Skotchmaster/shop_api/pkg/logging"
)

type CartHTTP struct {
	Svc *service.CartService
}

type cartItemRequest struct {
	UserID    uuid.UUID `json:"userId"    validate:"required"`
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity"  validate:"gt=0"`
}

func (h *CartHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	var req cartItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondErr(c, l, "add_to_cart", err)
	}
	if err := ensureSelf(c, req.UserID); err != nil {
		return respondErr(c, l, "add_to_cart", err)
	}

	cart, err := h.Svc.Add(ctx, req.UserID, req.ProductID, req.Quantity)
	if err != nil {
		return respondErr(c, l, "add_to_cart", err)
	}
	l.Info("item added to cart", "user_id", req.UserID, "product_id", req.ProductID)
	return ok(c, http.StatusOK, cart)
}

func (h *CartHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	userID, err := uuidParam(c, "userId")
	if err != nil {
		return respondErr(c, l, "get_cart", err)
	}
	if err := ensureSelf(c, userID); err != nil {
		return respondErr(c, l, "get_cart", err)
	}

	cart, err := h.Svc.Get(ctx, userID)
	if err != nil {
		return respondErr(c, l, "get_cart", err)
	}
	return ok(c, http.StatusOK, cart)
}

func (h *CartHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update")

	var req cartItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondErr(c, l, "update_cart", err)
	}
	if err := ensureSelf(c, req.UserID); err != nil {
		return respondErr(c, l, "update_cart", err)
	}

	cart, err := h.Svc.Update(ctx, req.UserID, req.ProductID, req.Quantity)
	if err != nil {
		return respondErr(c, l, "update_cart", err)
	}
	return ok(c, http.StatusOK, cart)
}

func (h *CartHTTP) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	userID, err := uuidParam(c, "userId")
	if err != nil {
		return respondErr(c, l, "remove_cart_item", err)
	}
	productID, err := uuidParam(c, "productId")
	if err != nil {
		return respondErr(c, l, "remove_cart_item", err)
	}
	if err := ensureSelf(c, userID); err != nil {
		return respondErr(c, l, "remove_cart_item", err)
	}

	cart, err := h.Svc.Remove(ctx, userID, productID)
	if err != nil {
		return respondErr(c, l, "remove_cart_item", err)
	}
	return ok(c, http.StatusOK, cart)
}
