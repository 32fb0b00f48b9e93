package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/service"
	"github.com/Skotchmaster/shop_api/pkg/logging"
)

type AddressHTTP struct {
	Svc *service.AddressService
}

type addressRequest struct {
	UserID  uuid.UUID `json:"userId"  validate:"required"`
	Address string    `json:"address" validate:"required"`
	City    string    `json:"city"    validate:"required"`
	Pincode string    `json:"pincode" validate:"required"`
	Phone   string    `json:"phone"   validate:"required"`
	Notes   string    `json:"notes"   validate:"required"`
}

type addressPatchRequest struct {
	Address *string `json:"address"`
	City    *string `json:"city"`
	Pincode *string `json:"pincode"`
	Phone   *string `json:"phone"`
	Notes   *string `json:"notes"`
}

func (h *AddressHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.add")

	var req addressRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondErr(c, l, "add_address", err)
	}
	if err := ensureSelf(c, req.UserID); err != nil {
		return respondErr(c, l, "add_address", err)
	}

	a := models.Address{
		UserID:  req.UserID,
		Address: req.Address,
		City:    req.City,
		Pincode: req.Pincode,
		Phone:   req.Phone,
		Notes:   req.Notes,
	}
	if err := h.Svc.Add(ctx, &a); err != nil {
		return respondErr(c, l, "add_address", err)
	}
	return ok(c, http.StatusCreated, a)
}

func (h *AddressHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.list")

	userID, err := uuidParam(c, "userId")
	if err != nil {
		return respondErr(c, l, "list_addresses", err)
	}
	if err := ensureSelf(c, userID); err != nil {
		return respondErr(c, l, "list_addresses", err)
	}

	list, err := h.Svc.List(ctx, userID)
	if err != nil {
		return respondErr(c, l, "list_addresses", err)
	}
	return ok(c, http.StatusOK, list)
}

func (h *AddressHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.update")

	userID, err := uuidParam(c, "userId")
	if err != nil {
		return respondErr(c, l, "update_address", err)
	}
	addressID, err := uuidParam(c, "addressId")
	if err != nil {
		return respondErr(c, l, "update_address", err)
	}
	if err := ensureSelf(c, userID); err != nil {
		return respondErr(c, l, "update_address", err)
	}
	var req addressPatchRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondErr(c, l, "update_address", err)
	}

	a, err := h.Svc.Update(ctx, userID, addressID, service.AddressPatch{
		Address: req.Address,
		City:    req.City,
		Pincode: req.Pincode,
		Phone:   req.Phone,
		Notes:   req.Notes,
	})
	if err != nil {
		return respondErr(c, l, "update_address", err)
	}
	return ok(c, http.StatusOK, a)
}

func (h *AddressHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.delete")

	userID, err := uuidParam(c, "userId")
	if err != nil {
		return respondErr(c, l, "delete_address", err)
	}
	addressID, err := uuidParam(c, "addressId")
	if err != nil {
		return respondErr(c, l, "delete_address", err)
	}
	if err := ensureSelf(c, userID); err != nil {
		return respondErr(c, l, "delete_address", err)
	}

	if err := h.Svc.Delete(ctx, userID, addressID); err != nil {
		return respondErr(c, l, "delete_address", err)
	}
	return okMsg(c, http.StatusOK, "Address deleted successfully", nil)
}
