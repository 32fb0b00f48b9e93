package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/service"
	"github.com/Skotchmaster/shop_api/internal/util"
	"github.com/Skotchmaster/shop_api/pkg/logging"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

type orderLineRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Title     string    `json:"title"`
	Image     string    `json:"image"`
	Price     float64   `json:"price"     validate:"gte=0"`
	Quantity  int       `json:"quantity"  validate:"gt=0"`
}

type addressInfoRequest struct {
	AddressID string `json:"addressId"`
	Address   string `json:"address" validate:"required"`
	City      string `json:"city"    validate:"required"`
	Pincode   string `json:"pincode" validate:"required"`
	Phone     string `json:"phone"   validate:"required"`
	Notes     string `json:"notes"`
}

type createOrderRequest struct {
	UserID        uuid.UUID          `json:"userId"        validate:"required"`
	CartID        uuid.UUID          `json:"cartId"`
	CartItems     []orderLineRequest `json:"cartItems"     validate:"required,min=1,dive"`
	AddressInfo   addressInfoRequest `json:"addressInfo"`
	PaymentMethod string             `json:"paymentMethod"`
	TotalAmount   float64            `json:"totalAmount"   validate:"gte=0"`
}

type captureRequest struct {
	OrderID   uuid.UUID `json:"orderId"   validate:"required"`
	PaymentID string    `json:"paymentId" validate:"required"`
	PayerID   string    `json:"payerId"   validate:"required"`
}

type statusRequest struct {
	OrderStatus models.OrderStatus `json:"orderStatus" validate:"required"`
}

func (h *OrderHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create")

	var req createOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondErr(c, l, "create_order", err)
	}
	if err := ensureSelf(c, req.UserID); err != nil {
		return respondErr(c, l, "create_order", err)
	}

	in := service.CreateOrderInput{
		UserID: req.UserID,
		CartID: req.CartID,
		Address: models.AddressInfo{
			AddressID: req.AddressInfo.AddressID,
			Address:   req.AddressInfo.Address,
			City:      req.AddressInfo.City,
			Pincode:   req.AddressInfo.Pincode,
			Phone:     req.AddressInfo.Phone,
			Notes:     req.AddressInfo.Notes,
		},
		PaymentMethod: req.PaymentMethod,
		TotalAmount:   req.TotalAmount,
	}
	for _, it := range req.CartItems {
		in.Items = append(in.Items, service.OrderLineInput{
			ProductID: it.ProductID,
			Title:     it.Title,
			Image:     it.Image,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}

	res, err := h.Svc.Create(ctx, in)
	if err != nil {
		return respondErr(c, l, "create_order", err)
	}
	l.Info("order created", "order_id", res.OrderID)
	return c.JSON(http.StatusCreated, echo.Map{
		"success":     true,
		"approvalURL": res.ApprovalURL,
		"orderId":     res.OrderID,
	})
}

func (h *OrderHTTP) Capture(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.capture")

	var req captureRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondErr(c, l, "capture_payment", err)
	}
	actor, err := actorFrom(c)
	if err != nil {
		return respondErr(c, l, "capture_payment", err)
	}

	order, err := h.Svc.Capture(ctx, actor, req.OrderID, req.PaymentID, req.PayerID)
	if err != nil {
		return respondErr(c, l, "capture_payment", err)
	}
	l.Info("order confirmed", "order_id", order.ID)
	return okMsg(c, http.StatusOK, "Order confirmed", order)
}

func (h *OrderHTTP) ListByUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	userID, err := uuidParam(c, "userId")
	if err != nil {
		return respondErr(c, l, "list_orders", err)
	}
	if err := ensureSelf(c, userID); err != nil {
		return respondErr(c, l, "list_orders", err)
	}

	orders, err := h.Svc.ListByUser(ctx, userID)
	if err != nil {
		return respondErr(c, l, "list_orders", err)
	}
	return ok(c, http.StatusOK, orders)
}

func (h *OrderHTTP) Details(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.details")

	id, err := uuidParam(c, "id")
	if err != nil {
		return respondErr(c, l, "order_details", err)
	}
	actor, err := actorFrom(c)
	if err != nil {
		return respondErr(c, l, "order_details", err)
	}

	order, err := h.Svc.Get(ctx, actor, id)
	if err != nil {
		return respondErr(c, l, "order_details", err)
	}
	return ok(c, http.StatusOK, order)
}

// ListAll is the admin listing, paged with ?page=&size=.
func (h *OrderHTTP) ListAll(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.orders.list")

	page := max(util.ParseIntDefault(c.QueryParam("page"), 1), 1)
	offset, limit := util.Calculate(page, util.ParseIntDefault(c.QueryParam("size"), 100))

	total, orders, err := h.Svc.ListAll(ctx, offset, limit)
	if err != nil {
		return respondErr(c, l, "admin_list_orders", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    orders,
		"total":   total,
		"page":    page,
		"size":    limit,
	})
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.orders.update")

	id, err := uuidParam(c, "id")
	if err != nil {
		return respondErr(c, l, "update_order_status", err)
	}
	var req statusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondErr(c, l, "update_order_status", err)
	}

	if _, err := h.Svc.UpdateStatus(ctx, id, req.OrderStatus); err != nil {
		return respondErr(c, l, "update_order_status", err)
	}
	l.Info("order status updated", "order_id", id, "status", req.OrderStatus)
	return okMsg(c, http.StatusOK, "Order status is updated successfully!", nil)
}
