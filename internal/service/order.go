package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/shop_api/internal/metrics"
	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/mykafka"
	"github.com/Skotchmaster/shop_api/internal/payment"
	"github.com/Skotchmaster/shop_api/internal/repo"
	"github.com/Skotchmaster/shop_api/pkg/logging"
)

const (
	currencyUSD        = "USD"
	defaultPayMethod   = "paypal"
	paymentDescription = "Order payment"
)

var totalTolerance = decimal.New(1, -2)

type OrderService struct {
	Repo          *repo.GormRepo
	Gateway       payment.Gateway
	Events        Publisher
	Metrics       *metrics.Metrics
	ClientBaseURL string
}

// Actor is the authenticated caller. Admins may act on any user's orders.
type Actor struct {
	UserID uuid.UUID
	Admin  bool
}

func (a Actor) Owns(userID uuid.UUID) bool {
	return a.Admin || a.UserID == userID
}

type OrderLineInput struct {
	ProductID uuid.UUID
	Title     string
	Image     string
	Price     float64
	Quantity  int
}

type CreateOrderInput struct {
	UserID        uuid.UUID
	CartID        uuid.UUID
	Items         []OrderLineInput
	Address       models.AddressInfo
	PaymentMethod string
	TotalAmount   float64
}

type CreateOrderResult struct {
	ApprovalURL string    `json:"approvalURL"`
	OrderID     uuid.UUID `json:"orderId"`
}

// unitPrice is what the shop charges for one unit: the sale price when one is set.
func unitPrice(p models.Product) float64 {
	if p.SalePrice > 0 {
		return p.SalePrice
	}
	return p.Price
}

func linesTotal(lines []models.OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range lines {
		sum = sum.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum.Round(2)
}

func (in CreateOrderInput) validate() error {
	if in.UserID == uuid.Nil {
		return newErr(ErrValidation, "userId is required")
	}
	if len(in.Items) == 0 {
		return newErr(ErrValidation, "cartItems cannot be empty")
	}
	for i, it := range in.Items {
		if it.ProductID == uuid.Nil {
			return newErr(ErrValidation, "cartItems[%d].productId is required", i)
		}
		if it.Quantity <= 0 {
			return newErr(ErrValidation, "cartItems[%d].quantity must be positive", i)
		}
	}
	if in.TotalAmount < 0 {
		return newErr(ErrValidation, "totalAmount cannot be negative")
	}
	return nil
}

// Create opens a gateway payment for the cart snapshot and stores a pending order.
// Lines are priced from the catalog; client prices are ignored. Nothing is persisted
// when the gateway call fails.
func (s *OrderService) Create(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error) {
	l := logging.FromContext(ctx).With("svc", "order.create", "user_id", in.UserID)

	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := s.checkCart(ctx, in.UserID, in.CartID); err != nil {
		return nil, err
	}
	lines, err := s.priceLines(ctx, in.Items)
	if err != nil {
		return nil, err
	}
	total := linesTotal(lines)
	if total.Sub(decimal.NewFromFloat(in.TotalAmount)).Abs().GreaterThan(totalTolerance) {
		return nil, newErr(ErrValidation, "totalAmount %s does not match cart items total %s",
			decimal.NewFromFloat(in.TotalAmount).StringFixed(2), total.StringFixed(2))
	}
	if s.Gateway == nil {
		return nil, newErr(ErrPaymentGateway, "Error while creating PayPal payment")
	}

	req := payment.CreateRequest{
		Total:       total,
		Currency:    currencyUSD,
		Description: paymentDescription,
		ReturnURL:   strings.TrimRight(s.ClientBaseURL, "/") + "/shop/paypal-return",
		CancelURL:   strings.TrimRight(s.ClientBaseURL, "/") + "/shop/paypal-cancel",
	}
	for _, it := range lines {
		req.Items = append(req.Items, payment.Item{
			Name:     it.Title,
			SKU:      it.ProductID.String(),
			Price:    decimal.NewFromFloat(it.Price).Round(2),
			Quantity: it.Quantity,
		})
	}

	pay, err := s.Gateway.CreatePayment(ctx, req)
	if err != nil {
		l.Error("create_payment_failed", "error", err)
		return nil, wrapErr(ErrPaymentGateway, err, "Error while creating PayPal payment")
	}

	method := in.PaymentMethod
	if method == "" {
		method = defaultPayMethod
	}
	now := time.Now().UTC()
	order := models.Order{
		UserID:          in.UserID,
		CartID:          in.CartID,
		CartItems:       lines,
		AddressInfo:     in.Address,
		OrderStatus:     models.OrderPending,
		PaymentMethod:   method,
		PaymentStatus:   models.PaymentPending,
		TotalAmount:     total.InexactFloat64(),
		PaymentID:       pay.ID,
		OrderDate:       now,
		OrderUpdateDate: now,
	}
	if err := s.Repo.CreateOrder(ctx, &order); err != nil {
		l.Error("persist_order_failed", "payment_id", pay.ID, "error", err)
		return nil, err
	}

	s.Metrics.OrderCreated(method)
	publish(ctx, s.Events, mykafka.TopicOrderEvents, order.ID.String(), "order_created", map[string]any{
		"orderId":     order.ID.String(),
		"userId":      order.UserID.String(),
		"totalAmount": total.StringFixed(2),
		"paymentId":   pay.ID,
		"items":       len(order.CartItems),
	})
	return &CreateOrderResult{ApprovalURL: pay.ApprovalURL, OrderID: order.ID}, nil
}

// checkCart rejects a cart id that is not the user's own cart.
func (s *OrderService) checkCart(ctx context.Context, userID, cartID uuid.UUID) error {
	if cartID == uuid.Nil {
		return nil
	}
	cart, err := s.Repo.GetCartByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrCartNotFound) {
			return wrapErr(ErrNotFound, err, "Cart not found!")
		}
		return err
	}
	if cart.ID != cartID {
		return newErr(ErrForbidden, "Access denied")
	}
	return nil
}

// priceLines snapshots each line with the product's current title, image and price.
func (s *OrderService) priceLines(ctx context.Context, items []OrderLineInput) ([]models.OrderItem, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.Repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]models.OrderItem, 0, len(items))
	for i, it := range items {
		p, ok := products[it.ProductID]
		if !ok {
			return nil, newErr(ErrNotFound, "Product not found!")
		}
		image := p.Image
		if image == "" {
			image = it.Image
		}
		lines = append(lines, models.OrderItem{
			Position:  i,
			ProductID: p.ID,
			Title:     p.Title,
			Image:     image,
			Price:     unitPrice(p),
			Quantity:  it.Quantity,
		})
	}
	return lines, nil
}

// Capture confirms a payment: stock is decremented and the cart deleted atomically.
// A paid order is returned unchanged whatever its fulfilment status, so retries are safe.
func (s *OrderService) Capture(ctx context.Context, actor Actor, orderID uuid.UUID, paymentID, payerID string) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.capture", "order_id", orderID)

	if strings.TrimSpace(paymentID) == "" || strings.TrimSpace(payerID) == "" {
		return nil, newErr(ErrValidation, "paymentId and payerId are required")
	}

	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, wrapErr(ErrNotFound, err, "Order cannot be found")
		}
		return nil, err
	}
	if !actor.Owns(order.UserID) {
		return nil, newErr(ErrForbidden, "Access denied")
	}
	if order.PaymentID != "" && order.PaymentID != paymentID {
		return nil, newErr(ErrValidation, "paymentId does not match this order")
	}
	if order.PaymentStatus == models.PaymentPaid {
		s.Metrics.CaptureResult("replayed")
		return order, nil
	}

	claimed, err := s.Repo.ClaimCapture(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		current, err := s.Repo.GetOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		switch {
		case current.PaymentStatus == models.PaymentPaid:
			s.Metrics.CaptureResult("replayed")
			return current, nil
		case current.OrderStatus == models.OrderCapturing:
			s.Metrics.CaptureResult("in_flight")
			return nil, newErr(ErrInFlight, "Payment capture already in progress for this order")
		}
		s.Metrics.CaptureResult("rejected")
		return nil, newErr(ErrConflict, "Order can no longer be captured")
	}

	confirmed, err := s.Repo.CompleteCapture(ctx, orderID, paymentID, payerID)
	if err != nil {
		if ferr := s.Repo.MarkCaptureFailed(context.WithoutCancel(ctx), orderID); ferr != nil {
			l.Error("mark_capture_failed_error", "error", ferr)
		}
		s.Metrics.CaptureResult("failed")
		return nil, captureErr(err)
	}

	s.Metrics.CaptureResult("confirmed")
	publish(ctx, s.Events, mykafka.TopicOrderEvents, orderID.String(), "order_confirmed", map[string]any{
		"orderId":   orderID.String(),
		"userId":    confirmed.UserID.String(),
		"paymentId": paymentID,
		"payerId":   payerID,
	})
	return confirmed, nil
}

func captureErr(err error) error {
	var se *repo.StockError
	switch {
	case errors.As(err, &se) && se.Missing:
		return wrapErr(ErrNotFound, err, "Product not found during stock update")
	case errors.As(err, &se):
		return wrapErr(ErrInsufficientStock, err, "Not enough stock for product %s", se.Title)
	case errors.Is(err, repo.ErrNotTransitable):
		return wrapErr(ErrConflict, err, "Order can no longer be captured")
	}
	return err
}

func (s *OrderService) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	orders, err := s.Repo.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, newErr(ErrNotFound, "No orders found!")
	}
	return orders, nil
}

func (s *OrderService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, wrapErr(ErrNotFound, err, "Order not found!")
		}
		return nil, err
	}
	if !actor.Owns(order.UserID) {
		// Hide other users' orders rather than confirm they exist.
		return nil, newErr(ErrNotFound, "Order not found!")
	}
	return order, nil
}

func (s *OrderService) ListAll(ctx context.Context, offset, limit int) (int64, []models.Order, error) {
	total, orders, err := s.Repo.ListOrders(ctx, offset, limit)
	if err != nil {
		return 0, nil, err
	}
	if len(orders) == 0 {
		return 0, nil, newErr(ErrNotFound, "No orders found!")
	}
	return total, orders, nil
}

var adminStatuses = map[models.OrderStatus]bool{
	models.OrderPending:    true,
	models.OrderConfirmed:  true,
	models.OrderInProcess:  true,
	models.OrderInShipping: true,
	models.OrderDelivered:  true,
	models.OrderRejected:   true,
}

func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	if !adminStatuses[status] {
		return nil, newErr(ErrValidation, "Invalid order status %q", status)
	}
	order, err := s.Repo.UpdateOrderStatus(ctx, id, status)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, wrapErr(ErrNotFound, err, "Order not found!")
		}
		if errors.Is(err, repo.ErrNotTransitable) {
			return nil, wrapErr(ErrConflict, err, "Order status %s does not match its payment state", status)
		}
		return nil, err
	}
	publish(ctx, s.Events, mykafka.TopicOrderEvents, id.String(), "order_status_updated", map[string]any{
		"orderId":     id.String(),
		"orderStatus": string(status),
	})
	return order, nil
}
