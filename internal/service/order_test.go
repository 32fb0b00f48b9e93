package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/metrics"
	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/testutil"
)

type orderFixture struct {
	svc   *OrderService
	db    *gorm.DB
	gw    *fakeGateway
	pub   *fakePublisher
	user  models.User
	shirt models.Product
	shoe  models.Product
	cart  *models.Cart
}

func newOrderFixture(t *testing.T, shirtStock, shoeStock int) *orderFixture {
	t.Helper()
	r, db := newRepo(t)
	f := &orderFixture{
		db:    db,
		gw:    &fakeGateway{},
		pub:   &fakePublisher{},
		user:  testutil.SeedUser(t, db, "buyer@example.com", models.RoleUser),
		shirt: testutil.SeedProduct(t, db, "Shirt", 10.50, shirtStock),
		shoe:  testutil.SeedProduct(t, db, "Shoe", 40, shoeStock),
	}
	f.svc = &OrderService{
		Repo:          r,
		Gateway:       f.gw,
		Events:        f.pub,
		Metrics:       metrics.New(prometheus.NewRegistry()),
		ClientBaseURL: "http://localhost:5173/",
	}

	ctx := context.Background()
	_, err := r.AddToCart(ctx, f.user.ID, f.shirt.ID, 2)
	require.NoError(t, err)
	f.cart, err = r.AddToCart(ctx, f.user.ID, f.shoe.ID, 1)
	require.NoError(t, err)
	return f
}

func (f *orderFixture) input() CreateOrderInput {
	return CreateOrderInput{
		UserID: f.user.ID,
		CartID: f.cart.ID,
		Items: []OrderLineInput{
			{ProductID: f.shirt.ID, Title: f.shirt.Title, Price: 10.50, Quantity: 2},
			{ProductID: f.shoe.ID, Title: f.shoe.Title, Price: 40, Quantity: 1},
		},
		Address:       models.AddressInfo{Address: "1 Main St", City: "Springfield", Pincode: "12345", Phone: "555", Notes: "door"},
		PaymentMethod: "paypal",
		TotalAmount:   61,
	}
}

func (f *orderFixture) owner() Actor { return Actor{UserID: f.user.ID} }

func TestOrderCreate_PersistsPendingOrder(t *testing.T) {
	f := newOrderFixture(t, 5, 5)

	res, err := f.svc.Create(context.Background(), f.input())
	require.NoError(t, err)
	assert.Equal(t, "https://paypal.test/approve?token=EC-1", res.ApprovalURL)

	require.Len(t, f.gw.calls, 1)
	call := f.gw.calls[0]
	assert.Equal(t, "61.00", call.Total.StringFixed(2))
	assert.Equal(t, "USD", call.Currency)
	assert.Equal(t, "http://localhost:5173/shop/paypal-return", call.ReturnURL)
	assert.Equal(t, "http://localhost:5173/shop/paypal-cancel", call.CancelURL)
	require.Len(t, call.Items, 2)

	order, err := f.svc.Get(context.Background(), f.owner(), res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, order.OrderStatus)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.Equal(t, "PAY-1", order.PaymentID)
	assert.InDelta(t, 61.0, order.TotalAmount, 0.0001)
	require.Len(t, order.CartItems, 2)
	assert.Equal(t, f.shirt.ID, order.CartItems[0].ProductID)
	assert.Equal(t, "Springfield", order.AddressInfo.City)
	assert.Equal(t, []string{"order_created"}, f.pub.types())
}

func TestOrderCreate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CreateOrderInput)
	}{
		{"empty items", func(in *CreateOrderInput) { in.Items = nil }},
		{"zero quantity", func(in *CreateOrderInput) { in.Items[0].Quantity = 0 }},
		{"nil product", func(in *CreateOrderInput) { in.Items[0].ProductID = uuid.Nil }},
		{"total mismatch", func(in *CreateOrderInput) { in.TotalAmount = 1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newOrderFixture(t, 5, 5)
			in := f.input()
			tc.mutate(&in)

			_, err := f.svc.Create(context.Background(), in)
			requireKind(t, err, ErrValidation, "")
			assert.Empty(t, f.gw.calls)
		})
	}
}

func TestOrderCreate_ToleratesCentRounding(t *testing.T) {
	f := newOrderFixture(t, 5, 5)
	in := f.input()
	in.TotalAmount = 61.004

	_, err := f.svc.Create(context.Background(), in)
	require.NoError(t, err)
}

func TestOrderCreate_GatewayFailureStoresNothing(t *testing.T) {
	f := newOrderFixture(t, 5, 5)
	f.gw.err = errors.New("paypal down")

	_, err := f.svc.Create(context.Background(), f.input())
	requireKind(t, err, ErrPaymentGateway, "Error while creating PayPal payment")

	var n int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestOrderCreate_PricesFromCatalog(t *testing.T) {
	f := newOrderFixture(t, 5, 5)
	ctx := context.Background()

	in := f.input()
	in.Items[0].Price = 0.01
	in.TotalAmount = 40.02
	_, err := f.svc.Create(ctx, in)
	requireKind(t, err, ErrValidation, "")
	assert.Empty(t, f.gw.calls)

	in.TotalAmount = 61
	res, err := f.svc.Create(ctx, in)
	require.NoError(t, err)
	require.Len(t, f.gw.calls, 1)
	assert.Equal(t, "61.00", f.gw.calls[0].Total.StringFixed(2))
	assert.Equal(t, "10.5", f.gw.calls[0].Items[0].Price.String())

	order, err := f.svc.Repo.GetOrder(ctx, res.OrderID)
	require.NoError(t, err)
	assert.InDelta(t, 10.50, order.CartItems[0].Price, 0.0001)
	assert.Equal(t, "Shirt", order.CartItems[0].Title)
}

func TestOrderCreate_UsesSalePrice(t *testing.T) {
	f := newOrderFixture(t, 5, 5)
	require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", f.shoe.ID).Update("sale_price", 30).Error)

	in := f.input()
	in.TotalAmount = 51
	_, err := f.svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "51.00", f.gw.calls[0].Total.StringFixed(2))
}

func TestOrderCreate_UnknownProduct(t *testing.T) {
	f := newOrderFixture(t, 5, 5)
	in := f.input()
	in.Items[1].ProductID = uuid.New()

	_, err := f.svc.Create(context.Background(), in)
	requireKind(t, err, ErrNotFound, "Product not found!")
	assert.Empty(t, f.gw.calls)
}

func TestOrderCreate_RejectsForeignCart(t *testing.T) {
	f := newOrderFixture(t, 5, 5)
	ctx := context.Background()
	other := testutil.SeedUser(t, f.db, "other@example.com", models.RoleUser)
	otherCart, err := f.svc.Repo.AddToCart(ctx, other.ID, f.shirt.ID, 1)
	require.NoError(t, err)

	in := f.input()
	in.CartID = otherCart.ID
	_, err = f.svc.Create(ctx, in)
	requireKind(t, err, ErrForbidden, "")
	assert.Empty(t, f.gw.calls)

	cart, err := f.svc.Repo.GetCartByUser(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}

func TestOrderCapture_DecrementsStockAndDeletesCart(t *testing.T) {
	f := newOrderFixture(t, 5, 3)
	ctx := context.Background()
	res, err := f.svc.Create(ctx, f.input())
	require.NoError(t, err)

	order, err := f.svc.Capture(ctx, f.owner(), res.OrderID, "PAY-1", "PAYER-9")
	require.NoError(t, err)
	assert.Equal(t, models.OrderConfirmed, order.OrderStatus)
	assert.Equal(t, models.PaymentPaid, order.PaymentStatus)
	assert.Equal(t, "PAYER-9", order.PayerID)

	assert.Equal(t, 3, stockOf(t, f.db, f.shirt.ID))
	assert.Equal(t, 2, stockOf(t, f.db, f.shoe.ID))

	_, err = f.svc.Repo.GetCartByUser(ctx, f.user.ID)
	assert.Error(t, err)
	assert.Equal(t, []string{"order_created", "order_confirmed"}, f.pub.types())
}

func TestOrderCapture_RetryIsIdempotent(t *testing.T) {
	f := newOrderFixture(t, 5, 3)
	ctx := context.Background()
	res, err := f.svc.Create(ctx, f.input())
	require.NoError(t, err)

	_, err = f.svc.Capture(ctx, f.owner(), res.OrderID, "PAY-1", "PAYER-9")
	require.NoError(t, err)
	again, err := f.svc.Capture(ctx, f.owner(), res.OrderID, "PAY-1", "PAYER-9")
	require.NoError(t, err)

	assert.Equal(t, models.OrderConfirmed, again.OrderStatus)
	assert.Equal(t, 3, stockOf(t, f.db, f.shirt.ID))
	assert.Equal(t, 2, stockOf(t, f.db, f.shoe.ID))
}

func TestOrderCapture_InsufficientStockRollsBack(t *testing.T) {
	f := newOrderFixture(t, 5, 0)
	ctx := context.Background()
	res, err := f.svc.Create(ctx, f.input())
	require.NoError(t, err)

	_, err = f.svc.Capture(ctx, f.owner(), res.OrderID, "PAY-1", "PAYER-9")
	requireKind(t, err, ErrInsufficientStock, "Not enough stock for product Shoe")

	assert.Equal(t, 5, stockOf(t, f.db, f.shirt.ID))
	assert.Equal(t, 0, stockOf(t, f.db, f.shoe.ID))

	cart, err := f.svc.Repo.GetCartByUser(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)

	order, err := f.svc.Repo.GetOrder(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderFailed, order.OrderStatus)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
}

func TestOrderCapture_MissingProduct(t *testing.T) {
	f := newOrderFixture(t, 5, 5)
	ctx := context.Background()
	res, err := f.svc.Create(ctx, f.input())
	require.NoError(t, err)
	require.NoError(t, f.svc.Repo.DeleteProduct(ctx, f.shoe.ID))

	_, err = f.svc.Capture(ctx, f.owner(), res.OrderID, "PAY-1", "PAYER-9")
	requireKind(t, err, ErrNotFound, "Product not found during stock update")
}

func TestOrderCapture_InFlight(t *testing.T) {
	f := newOrderFixture(t, 5, 5)
	ctx := context.Background()
	res, err := f.svc.Create(ctx, f.input())
	require.NoError(t, err)

	claimed, err := f.svc.Repo.ClaimCapture(ctx, res.OrderID)
	require.NoError(t, err)
	require.True(t, claimed)

	_, err = f.svc.Capture(ctx, f.owner(), res.OrderID, "PAY-1", "PAYER-9")
	requireKind(t, err, ErrInFlight, "")
	assert.Equal(t, 5, stockOf(t, f.db, f.shirt.ID))
}

func TestOrderCapture_Guards(t *testing.T) {
	f := newOrderFixture(t, 5, 5)
	ctx := context.Background()
	res, err := f.svc.Create(ctx, f.input())
	require.NoError(t, err)

	_, err = f.svc.Capture(ctx, f.owner(), uuid.New(), "PAY-1", "PAYER-9")
	requireKind(t, err, ErrNotFound, "Order cannot be found")

	_, err = f.svc.Capture(ctx, Actor{UserID: uuid.New()}, res.OrderID, "PAY-1", "PAYER-9")
	requireKind(t, err, ErrForbidden, "")

	_, err = f.svc.Capture(ctx, f.owner(), res.OrderID, "PAY-OTHER", "PAYER-9")
	requireKind(t, err, ErrValidation, "")

	_, err = f.svc.Capture(ctx, f.owner(), res.OrderID, "PAY-1", "")
	requireKind(t, err, ErrValidation, "")

	_, err = f.svc.Capture(ctx, Actor{UserID: uuid.New(), Admin: true}, res.OrderID, "PAY-1", "PAYER-9")
	require.NoError(t, err)
}

func TestOrderQueries(t *testing.T) {
	f := newOrderFixture(t, 5, 5)
	ctx := context.Background()

	_, err := f.svc.ListByUser(ctx, f.user.ID)
	requireKind(t, err, ErrNotFound, "No orders found!")
	_, _, err = f.svc.ListAll(ctx, 0, 10)
	requireKind(t, err, ErrNotFound, "No orders found!")

	res, err := f.svc.Create(ctx, f.input())
	require.NoError(t, err)

	orders, err := f.svc.ListByUser(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	total, all, err := f.svc.ListAll(ctx, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, all, 1)

	_, err = f.svc.Get(ctx, Actor{UserID: uuid.New()}, res.OrderID)
	requireKind(t, err, ErrNotFound, "Order not found!")
}

func TestOrderUpdateStatus(t *testing.T) {
	f := newOrderFixture(t, 5, 5)
	ctx := context.Background()
	res, err := f.svc.Create(ctx, f.input())
	require.NoError(t, err)

	order, err := f.svc.UpdateStatus(ctx, res.OrderID, models.OrderInShipping)
	require.NoError(t, err)
	assert.Equal(t, models.OrderInShipping, order.OrderStatus)

	_, err = f.svc.UpdateStatus(ctx, res.OrderID, models.OrderCapturing)
	requireKind(t, err, ErrValidation, "")

	_, err = f.svc.UpdateStatus(ctx, uuid.New(), models.OrderDelivered)
	requireKind(t, err, ErrNotFound, "Order not found!")
}

func TestOrderCapture_AdminConfirmDoesNotSkipPayment(t *testing.T) {
	f := newOrderFixture(t, 5, 3)
	ctx := context.Background()
	res, err := f.svc.Create(ctx, f.input())
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, res.OrderID, models.OrderConfirmed)
	requireKind(t, err, ErrConflict, "")

	order, err := f.svc.Capture(ctx, f.owner(), res.OrderID, "PAY-1", "PAYER-9")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, order.PaymentStatus)
	assert.Equal(t, 3, stockOf(t, f.db, f.shirt.ID))
	assert.Equal(t, 2, stockOf(t, f.db, f.shoe.ID))
}

func TestOrderCapture_AdminStatusChangesDoNotRecapture(t *testing.T) {
	f := newOrderFixture(t, 5, 3)
	ctx := context.Background()
	res, err := f.svc.Create(ctx, f.input())
	require.NoError(t, err)
	_, err = f.svc.Capture(ctx, f.owner(), res.OrderID, "PAY-1", "PAYER-9")
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, res.OrderID, models.OrderPending)
	requireKind(t, err, ErrConflict, "")

	_, err = f.svc.UpdateStatus(ctx, res.OrderID, models.OrderDelivered)
	require.NoError(t, err)

	again, err := f.svc.Capture(ctx, f.owner(), res.OrderID, "PAY-1", "PAYER-9")
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, again.OrderStatus)
	assert.Equal(t, models.PaymentPaid, again.PaymentStatus)
	assert.Equal(t, 3, stockOf(t, f.db, f.shirt.ID))
	assert.Equal(t, 2, stockOf(t, f.db, f.shoe.ID))
}

func TestOrderCapture_UnpaidOrderMovedOnIsNotCapturable(t *testing.T) {
	f := newOrderFixture(t, 5, 3)
	ctx := context.Background()
	res, err := f.svc.Create(ctx, f.input())
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, res.OrderID, models.OrderRejected)
	require.NoError(t, err)

	_, err = f.svc.Capture(ctx, f.owner(), res.OrderID, "PAY-1", "PAYER-9")
	requireKind(t, err, ErrConflict, "Order can no longer be captured")
	assert.Equal(t, 5, stockOf(t, f.db, f.shirt.ID))
}
