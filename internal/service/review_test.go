package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/metrics"
	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/testutil"
)

func purchase(t *testing.T, db *gorm.DB, userID, productID uuid.UUID) {
	t.Helper()
	now := time.Now().UTC()
	o := models.Order{
		UserID:          userID,
		OrderStatus:     models.OrderConfirmed,
		PaymentStatus:   models.PaymentPaid,
		OrderDate:       now,
		OrderUpdateDate: now,
		CartItems:       []models.OrderItem{{ProductID: productID, Title: "x", Price: 1, Quantity: 1}},
	}
	require.NoError(t, db.Create(&o).Error)
}

func TestReviewService_Add(t *testing.T) {
	r, db := newRepo(t)
	pub := &fakePublisher{}
	idx := &fakeIndex{}
	svc := &ReviewService{Repo: r, Index: idx, Events: pub, Metrics: metrics.New(prometheus.NewRegistry())}
	ctx := context.Background()
	p := testutil.SeedProduct(t, db, "Boot", 90, 4)

	var last *models.Product
	for i, v := range []int{5, 4, 2, 4} {
		u := testutil.SeedUser(t, db, uuid.NewString()+"@example.com", models.RoleUser)
		purchase(t, db, u.ID, p.ID)
		var err error
		last, err = svc.Add(ctx, &models.Review{ProductID: p.ID, UserID: u.ID, UserName: u.UserName, ReviewValue: v, ReviewMessage: "ok"})
		require.NoError(t, err, "review %d", i)
	}
	assert.InDelta(t, 3.75, last.AverageReview, 1e-9)
	assert.Len(t, idx.indexed, 4)
	assert.Len(t, pub.events, 4)

	reviews, err := svc.List(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, reviews, 4)
}

func TestReviewService_Gates(t *testing.T) {
	r, db := newRepo(t)
	svc := &ReviewService{Repo: r}
	ctx := context.Background()
	p := testutil.SeedProduct(t, db, "Boot", 90, 4)
	u := testutil.SeedUser(t, db, "rev@example.com", models.RoleUser)

	_, err := svc.Add(ctx, &models.Review{ProductID: p.ID, UserID: u.ID, ReviewValue: 4})
	requireKind(t, err, ErrForbidden, "You need to purchase product to review it.")

	purchase(t, db, u.ID, p.ID)
	_, err = svc.Add(ctx, &models.Review{ProductID: p.ID, UserID: u.ID, ReviewValue: 4})
	require.NoError(t, err)

	_, err = svc.Add(ctx, &models.Review{ProductID: p.ID, UserID: u.ID, ReviewValue: 1})
	requireKind(t, err, ErrConflict, "You already reviewed this product!")

	_, err = svc.Add(ctx, &models.Review{ProductID: p.ID, UserID: u.ID, ReviewValue: 6})
	requireKind(t, err, ErrValidation, "")
}
