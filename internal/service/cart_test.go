package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/testutil"
)

func TestCartService_AddTwiceSumsQuantity(t *testing.T) {
	r, db := newRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()
	user := testutil.SeedUser(t, db, "c@example.com", models.RoleUser)
	p := testutil.SeedProduct(t, db, "Cap", 12, 10)

	_, err := svc.Add(ctx, user.ID, p.ID, 2)
	require.NoError(t, err)
	view, err := svc.Add(ctx, user.ID, p.ID, 3)
	require.NoError(t, err)

	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.Items[0].Quantity)
	assert.Equal(t, "Cap", view.Items[0].Title)
	assert.Equal(t, user.ID, view.UserID)
}

func TestCartService_Errors(t *testing.T) {
	r, db := newRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()
	user := testutil.SeedUser(t, db, "c@example.com", models.RoleUser)
	p := testutil.SeedProduct(t, db, "Cap", 12, 10)

	_, err := svc.Add(ctx, user.ID, uuid.New(), 1)
	requireKind(t, err, ErrNotFound, "Product not found")

	_, err = svc.Add(ctx, user.ID, p.ID, 0)
	requireKind(t, err, ErrValidation, "")

	_, err = svc.Get(ctx, user.ID)
	requireKind(t, err, ErrNotFound, "Cart not found!")

	_, err = svc.Update(ctx, user.ID, p.ID, 4)
	requireKind(t, err, ErrNotFound, "Cart not found!")

	_, err = svc.Add(ctx, user.ID, p.ID, 1)
	require.NoError(t, err)
	_, err = svc.Update(ctx, user.ID, uuid.New(), 4)
	requireKind(t, err, ErrNotFound, "Cart item not present!")

	view, err := svc.Update(ctx, user.ID, p.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, view.Items[0].Quantity)
}

func TestCartService_RemoveAbsentLineIsNotAnError(t *testing.T) {
	r, db := newRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()
	user := testutil.SeedUser(t, db, "c@example.com", models.RoleUser)
	p := testutil.SeedProduct(t, db, "Cap", 12, 10)
	_, err := svc.Add(ctx, user.ID, p.ID, 1)
	require.NoError(t, err)

	view, err := svc.Remove(ctx, user.ID, uuid.New())
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)

	view, err = svc.Remove(ctx, user.ID, p.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	_, err = svc.Remove(ctx, uuid.New(), p.ID)
	requireKind(t, err, ErrNotFound, "Cart not found!")
}

func TestCartService_GetDropsDeletedProducts(t *testing.T) {
	r, db := newRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()
	user := testutil.SeedUser(t, db, "c@example.com", models.RoleUser)
	keep := testutil.SeedProduct(t, db, "Keep", 1, 10)
	gone := testutil.SeedProduct(t, db, "Gone", 1, 10)

	_, err := svc.Add(ctx, user.ID, keep.ID, 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, user.ID, gone.ID, 1)
	require.NoError(t, err)
	require.NoError(t, r.DeleteProduct(ctx, gone.ID))

	view, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, keep.ID, view.Items[0].ProductID)

	var n int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("product_id = ?", gone.ID).Count(&n).Error)
	assert.Zero(t, n)
}
