package repo

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/testutil"
)

func TestAddToCart_IncrementsExistingLine(t *testing.T) {
	db := testutil.InitTestDB(t)
	r := New(db)
	ctx := context.Background()

	u := testutil.SeedUser(t, db, "u1@x.io", models.RoleUser)
	p1 := testutil.SeedProduct(t, db, "p1", 10, 10)
	p2 := testutil.SeedProduct(t, db, "p2", 10, 10)

	cart, err := r.AddToCart(ctx, u.ID, p1.ID, 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)

	cart, err = r.AddToCart(ctx, u.ID, p1.ID, 3)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, p1.ID, cart.Items[0].ProductID)
	assert.Equal(t, 5, cart.Items[0].Quantity)

	cart, err = r.AddToCart(ctx, u.ID, p2.ID, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, p1.ID, cart.Items[0].ProductID)
	assert.Equal(t, p2.ID, cart.Items[1].ProductID)

	var carts int64
	require.NoError(t, db.Model(&models.Cart{}).Count(&carts).Error)
	assert.EqualValues(t, 1, carts)
}

func TestSetCartItemQuantity(t *testing.T) {
	db := testutil.InitTestDB(t)
	r := New(db)
	ctx := context.Background()

	u := testutil.SeedUser(t, db, "u1@x.io", models.RoleUser)
	p := testutil.SeedProduct(t, db, "p1", 10, 10)

	_, err := r.SetCartItemQuantity(ctx, u.ID, p.ID, 4)
	assert.ErrorIs(t, err, ErrCartNotFound)

	_, err = r.AddToCart(ctx, u.ID, p.ID, 1)
	require.NoError(t, err)

	_, err = r.SetCartItemQuantity(ctx, u.ID, uuid.New(), 4)
	assert.ErrorIs(t, err, ErrCartItemNotFound)

	cart, err := r.SetCartItemQuantity(ctx, u.ID, p.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Items[0].Quantity)
}

func TestRemoveCartItem(t *testing.T) {
	db := testutil.InitTestDB(t)
	r := New(db)
	ctx := context.Background()

	u := testutil.SeedUser(t, db, "u1@x.io", models.RoleUser)
	p := testutil.SeedProduct(t, db, "p1", 10, 10)

	_, err := r.AddToCart(ctx, u.ID, p.ID, 1)
	require.NoError(t, err)

	cart, removed, err := r.RemoveCartItem(ctx, u.ID, uuid.New())
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Len(t, cart.Items, 1)

	cart, removed, err = r.RemoveCartItem(ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Empty(t, cart.Items)
}
