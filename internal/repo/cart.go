package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/models"
)

var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrCartItemNotFound = errors.New("cart item not found")
)

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC").Order("id ASC")
}

func (r *GormRepo) GetCartByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return getCartByUser(r.DB.WithContext(ctx), userID)
}

func getCartByUser(db *gorm.DB, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := db.Preload("Items", orderedItems).Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddToCart creates the cart on first use, then increments the line or appends it.
func (r *GormRepo) AddToCart(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.Cart, error) {
	var out *models.Cart
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart := models.Cart{UserID: userID}
		if err := tx.Where("user_id = ?", userID).FirstOrCreate(&cart).Error; err != nil {
			return err
		}

		res := tx.Model(&models.CartItem{}).
			Where("cart_id = ? AND product_id = ?", cart.ID, productID).
			Update("quantity", gorm.Expr("quantity + ?", quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			item := models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: quantity}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&cart).Update("updated_at", tx.NowFunc()).Error; err != nil {
			return err
		}

		var err error
		out, err = getCartByUser(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepo) SetCartItemQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.Cart, error) {
	var out *models.Cart
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := getCartByUser(tx, userID)
		if err != nil {
			return err
		}

		res := tx.Model(&models.CartItem{}).
			Where("cart_id = ? AND product_id = ?", cart.ID, productID).
			Update("quantity", quantity)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCartItemNotFound
		}

		out, err = getCartByUser(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveCartItem reports whether a line was actually removed.
func (r *GormRepo) RemoveCartItem(ctx context.Context, userID, productID uuid.UUID) (*models.Cart, bool, error) {
	var (
		out     *models.Cart
		removed bool
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := getCartByUser(tx, userID)
		if err != nil {
			return err
		}

		res := tx.Where("cart_id = ? AND product_id = ?", cart.ID, productID).Delete(&models.CartItem{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected > 0

		out, err = getCartByUser(tx, userID)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return out, removed, nil
}

func (r *GormRepo) RemoveCartItems(ctx context.Context, cartID uuid.UUID, productIDs []uuid.UUID) error {
	if len(productIDs) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).
		Where("cart_id = ? AND product_id IN ?", cartID, productIDs).
		Delete(&models.CartItem{}).Error
}

// deleteCart removes the cart only when it belongs to userID.
func deleteCart(tx *gorm.DB, cartID, userID uuid.UUID) error {
	var n int64
	if err := tx.Model(&models.Cart{}).Where("id = ? AND user_id = ?", cartID, userID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ? AND user_id = ?", cartID, userID).Delete(&models.Cart{}).Error
}
