package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/models"
)

// StockError reports the line item that stopped a capture.
type StockError struct {
	ProductID uuid.UUID
	Title     string
	Missing   bool
}

func (e *StockError) Error() string {
	if e.Missing {
		return fmt.Sprintf("product %s not found", e.ProductID)
	}
	return fmt.Sprintf("not enough stock for product %s", e.Title)
}

func (e *StockError) Unwrap() error {
	if e.Missing {
		return ErrNotFound
	}
	return ErrInsufficient
}

func orderedLines(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Create(order).Error
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return getOrder(r.DB.WithContext(ctx), id)
}

func getOrder(db *gorm.DB, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := db.Preload("CartItems", orderedLines).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).
		Preload("CartItems", orderedLines).
		Where("user_id = ?", userID).
		Order("order_date DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, offset, limit int) (int64, []models.Order, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var orders []models.Order
	if err := r.DB.WithContext(ctx).
		Preload("CartItems", orderedLines).
		Order("order_date DESC").
		Offset(offset).
		Limit(limit).
		Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

// UpdateOrderStatus sets an admin-chosen status. It returns ErrNotTransitable while a
// capture is running, or when pending/confirmed would contradict the payment status.
func (r *GormRepo) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	var out *models.Order
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.Order{}).Where("id = ? AND order_status <> ?", id, models.OrderCapturing)
		switch status {
		case models.OrderPending:
			q = q.Where("payment_status = ?", models.PaymentPending)
		case models.OrderConfirmed:
			q = q.Where("payment_status = ?", models.PaymentPaid)
		}
		res := q.Updates(map[string]any{
			"order_status":      status,
			"order_update_date": tx.NowFunc(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if _, err := getOrder(tx, id); err != nil {
				return err
			}
			return ErrNotTransitable
		}
		var err error
		out, err = getOrder(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ClaimCapture moves an unpaid pending or failed order to capturing. False means another
// caller owns the order or it is no longer capturable.
func (r *GormRepo) ClaimCapture(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND payment_status = ? AND order_status IN ?",
			id, models.PaymentPending, []models.OrderStatus{models.OrderPending, models.OrderFailed}).
		Updates(map[string]any{
			"order_status":      models.OrderCapturing,
			"order_update_date": r.DB.NowFunc(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CompleteCapture decrements stock for every line, deletes the cart and confirms the
// order in one transaction. Any *StockError rolls everything back.
func (r *GormRepo) CompleteCapture(ctx context.Context, id uuid.UUID, paymentID, payerID string) (*models.Order, error) {
	var out *models.Order
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := getOrder(tx, id)
		if err != nil {
			return err
		}
		if order.OrderStatus != models.OrderCapturing {
			return ErrNotTransitable
		}

		for _, line := range order.CartItems {
			if err := decrementStock(tx, line); err != nil {
				return err
			}
		}

		if order.CartID != uuid.Nil {
			if err := deleteCart(tx, order.CartID, order.UserID); err != nil {
				return err
			}
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND order_status = ?", id, models.OrderCapturing).
			Updates(map[string]any{
				"order_status":      models.OrderConfirmed,
				"payment_status":    models.PaymentPaid,
				"payment_id":        paymentID,
				"payer_id":          payerID,
				"order_update_date": tx.NowFunc(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotTransitable
		}

		out, err = getOrder(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func decrementStock(tx *gorm.DB, line models.OrderItem) error {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND total_stock >= ?", line.ProductID, line.Quantity).
		Update("total_stock", gorm.Expr("total_stock - ?", line.Quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var product models.Product
	if err := tx.Select("id", "title").Where("id = ?", line.ProductID).First(&product).Error; err != nil {
		if IsNotFound(err) {
			return &StockError{ProductID: line.ProductID, Title: line.Title, Missing: true}
		}
		return err
	}
	return &StockError{ProductID: line.ProductID, Title: product.Title}
}

// MarkCaptureFailed releases a capturing order so the client may retry.
func (r *GormRepo) MarkCaptureFailed(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND order_status = ?", id, models.OrderCapturing).
		Updates(map[string]any{
			"order_status":      models.OrderFailed,
			"order_update_date": r.DB.NowFunc(),
		}).Error
}

func (r *GormRepo) HasPurchased(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	return hasPurchased(r.DB.WithContext(ctx), userID, productID)
}

func hasPurchased(db *gorm.DB, userID, productID uuid.UUID) (bool, error) {
	var count int64
	err := db.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND order_items.product_id = ?", userID, productID).
		Count(&count).Error
	return count > 0, err
}
