package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/models"
)

var ErrNotPurchased = errors.New("product not purchased by user")

// CreateReview inserts the review and folds its value into the product's running mean.
// It returns ErrNotPurchased, ErrDuplicate or gorm.ErrRecordNotFound for a missing product.
func (r *GormRepo) CreateReview(ctx context.Context, review *models.Review) (*models.Product, error) {
	var product models.Product
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := hasPurchased(tx, review.UserID, review.ProductID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotPurchased
		}

		var existing int64
		if err := tx.Model(&models.Review{}).
			Where("product_id = ? AND user_id = ?", review.ProductID, review.UserID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrDuplicate
		}

		if err := tx.Create(review).Error; err != nil {
			return err
		}

		// Right-hand sides read the pre-update row.
		res := tx.Model(&models.Product{}).Where("id = ?", review.ProductID).Updates(map[string]any{
			"review_count":   gorm.Expr("review_count + 1"),
			"review_sum":     gorm.Expr("review_sum + ?", review.ReviewValue),
			"average_review": gorm.Expr("(review_sum + ?) / (review_count + 1)", float64(review.ReviewValue)),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Where("id = ?", review.ProductID).First(&product).Error
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) ListReviews(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {
	reviews := make([]models.Review, 0)
	if err := r.DB.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}
