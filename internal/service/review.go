package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Skotchmaster/shop_api/internal/metrics"
	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/mykafka"
	"github.com/Skotchmaster/shop_api/internal/repo"
)

type ReviewService struct {
	Repo    *repo.GormRepo
	Index   ProductIndexer
	Events  Publisher
	Metrics *metrics.Metrics
}

// Add stores the review and folds it into the product's average in one transaction.
func (s *ReviewService) Add(ctx context.Context, r *models.Review) (*models.Product, error) {
	if r.ReviewValue < 1 || r.ReviewValue > 5 {
		return nil, newErr(ErrValidation, "reviewValue must be between 1 and 5")
	}

	product, err := s.Repo.CreateReview(ctx, r)
	switch {
	case err == nil:
	case errors.Is(err, repo.ErrNotPurchased):
		return nil, wrapErr(ErrForbidden, err, "You need to purchase product to review it.")
	case repo.IsDuplicate(err):
		return nil, wrapErr(ErrConflict, err, "You already reviewed this product!")
	case repo.IsNotFound(err):
		return nil, wrapErr(ErrNotFound, err, "Product not found")
	default:
		return nil, err
	}

	s.Metrics.ReviewCreated()
	reindex(ctx, s.Index, *product)
	publish(ctx, s.Events, mykafka.TopicReviewEvents, r.ProductID.String(), "review_created", map[string]any{
		"reviewId":      r.ID.String(),
		"productId":     r.ProductID.String(),
		"userId":        r.UserID.String(),
		"reviewValue":   r.ReviewValue,
		"averageReview": product.AverageReview,
	})
	return product, nil
}

func (s *ReviewService) List(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {
	return s.Repo.ListReviews(ctx, productID)
}
