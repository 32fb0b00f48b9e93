package repo

import (
	"context"

	"github.com/Skotchmaster/shop_api/internal/models"
)

func (r *GormRepo) CreateFeatureImage(ctx context.Context, f *models.FeatureImage) error {
	return r.DB.WithContext(ctx).Create(f).Error
}

func (r *GormRepo) ListFeatureImages(ctx context.Context) ([]models.FeatureImage, error) {
	out := make([]models.FeatureImage, 0)
	if err := r.DB.WithContext(ctx).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
