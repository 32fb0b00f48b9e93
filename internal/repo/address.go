package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/models"
)

func (r *GormRepo) CreateAddress(ctx context.Context, a *models.Address) error {
	return r.DB.WithContext(ctx).Create(a).Error
}

func (r *GormRepo) ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	out := make([]models.Address, 0)
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepo) UpdateAddress(ctx context.Context, userID, id uuid.UUID, patch map[string]any) (*models.Address, error) {
	var a models.Address
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&a).Error; err != nil {
			return err
		}
		if len(patch) == 0 {
			return nil
		}
		if err := tx.Model(&a).Updates(patch).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&a).Error
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormRepo) DeleteAddress(ctx context.Context, userID, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Address{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
