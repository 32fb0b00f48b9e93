package service

import (
	"context"
	"strings"

	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/repo"
)

type FeatureService struct {
	Repo *repo.GormRepo
}

func (s *FeatureService) Add(ctx context.Context, image string) (*models.FeatureImage, error) {
	if strings.TrimSpace(image) == "" {
		return nil, newErr(ErrValidation, "Image is required")
	}
	f := models.FeatureImage{Image: strings.TrimSpace(image)}
	if err := s.Repo.CreateFeatureImage(ctx, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *FeatureService) List(ctx context.Context) ([]models.FeatureImage, error) {
	return s.Repo.ListFeatureImages(ctx)
}
