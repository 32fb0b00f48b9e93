package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/repo"
)

type AddressService struct {
	Repo *repo.GormRepo
}

type AddressPatch struct {
	Address *string
	City    *string
	Pincode *string
	Phone   *string
	Notes   *string
}

func (s *AddressService) Add(ctx context.Context, a *models.Address) error {
	for _, v := range []string{a.Address, a.City, a.Pincode, a.Phone, a.Notes} {
		if strings.TrimSpace(v) == "" {
			return newErr(ErrValidation, "Invalid data provided!")
		}
	}
	return s.Repo.CreateAddress(ctx, a)
}

func (s *AddressService) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	return s.Repo.ListAddresses(ctx, userID)
}

func (s *AddressService) Update(ctx context.Context, userID, id uuid.UUID, p AddressPatch) (*models.Address, error) {
	patch := map[string]any{}
	for col, v := range map[string]*string{
		"address": p.Address,
		"city":    p.City,
		"pincode": p.Pincode,
		"phone":   p.Phone,
		"notes":   p.Notes,
	} {
		if v == nil {
			continue
		}
		if strings.TrimSpace(*v) == "" {
			return nil, newErr(ErrValidation, "%s cannot be empty", col)
		}
		patch[col] = *v
	}

	a, err := s.Repo.UpdateAddress(ctx, userID, id, patch)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, wrapErr(ErrNotFound, err, "Address not found")
		}
		return nil, err
	}
	return a, nil
}

func (s *AddressService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.Repo.DeleteAddress(ctx, userID, id); err != nil {
		if repo.IsNotFound(err) {
			return wrapErr(ErrNotFound, err, "Address not found")
		}
		return err
	}
	return nil
}
