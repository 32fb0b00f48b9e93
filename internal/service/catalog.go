package service

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/mykafka"
	"github.com/Skotchmaster/shop_api/internal/repo"
	"github.com/Skotchmaster/shop_api/pkg/logging"
)

type CatalogService struct {
	Repo   *repo.GormRepo
	Index  ProductIndexer
	Events Publisher
	Blobs  BlobStore
}

// ProductPatch carries the fields an admin edit may change; nil means unchanged.
type ProductPatch struct {
	Image       *string
	Title       *string
	Description *string
	Category    *string
	Brand       *string
	Price       *float64
	SalePrice   *float64
	TotalStock  *int
}

func (p ProductPatch) columns() map[string]any {
	out := map[string]any{}
	if p.Image != nil {
		out["image"] = *p.Image
	}
	if p.Title != nil {
		out["title"] = *p.Title
	}
	if p.Description != nil {
		out["description"] = *p.Description
	}
	if p.Category != nil {
		out["category"] = *p.Category
	}
	if p.Brand != nil {
		out["brand"] = *p.Brand
	}
	if p.Price != nil {
		out["price"] = *p.Price
	}
	if p.SalePrice != nil {
		out["sale_price"] = *p.SalePrice
	}
	if p.TotalStock != nil {
		out["total_stock"] = *p.TotalStock
	}
	return out
}

func (s *CatalogService) ListProducts(ctx context.Context, f repo.ProductFilter) ([]models.Product, error) {
	return s.Repo.ListProducts(ctx, f)
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, wrapErr(ErrNotFound, err, "Product not found!")
		}
		return nil, err
	}
	return p, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, p *models.Product) error {
	if err := validateProduct(p.Title, p.Price, p.SalePrice, p.TotalStock); err != nil {
		return err
	}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return err
	}
	reindex(ctx, s.Index, *p)
	publish(ctx, s.Events, mykafka.TopicProductEvents, p.ID.String(), "product_created", productPayload(*p))
	return nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, patch ProductPatch) (*models.Product, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, newErr(ErrValidation, "title cannot be empty")
	}
	if (patch.Price != nil && *patch.Price < 0) || (patch.SalePrice != nil && *patch.SalePrice < 0) {
		return nil, newErr(ErrValidation, "price cannot be negative")
	}
	if patch.TotalStock != nil && *patch.TotalStock < 0 {
		return nil, newErr(ErrValidation, "totalStock cannot be negative")
	}

	p, err := s.Repo.UpdateProduct(ctx, id, patch.columns())
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, wrapErr(ErrNotFound, err, "Product not found")
		}
		return nil, err
	}
	reindex(ctx, s.Index, *p)
	publish(ctx, s.Events, mykafka.TopicProductEvents, p.ID.String(), "product_updated", productPayload(*p))
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		if repo.IsNotFound(err) {
			return wrapErr(ErrNotFound, err, "Product not found")
		}
		return err
	}
	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search_index_delete_failed", "product_id", id, "error", err)
		}
	}
	publish(ctx, s.Events, mykafka.TopicProductEvents, id.String(), "product_deleted", map[string]any{"id": id.String()})
	return nil
}

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

func (s *CatalogService) UploadImage(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	if s.Blobs == nil {
		return "", newErr(ErrValidation, "Image upload is not configured")
	}
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if !imageTypes[ct] {
		return "", newErr(ErrValidation, "Unsupported image type %q", contentType)
	}
	url, err := s.Blobs.Upload(ctx, filepath.Base(filename), ct, body)
	if err != nil {
		return "", wrapErr(ErrUpstream, err, "Error occured while uploading image")
	}
	return url, nil
}

func reindex(ctx context.Context, idx ProductIndexer, p models.Product) {
	if idx == nil {
		return
	}
	if err := idx.IndexProduct(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("search_index_failed", "product_id", p.ID, "error", err)
	}
}

func validateProduct(title string, price, salePrice float64, stock int) error {
	if strings.TrimSpace(title) == "" {
		return newErr(ErrValidation, "title is required")
	}
	if price < 0 || salePrice < 0 {
		return newErr(ErrValidation, "price cannot be negative")
	}
	if stock < 0 {
		return newErr(ErrValidation, "totalStock cannot be negative")
	}
	return nil
}

func productPayload(p models.Product) map[string]any {
	return map[string]any{
		"id":         p.ID.String(),
		"title":      p.Title,
		"category":   p.Category,
		"brand":      p.Brand,
		"price":      p.Price,
		"salePrice":  p.SalePrice,
		"totalStock": p.TotalStock,
	}
}
