package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/repo"
	"github.com/Skotchmaster/shop_api/pkg/logging"
)

type CartService struct {
	Repo *repo.GormRepo
}

type CartLine struct {
	ProductID uuid.UUID `json:"productId"`
	Image     string    `json:"image"`
	Title     string    `json:"title"`
	Price     float64   `json:"price"`
	SalePrice float64   `json:"salePrice"`
	Quantity  int       `json:"quantity"`
}

// CartView is the cart as the storefront renders it, joined with live product data.
type CartView struct {
	ID     uuid.UUID  `json:"id"`
	UserID uuid.UUID  `json:"userId"`
	Items  []CartLine `json:"items"`
}

func (s *CartService) Add(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartView, error) {
	if quantity <= 0 {
		return nil, newErr(ErrValidation, "Invalid data provided!")
	}
	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		if repo.IsNotFound(err) {
			return nil, wrapErr(ErrNotFound, err, "Product not found")
		}
		return nil, err
	}
	cart, err := s.Repo.AddToCart(ctx, userID, productID, quantity)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

func (s *CartService) Get(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	cart, err := s.Repo.GetCartByUser(ctx, userID)
	if err != nil {
		return nil, cartErr(err)
	}
	return s.view(ctx, cart)
}

func (s *CartService) Update(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartView, error) {
	if quantity <= 0 {
		return nil, newErr(ErrValidation, "Invalid data provided!")
	}
	cart, err := s.Repo.SetCartItemQuantity(ctx, userID, productID, quantity)
	if err != nil {
		return nil, cartErr(err)
	}
	return s.view(ctx, cart)
}

// Remove is a no-op for a line that is not in the cart.
func (s *CartService) Remove(ctx context.Context, userID, productID uuid.UUID) (*CartView, error) {
	cart, removed, err := s.Repo.RemoveCartItem(ctx, userID, productID)
	if err != nil {
		return nil, cartErr(err)
	}
	if !removed {
		logging.FromContext(ctx).Warn("cart_item_absent", "user_id", userID, "product_id", productID)
	}
	return s.view(ctx, cart)
}

// view drops lines whose product has been deleted, from the response and from storage.
func (s *CartService) view(ctx context.Context, cart *models.Cart) (*CartView, error) {
	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, it := range cart.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.Repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := &CartView{ID: cart.ID, UserID: cart.UserID, Items: make([]CartLine, 0, len(cart.Items))}
	var stale []uuid.UUID
	for _, it := range cart.Items {
		p, ok := products[it.ProductID]
		if !ok {
			stale = append(stale, it.ProductID)
			continue
		}
		out.Items = append(out.Items, CartLine{
			ProductID: p.ID,
			Image:     p.Image,
			Title:     p.Title,
			Price:     p.Price,
			SalePrice: p.SalePrice,
			Quantity:  it.Quantity,
		})
	}
	if len(stale) > 0 {
		if err := s.Repo.RemoveCartItems(ctx, cart.ID, stale); err != nil {
			return nil, err
		}
		logging.FromContext(ctx).Info("cart_stale_items_removed", "cart_id", cart.ID, "count", len(stale))
	}
	return out, nil
}

func cartErr(err error) error {
	switch {
	case errors.Is(err, repo.ErrCartNotFound):
		return wrapErr(ErrNotFound, err, "Cart not found!")
	case errors.Is(err, repo.ErrCartItemNotFound):
		return wrapErr(ErrNotFound, err, "Cart item not present!")
	}
	return err
}
