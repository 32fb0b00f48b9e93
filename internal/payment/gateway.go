package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrNoApprovalURL = errors.New("payment: approval url missing in gateway response")

type Item struct {
	Name     string
	SKU      string
	Price    decimal.Decimal
	Quantity int
}

type CreateRequest struct {
	Items       []Item
	Total       decimal.Decimal
	Currency    string
	Description string
	ReturnURL   string
	CancelURL   string
}

// Payment is a created but not yet approved gateway payment.
type Payment struct {
	ID          string
	ApprovalURL string
}

type Gateway interface {
	CreatePayment(ctx context.Context, req CreateRequest) (*Payment, error)
}
