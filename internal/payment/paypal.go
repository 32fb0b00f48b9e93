package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	ModeSandbox = "sandbox"
	ModeLive    = "live"

	sandboxURL = "https://api-m.sandbox.paypal.com"
	liveURL    = "https://api-m.paypal.com"
)

type PayPalConfig struct {
	Mode         string
	ClientID     string
	ClientSecret string
	// BaseURL overrides the endpoint picked from Mode.
	BaseURL string
	Timeout time.Duration
}

type PayPal struct {
	client *resty.Client
	cfg    PayPalConfig

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

func NewPayPal(cfg PayPalConfig) (*PayPal, error) {
	base := cfg.BaseURL
	switch cfg.Mode {
	case ModeSandbox:
		if base == "" {
			base = sandboxURL
		}
	case ModeLive:
		if base == "" {
			base = liveURL
		}
	default:
		return nil, fmt.Errorf("paypal: mode must be %q or %q, got %q", ModeSandbox, ModeLive, cfg.Mode)
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("paypal: client id and secret are required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(base).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	return &PayPal{client: client, cfg: cfg}, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (p *PayPal) accessToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && time.Now().Before(p.tokenExp) {
		return p.token, nil
	}

	var out tokenResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBasicAuth(p.cfg.ClientID, p.cfg.ClientSecret).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		SetResult(&out).
		Post("/v1/oauth2/token")
	if err != nil {
		return "", fmt.Errorf("paypal: token request: %w", err)
	}
	if resp.StatusCode() != 200 || out.AccessToken == "" {
		return "", fmt.Errorf("paypal: token request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	p.token = out.AccessToken
	// refresh a minute early
	p.tokenExp = time.Now().Add(time.Duration(out.ExpiresIn)*time.Second - time.Minute)
	return p.token, nil
}

type ppItem struct {
	Name     string `json:"name"`
	SKU      string `json:"sku"`
	Price    string `json:"price"`
	Currency string `json:"currency"`
	Quantity int    `json:"quantity"`
}

type ppPayment struct {
	Intent string `json:"intent"`
	Payer  struct {
		PaymentMethod string `json:"payment_method"`
	} `json:"payer"`
	RedirectURLs struct {
		ReturnURL string `json:"return_url"`
		CancelURL string `json:"cancel_url"`
	} `json:"redirect_urls"`
	Transactions []ppTransaction `json:"transactions"`
}

type ppTransaction struct {
	ItemList struct {
		Items []ppItem `json:"items"`
	} `json:"item_list"`
	Amount struct {
		Currency string `json:"currency"`
		Total    string `json:"total"`
	} `json:"amount"`
	Description string `json:"description"`
}

type ppCreated struct {
	ID    string `json:"id"`
	Links []struct {
		Href   string `json:"href"`
		Rel    string `json:"rel"`
		Method string `json:"method"`
	} `json:"links"`
}

func (p *PayPal) CreatePayment(ctx context.Context, req CreateRequest) (*Payment, error) {
	token, err := p.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	body := ppPayment{Intent: "sale"}
	body.Payer.PaymentMethod = "paypal"
	body.RedirectURLs.ReturnURL = req.ReturnURL
	body.RedirectURLs.CancelURL = req.CancelURL

	var tr ppTransaction
	for _, it := range req.Items {
		tr.ItemList.Items = append(tr.ItemList.Items, ppItem{
			Name:     it.Name,
			SKU:      it.SKU,
			Price:    it.Price.StringFixed(2),
			Currency: req.Currency,
			Quantity: it.Quantity,
		})
	}
	tr.Amount.Currency = req.Currency
	tr.Amount.Total = req.Total.StringFixed(2)
	tr.Description = req.Description
	body.Transactions = []ppTransaction{tr}

	var out ppCreated
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&out).
		Post("/v1/payments/payment")
	if err != nil {
		return nil, fmt.Errorf("paypal: create payment: %w", err)
	}
	if resp.StatusCode() != 201 && resp.StatusCode() != 200 {
		return nil, fmt.Errorf("paypal: create payment failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	for _, l := range out.Links {
		if l.Rel == "approval_url" {
			return &Payment{ID: out.ID, ApprovalURL: l.Href}, nil
		}
	}
	return nil, ErrNoApprovalURL
}
