package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/mykafka"
	"github.com/Skotchmaster/shop_api/internal/payment"
	"github.com/Skotchmaster/shop_api/internal/repo"
	"github.com/Skotchmaster/shop_api/internal/testutil"
)

type published struct {
	Topic string
	Key   string
	Event mykafka.Event
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (f *fakePublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, published{Topic: topic, Key: key, Event: event.(mykafka.Event)})
	return nil
}

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Event.Type)
	}
	return out
}

type fakeGateway struct {
	calls []payment.CreateRequest
	err   error
}

func (g *fakeGateway) CreatePayment(_ context.Context, req payment.CreateRequest) (*payment.Payment, error) {
	g.calls = append(g.calls, req)
	if g.err != nil {
		return nil, g.err
	}
	return &payment.Payment{ID: "PAY-1", ApprovalURL: "https://paypal.test/approve?token=EC-1"}, nil
}

type fakeIndex struct {
	indexed   []uuid.UUID
	deleted   []uuid.UUID
	searchErr error
	hits      []models.Product
}

func (f *fakeIndex) IndexProduct(_ context.Context, p models.Product) error {
	f.indexed = append(f.indexed, p.ID)
	return nil
}

func (f *fakeIndex) DeleteProduct(_ context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIndex) SearchProducts(_ context.Context, _ string, _, _ int) (int64, []models.Product, error) {
	if f.searchErr != nil {
		return 0, nil, f.searchErr
	}
	return int64(len(f.hits)), f.hits, nil
}

type fakeBlobs struct {
	uploaded []string
	err      error
}

func (f *fakeBlobs) Upload(_ context.Context, filename, _ string, body io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.ReadAll(body); err != nil {
		return "", err
	}
	f.uploaded = append(f.uploaded, filename)
	return "https://cdn.test/products/" + filename, nil
}

func newRepo(t *testing.T) (*repo.GormRepo, *gorm.DB) {
	t.Helper()
	db := testutil.InitTestDB(t)
	return repo.New(db), db
}

func requireKind(t *testing.T, err error, kind error, msg string) {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, kind), "want kind %v, got %v", kind, err)
	if msg != "" {
		require.Equal(t, msg, PublicMessage(err, ""))
	}
}

func stockOf(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var p models.Product
	require.NoError(t, db.Where("id = ?", id).First(&p).Error)
	return p.TotalStock
}
