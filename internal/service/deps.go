package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/mykafka"
	"github.com/Skotchmaster/shop_api/pkg/logging"
)

const publishTimeout = 5 * time.Second

// Publisher is satisfied by *mykafka.Producer.
type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// ProductIndexer is satisfied by *es.ProductIndex.
type ProductIndexer interface {
	IndexProduct(ctx context.Context, p models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type ProductSearcher interface {
	SearchProducts(ctx context.Context, query string, from, size int) (int64, []models.Product, error)
}

// BlobStore is satisfied by *storage.S3Store.
type BlobStore interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error)
}

// publish is best effort: a broker outage never fails the request that caused the event.
func publish(ctx context.Context, pub Publisher, topic, key, typ string, payload map[string]any) {
	if pub == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := pub.PublishEvent(pctx, topic, key, mykafka.NewEvent(typ, payload)); err != nil {
		logging.FromContext(ctx).Warn("publish_event_failed", "topic", topic, "type", typ, "key", key, "error", err)
	}
}
