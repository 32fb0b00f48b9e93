package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/config"
	"github.com/Skotchmaster/shop_api/internal/es"
	"github.com/Skotchmaster/shop_api/internal/httpserver"
	"github.com/Skotchmaster/shop_api/internal/idempotency"
	"github.com/Skotchmaster/shop_api/internal/metrics"
	"github.com/Skotchmaster/shop_api/internal/middleware/csrf"
	"github.com/Skotchmaster/shop_api/internal/mykafka"
	"github.com/Skotchmaster/shop_api/internal/payment"
	"github.com/Skotchmaster/shop_api/internal/repo"
	"github.com/Skotchmaster/shop_api/internal/service"
	"github.com/Skotchmaster/shop_api/internal/storage"
	pkgconfig "github.com/Skotchmaster/shop_api/pkg/config"
	"github.com/Skotchmaster/shop_api/pkg/db"
	"github.com/Skotchmaster/shop_api/pkg/logging"
)

func main() {
	cfg, err := config.Load(pkgconfig.EnvDefault("ENV_FILE", ".env"))
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// backends holds the optional clients; each is nil when its env is unset.
type backends struct {
	gateway  payment.Gateway
	producer *mykafka.Producer
	index    *es.ProductIndex
	blobs    *storage.S3Store
	redis    *idempotency.RedisStore
}

func connectBackends(ctx context.Context, cfg *config.Config, l *slog.Logger) (*backends, error) {
	b := &backends{}

	if cfg.PayPalEnabled() {
		pp, err := payment.NewPayPal(payment.PayPalConfig{
			Mode:         cfg.PayPal.Mode,
			ClientID:     cfg.PayPal.ClientID,
			ClientSecret: cfg.PayPal.ClientSecret,
			Timeout:      15 * time.Second,
		})
		if err != nil {
			return nil, err
		}
		b.gateway = pp
	} else {
		l.Warn("paypal credentials not set, order creation is disabled")
	}

	if len(cfg.Kafka.Brokers) > 0 {
		b.producer = mykafka.NewProducer(cfg.Kafka.Brokers)
		l.Info("kafka producer ready", "brokers", cfg.Kafka.Brokers)
	}

	if cfg.ES.URL != "" {
		client, err := es.NewClient(ctx, es.Config{URL: cfg.ES.URL, User: cfg.ES.User, Password: cfg.ES.Password})
		if err != nil {
			return nil, err
		}
		b.index = &es.ProductIndex{Client: client, Index: cfg.ES.Index}
		l.Info("elasticsearch connected", "index", cfg.ES.Index)
	}

	if cfg.S3.Bucket != "" {
		store, err := storage.NewS3Store(ctx, storage.Config{
			Bucket:   cfg.S3.Bucket,
			Region:   cfg.S3.Region,
			Endpoint: cfg.S3.Endpoint,
		})
		if err != nil {
			return nil, err
		}
		b.blobs = store
	}

	if cfg.Redis.URL != "" {
		store, err := idempotency.NewRedisStore(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		b.redis = store
		l.Info("redis connected")
	}
	return b, nil
}

func (b *backends) close(l *slog.Logger) {
	if b.producer != nil {
		if err := b.producer.Close(); err != nil {
			l.Error("kafka close", "error", err)
		}
	}
	if b.redis != nil {
		if err := b.redis.Close(); err != nil {
			l.Error("redis close", "error", err)
		}
	}
}

func run(ctx context.Context, cfg *config.Config, l *slog.Logger) error {
	gdb, err := db.Open(ctx, cfg.DBURL, db.DefaultPool())
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			l.Error("db close", "error", err)
		}
	}()

	r := repo.New(gdb)
	if err := r.Migrate(ctx); err != nil {
		return err
	}

	b, err := connectBackends(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer b.close(l)

	e := httpserver.New(httpOptions(cfg, l), buildDeps(cfg, gdb, r, b))

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	l.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	l.Info("shutdown complete")
	return nil
}

func httpOptions(cfg *config.Config, l *slog.Logger) httpserver.Options {
	opts := httpserver.Options{
		Logger:      l,
		CORSOrigins: cfg.AllowedOrigins(),
		BodyLimit:   cfg.BodyLimit,
	}
	if cfg.CSRFEnabled {
		c := csrf.DefaultConfig()
		c.Secure = cfg.CookieSecure
		c.AllowedOrigins = cfg.AllowedOrigins()
		c.SkipPaths = []string{"/api/auth/login", "/api/auth/register", "/health", "/metrics"}
		opts.CSRF = &c
	}
	return opts
}

func buildDeps(cfg *config.Config, gdb *gorm.DB, r *repo.GormRepo, b *backends) *httpserver.Deps {
	m := metrics.New(prometheus.NewRegistry())

	var (
		events service.Publisher
		index  service.ProductIndexer
		search service.ProductSearcher
		blobs  service.BlobStore
		idem   idempotency.Store
	)
	extra := map[string]httpserver.Pinger{}
	if b.producer != nil {
		events = b.producer
	}
	if b.index != nil {
		index, search = b.index, b.index
	}
	if b.blobs != nil {
		blobs = b.blobs
	}
	if b.redis != nil {
		idem = b.redis
		extra["redis"] = b.redis
	}

	secret := []byte(cfg.JWTSecret)
	return &httpserver.Deps{
		Auth: &httpserver.AuthHTTP{
			Svc:          &service.AuthService{Repo: r, JWTSecret: secret, TokenTTL: cfg.JWTTTL},
			CookieSecure: cfg.CookieSecure,
		},
		Products: &httpserver.ProductHTTP{Svc: &service.CatalogService{Repo: r, Index: index, Events: events, Blobs: blobs}},
		Cart:     &httpserver.CartHTTP{Svc: &service.CartService{Repo: r}},
		Address:  &httpserver.AddressHTTP{Svc: &service.AddressService{Repo: r}},
		Orders: &httpserver.OrderHTTP{Svc: &service.OrderService{
			Repo:          r,
			Gateway:       b.gateway,
			Events:        events,
			Metrics:       m,
			ClientBaseURL: cfg.ClientBaseURL,
		}},
		Reviews:  &httpserver.ReviewHTTP{Svc: &service.ReviewService{Repo: r, Index: index, Events: events, Metrics: m}},
		Features: &httpserver.FeatureHTTP{Svc: &service.FeatureService{Repo: r}},
		Search:   &httpserver.SearchHTTP{Svc: &service.SearchService{Repo: r, Index: search}},
		Health: &httpserver.HealthHTTP{
			DB:      httpserver.PingFunc(func(ctx context.Context) error { return db.Ping(ctx, gdb) }),
			Extra:   extra,
			Started: time.Now(),
		},
		JWTSecret:   secret,
		Metrics:     m,
		Idempotency: idem,
	}
}
