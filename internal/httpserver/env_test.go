package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/metrics"
	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/payment"
	"github.com/Skotchmaster/shop_api/internal/repo"
	"github.com/Skotchmaster/shop_api/internal/service"
	"github.com/Skotchmaster/shop_api/internal/testutil"
	"github.com/Skotchmaster/shop_api/pkg/tokens"
)

var testSecret = []byte("httpserver-test-secret")

type stubGateway struct{}

func (stubGateway) CreatePayment(context.Context, payment.CreateRequest) (*payment.Payment, error) {
	return &payment.Payment{ID: "PAY-1", ApprovalURL: "https://paypal.test/approve"}, nil
}

type stubBlobs struct{}

func (stubBlobs) Upload(_ context.Context, filename, _ string, body io.Reader) (string, error) {
	_, _ = io.Copy(io.Discard, body)
	return "https://cdn.test/" + filename, nil
}

type memIdempotency struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memIdempotency) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memIdempotency) SetNX(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value
	return true, nil
}

type testEnv struct {
	T     *testing.T
	E     *echo.Echo
	DB    *gorm.DB
	Repo  *repo.GormRepo
	Logs  *bytes.Buffer
	Ready *HealthHTTP
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.InitTestDB(t)
	r := repo.New(db)
	m := metrics.New(prometheus.NewRegistry())
	logs := &bytes.Buffer{}

	health := &HealthHTTP{
		DB:      PingFunc(func(ctx context.Context) error { return nil }),
		Started: time.Now(),
	}
	deps := &Deps{
		Auth:     &AuthHTTP{Svc: &service.AuthService{Repo: r, JWTSecret: testSecret, TokenTTL: time.Hour}},
		Products: &ProductHTTP{Svc: &service.CatalogService{Repo: r, Blobs: stubBlobs{}}},
		Cart:     &CartHTTP{Svc: &service.CartService{Repo: r}},
		Address:  &AddressHTTP{Svc: &service.AddressService{Repo: r}},
		Orders: &OrderHTTP{Svc: &service.OrderService{
			Repo: r, Gateway: stubGateway{}, Metrics: m, ClientBaseURL: "http://localhost:5173",
		}},
		Reviews:     &ReviewHTTP{Svc: &service.ReviewService{Repo: r, Metrics: m}},
		Features:    &FeatureHTTP{Svc: &service.FeatureService{Repo: r}},
		Search:      &SearchHTTP{Svc: &service.SearchService{Repo: r}},
		Health:      health,
		JWTSecret:   testSecret,
		Metrics:     m,
		Idempotency: &memIdempotency{data: map[string]string{}},
	}
	e := New(Options{
		Logger:      slog.New(slog.NewJSONHandler(logs, nil)),
		CORSOrigins: []string{"http://localhost:5173"},
		BodyLimit:   "1M",
	}, deps)

	return &testEnv{T: t, E: e, DB: db, Repo: r, Logs: logs, Ready: health}
}

func (env *testEnv) tokenFor(u models.User) string {
	env.T.Helper()
	tok, _, err := tokens.NewAccessToken(u.ID.String(), u.Role, u.Email, u.UserName, time.Hour, testSecret)
	require.NoError(env.T, err)
	return tok
}

func (env *testEnv) user(email string) (models.User, string) {
	u := testutil.SeedUser(env.T, env.DB, email, models.RoleUser)
	return u, env.tokenFor(u)
}

func (env *testEnv) admin() (models.User, string) {
	u := testutil.SeedUser(env.T, env.DB, "admin@example.com", models.RoleAdmin)
	return u, env.tokenFor(u)
}

func (env *testEnv) do(method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	env.T.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

type apiResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
	TraceID string            `json:"traceId"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var out apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func jsonUnmarshal(rec *httptest.ResponseRecorder, dest any) error {
	return json.Unmarshal(rec.Body.Bytes(), dest)
}

func productStock(t *testing.T, env *testEnv, id uuid.UUID) int {
	t.Helper()
	var p models.Product
	require.NoError(t, env.DB.Where("id = ?", id).First(&p).Error)
	return p.TotalStock
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, dest), rec.Body.String())
}
