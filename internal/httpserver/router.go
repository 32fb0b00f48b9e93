package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	ecM "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/shop_api/internal/idempotency"
	"github.com/Skotchmaster/shop_api/internal/metrics"
	"github.com/Skotchmaster/shop_api/internal/middleware/csrf"
	middleware "github.com/Skotchmaster/shop_api/pkg/middleware/auth"
	loggingmw "github.com/Skotchmaster/shop_api/pkg/middleware/logging"
)

type Deps struct {
	Auth     *AuthHTTP
	Products *ProductHTTP
	Cart     *CartHTTP
	Address  *AddressHTTP
	Orders   *OrderHTTP
	Reviews  *ReviewHTTP
	Features *FeatureHTTP
	Search   *SearchHTTP
	Health   *HealthHTTP

	JWTSecret   []byte
	Metrics     *metrics.Metrics
	Idempotency idempotency.Store
}

type Options struct {
	Logger      *slog.Logger
	CORSOrigins []string
	BodyLimit   string
	// CSRF is applied to cookie-authenticated requests when non-nil.
	CSRF *csrf.Config
}

// New builds the echo instance with the shared middleware chain and every route.
func New(opts Options, d *Deps) *echo.Echo {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = HTTPErrorHandler

	e.Pre(ecM.RemoveTrailingSlash())
	e.Use(
		ecM.RequestIDWithConfig(ecM.RequestIDConfig{Generator: uuid.NewString}),
		loggingmw.RequestLogger(opts.Logger),
		ecM.Recover(),
		ecM.Secure(),
		ecM.CORSWithConfig(ecM.CORSConfig{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, echo.HeaderXRequestID, "Cache-Control", "Expires", "Pragma", idempotency.HeaderKey, "X-CSRF-Token"},
			AllowCredentials: true,
		}),
		d.Metrics.Middleware(),
	)
	if opts.BodyLimit != "" {
		e.Use(ecM.BodyLimit(opts.BodyLimit))
	}
	if opts.CSRF != nil {
		e.Use(csrf.Middleware(*opts.CSRF))
	}

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health", d.Health.Health)
	e.GET("/health/live", d.Health.Live)
	e.GET("/health/ready", d.Health.Ready)
	e.GET("/metrics", d.Metrics.Handler())

	authMW := middleware.New(d.JWTSecret)
	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/logout", d.Auth.Logout)
	auth.GET("/check-auth", d.Auth.CheckAuth, authMW.RequireAuth)

	adminProducts := api.Group("/admin/products", authMW.RequireAdmin)
	adminProducts.POST("/upload-image", d.Products.UploadImage)
	adminProducts.POST("/add", d.Products.Add)
	adminProducts.GET("/get", d.Products.List)
	adminProducts.PUT("/edit/:id", d.Products.Edit)
	adminProducts.DELETE("/delete/:id", d.Products.Delete)

	adminOrders := api.Group("/admin/orders", authMW.RequireAdmin)
	adminOrders.GET("/get", d.Orders.ListAll)
	adminOrders.GET("/details/:id", d.Orders.Details)
	adminOrders.PUT("/update/:id", d.Orders.UpdateStatus)

	products := api.Group("/shop/products")
	products.GET("/get", d.Products.GetFiltered)
	products.GET("/get/:id", d.Products.GetDetails)

	cart := api.Group("/shop/cart", authMW.RequireAuth)
	cart.POST("/add", d.Cart.Add)
	cart.GET("/get/:userId", d.Cart.Get)
	cart.PUT("/update-cart", d.Cart.Update)
	cart.DELETE("/:userId/:productId", d.Cart.Remove)

	address := api.Group("/shop/address", authMW.RequireAuth)
	address.POST("/add", d.Address.Add)
	address.GET("/get/:userId", d.Address.List)
	address.PUT("/update/:userId/:addressId", d.Address.Update)
	address.DELETE("/delete/:userId/:addressId", d.Address.Delete)

	order := api.Group("/shop/order", authMW.RequireAuth)
	order.POST("/create", d.Orders.Create, idempotency.Middleware(d.Idempotency, idempotency.DefaultTTL))
	order.POST("/capture", d.Orders.Capture)
	order.GET("/list/:userId", d.Orders.ListByUser)
	order.GET("/details/:id", d.Orders.Details)

	api.GET("/shop/search/:keyword", d.Search.Search)

	review := api.Group("/shop/review")
	review.POST("/add", d.Reviews.Add, authMW.RequireAuth)
	review.GET("/:productId", d.Reviews.List)

	feature := api.Group("/common/feature")
	feature.POST("/add", d.Features.Add, authMW.RequireAdmin)
	feature.GET("/get", d.Features.List)
}
