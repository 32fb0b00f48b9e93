package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the shop collectors. A nil *Metrics is a valid no-op.
type Metrics struct {
	gatherer prometheus.Gatherer

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	orders   *prometheus.CounterVec
	captures *prometheus.CounterVec
	reviews  prometheus.Counter
}

func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		return nil
	}
	m := &Metrics{
		gatherer: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shop_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shop_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shop_orders_created_total",
			Help: "Orders created by payment method.",
		}, []string{"payment_method"}),
		captures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shop_payment_captures_total",
			Help: "Payment capture attempts by result.",
		}, []string{"result"}),
		reviews: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shop_reviews_created_total",
			Help: "Product reviews accepted.",
		}),
	}
	reg.MustRegister(
		m.requests, m.duration, m.orders, m.captures, m.reviews,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) OrderCreated(method string) {
	if m == nil {
		return
	}
	m.orders.WithLabelValues(label(method)).Inc()
}

// CaptureResult records "confirmed", "replayed", "in_flight" or "failed".
func (m *Metrics) CaptureResult(result string) {
	if m == nil {
		return
	}
	m.captures.WithLabelValues(label(result)).Inc()
}

func (m *Metrics) ReviewCreated() {
	if m == nil {
		return
	}
	m.reviews.Inc()
}

// Middleware labels by route template so path params do not explode cardinality.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else if !c.Response().Committed {
					status = http.StatusInternalServerError
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func (m *Metrics) Handler() echo.HandlerFunc {
	if m == nil {
		return echo.WrapHandler(http.NotFoundHandler())
	}
	return echo.WrapHandler(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}

func label(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
