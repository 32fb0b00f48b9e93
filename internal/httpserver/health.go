package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is a dependency the readiness check pings.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthHTTP struct {
	DB      Pinger
	Extra   map[string]Pinger
	Started time.Time
}

func (h *HealthHTTP) Health(c echo.Context) error {
	now := time.Now().UTC()
	if err := h.DB.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"status":    "DOWN",
			"database":  "DISCONNECTED",
			"timestamp": now.Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":    "UP",
		"database":  "CONNECTED",
		"uptime":    time.Since(h.Started).Seconds(),
		"timestamp": now.Format(time.RFC3339),
	})
}

func (h *HealthHTTP) Live(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "UP"})
}

// Ready fails when the database or any configured backing service is unreachable.
func (h *HealthHTTP) Ready(c echo.Context) error {
	ctx := c.Request().Context()
	checks := map[string]string{}
	status := http.StatusOK

	if err := h.DB.Ping(ctx); err != nil {
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}
	for name, p := range h.Extra {
		if err := p.Ping(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "UP"
	if status != http.StatusOK {
		state = "DOWN"
	}
	return c.JSON(status, echo.Map{"status": state, "checks": checks})
}
