package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_api/internal/service"
	loggingmw "github.com/Skotchmaster/shop_api/pkg/middleware/logging"
)

const (
	msgInvalidData = "Invalid data provided!"
	msgServerError = "Some error occured"
)

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	TraceID string            `json:"traceId,omitempty"`
}

func ok(c echo.Context, status int, data any) error {
	return c.JSON(status, envelope{Success: true, Data: data})
}

func okMsg(c echo.Context, status int, msg string, data any) error {
	return c.JSON(status, envelope{Success: true, Message: msg, Data: data})
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, envelope{Success: false, Message: msg})
}

var statusByKind = []struct {
	kind   error
	status int
}{
	{service.ErrValidation, http.StatusBadRequest},
	{service.ErrUnauthorized, http.StatusUnauthorized},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrInFlight, http.StatusConflict},
	{service.ErrConflict, http.StatusBadRequest},
	{service.ErrInsufficientStock, http.StatusBadRequest},
	{service.ErrPaymentGateway, http.StatusInternalServerError},
	{service.ErrUpstream, http.StatusInternalServerError},
}

func statusFor(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	for _, m := range statusByKind {
		if errors.Is(err, m.kind) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

// respondErr logs err under op and writes the matching envelope.
func respondErr(c echo.Context, l *slog.Logger, op string, err error) error {
	var be *bindError
	if errors.As(err, &be) {
		l.Warn(op+"_error", "status", http.StatusBadRequest, "reason", "invalid body", "error", err)
		return c.JSON(http.StatusBadRequest, envelope{Success: false, Message: msgInvalidData, Errors: be.fields})
	}

	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		l.Error(op+"_error", "status", status, "error", err)
		return fail(c, status, service.PublicMessage(err, msgServerError))
	}
	msg := service.PublicMessage(err, http.StatusText(status))
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if s, ok := he.Message.(string); ok {
			msg = s
		}
	}
	l.Warn(op+"_error", "status", status, "reason", msg, "error", err)
	return fail(c, status, msg)
}

// HTTPErrorHandler renders errors that escape handlers (unknown routes, middleware
// rejections, panics) in the same envelope, tagged with the request id.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	msg := "Internal Server Error"
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		status = he.Code
		switch {
		case status == http.StatusNotFound && errors.Is(err, echo.ErrNotFound):
			msg = "Route not found"
		case status < http.StatusInternalServerError:
			if s, ok := he.Message.(string); ok {
				msg = s
			} else {
				msg = http.StatusText(status)
			}
		}
	default:
		if s := statusFor(err); s < http.StatusInternalServerError {
			status = s
			msg = service.PublicMessage(err, http.StatusText(s))
		}
	}

	body := envelope{Success: false, Message: msg, TraceID: loggingmw.RequestID(c)}
	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, body)
	}
	if werr != nil {
		c.Logger().Error(werr)
	}
}
