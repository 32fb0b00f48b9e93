package idempotency

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Skotchmaster/shop_api/pkg/logging"
	"github.com/labstack/echo/v4"
)

const (
	HeaderKey  = "Idempotency-Key"
	DefaultTTL = 24 * time.Hour
)

type record struct {
	Status      int    `json:"status"`
	Body        string `json:"body"`
	ContentType string `json:"content_type,omitempty"`
	RequestHash string `json:"request_hash"`
}

// Middleware replays the stored response for a repeated Idempotency-Key.
// Requests without the header pass straight through.
func Middleware(store Store, ttl time.Duration) echo.MiddlewareFunc {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := strings.TrimSpace(c.Request().Header.Get(HeaderKey))
			if store == nil || id == "" {
				return next(c)
			}
			ctx := c.Request().Context()
			l := logging.FromContext(ctx).With("middleware", "idempotency")

			body, err := io.ReadAll(c.Request().Body)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "could not read request body")
			}
			c.Request().Body = io.NopCloser(bytes.NewReader(body))

			hash := hashBody(body)
			key := Key(scope(c), id)

			stored, ok, err := store.Get(ctx, key)
			if err != nil {
				l.Warn("idempotency_lookup_failed", "error", err)
				return next(c)
			}
			if ok {
				var rec record
				if err := json.Unmarshal([]byte(stored), &rec); err != nil {
					l.Warn("idempotency_record_corrupt", "error", err)
					return next(c)
				}
				if rec.RequestHash != hash {
					return echo.NewHTTPError(http.StatusConflict, "Idempotency-Key reused with a different request body")
				}
				decoded, err := base64.StdEncoding.DecodeString(rec.Body)
				if err != nil {
					return fmt.Errorf("decode idempotency record: %w", err)
				}
				ct := rec.ContentType
				if ct == "" {
					ct = echo.MIMEApplicationJSON
				}
				c.Response().Header().Set("Idempotent-Replayed", "true")
				return c.Blob(rec.Status, ct, decoded)
			}

			tee := &bodyCapture{ResponseWriter: c.Response().Writer}
			c.Response().Writer = tee
			if err := next(c); err != nil {
				return err
			}

			status := c.Response().Status
			if status >= http.StatusInternalServerError {
				return nil
			}
			payload, err := json.Marshal(record{
				Status:      status,
				Body:        base64.StdEncoding.EncodeToString(tee.buf.Bytes()),
				ContentType: c.Response().Header().Get(echo.HeaderContentType),
				RequestHash: hash,
			})
			if err != nil {
				l.Warn("idempotency_marshal_failed", "error", err)
				return nil
			}
			if _, err := store.SetNX(ctx, key, string(payload), ttl); err != nil {
				l.Warn("idempotency_persist_failed", "error", err)
			}
			return nil
		}
	}
}

func scope(c echo.Context) string {
	user, _ := c.Get("user_id").(string)
	return strings.Join([]string{user, c.Request().Method, c.Request().URL.Path}, "|")
}

func hashBody(b []byte) string {
	sum := sha256.Sum256(b)
	return base64.StdEncoding.EncodeToString(sum[:])
}

type bodyCapture struct {
	http.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCapture) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *bodyCapture) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := w.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}
