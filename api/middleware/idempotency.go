package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/vendora-hq/vendora-backend/api/responses"
	pkgerrors "github.com/vendora-hq/vendora-backend/pkg/errors"
	"github.com/vendora-hq/vendora-backend/pkg/logger"
	pkgredis "github.com/vendora-hq/vendora-backend/pkg/redis"
)

const (
	adminOpTTL = 24 * time.Hour
	// Money moves through these; keep replies replayable for a week.
	moneyOpTTL = 7 * 24 * time.Hour
)

// guardedRoute describes one POST endpoint protected by the
// Idempotency-Key header. Exact matches take the pattern verbatim;
// prefix+suffix matches cover chi patterns with a path param in the
// middle, e.g. /api/v1/orders/{id}/refund.
type guardedRoute struct {
	exact  string
	prefix string
	suffix string
	ttl    time.Duration
}

func (g guardedRoute) matches(pattern string) bool {
	if g.exact != "" {
		return pattern == g.exact
	}
	return strings.HasPrefix(pattern, g.prefix) && strings.HasSuffix(pattern, g.suffix)
}

var guardedRoutes = []guardedRoute{
	{exact: "/api/v1/commission/rules", ttl: adminOpTTL},
	{prefix: "/api/v1/commission/rules/", suffix: "/deactivate", ttl: adminOpTTL},
	{exact: "/api/v1/payouts/sweep", ttl: adminOpTTL},
	{prefix: "/api/v1/payouts/", suffix: "/retry", ttl: adminOpTTL},
	{exact: "/api/v1/vendors/classify", ttl: adminOpTTL},
	{exact: "/api/v1/orders", ttl: moneyOpTTL},
	{prefix: "/api/v1/orders/", suffix: "/confirm", ttl: moneyOpTTL},
	{prefix: "/api/v1/orders/", suffix: "/cancel", ttl: moneyOpTTL},
	{prefix: "/api/v1/orders/", suffix: "/refund", ttl: moneyOpTTL},
	{prefix: "/api/v1/orders/", suffix: "/settle", ttl: moneyOpTTL},
}

// replayRecord is the cached outcome of a guarded request. The body is
// base64 so the JSON stays valid whatever the handler wrote.
type replayRecord struct {
	Status      int               `json:"status"`
	Body        string            `json:"body"`
	Headers     map[string]string `json:"headers,omitempty"`
	RequestHash string            `json:"request_hash"`
}

// Idempotency replays the stored response when a guarded route sees a
// repeated Idempotency-Key, and rejects key reuse across different
// request bodies.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			ttl, guarded := guardTTL(r)
			if !guarded || store == nil {
				next.ServeHTTP(w, r)
				return
			}

			clientKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
			if clientKey == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			fingerprint := bodyFingerprint(body)
			key := store.IdempotencyKey(r.Method+"|"+r.URL.Path, clientKey)

			stored, err := store.Get(ctx, key)
			if err != nil && !errors.Is(err, redis.Nil) {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			}
			if stored != "" {
				var record replayRecord
				if err := json.Unmarshal([]byte(stored), &record); err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
					return
				}
				if record.RequestHash != fingerprint {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
					return
				}
				replay(w, record)
				return
			}

			capture := &captureWriter{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			record := replayRecord{
				Status:      capture.statusOr(http.StatusOK),
				Body:        base64.StdEncoding.EncodeToString(capture.body.Bytes()),
				RequestHash: fingerprint,
			}
			if ct := capture.Header().Get("Content-Type"); ct != "" {
				record.Headers = map[string]string{"Content-Type": ct}
			}

			payload, err := json.Marshal(record)
			if err != nil {
				if logg != nil {
					logg.Error(ctx, "marshal idempotency record", err)
				}
				return
			}
			if _, err := store.SetNX(ctx, key, string(payload), ttl); err != nil && logg != nil {
				logg.Error(ctx, "persist idempotency record", err)
			}
		})
	}
}

func guardTTL(r *http.Request) (time.Duration, bool) {
	if r == nil || r.Method != http.MethodPost {
		return 0, false
	}
	pattern := r.URL.Path
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if p := routeCtx.RoutePattern(); p != "" {
			pattern = p
		}
	}
	for _, route := range guardedRoutes {
		if route.matches(pattern) {
			return route.ttl, true
		}
	}
	return 0, false
}

func replay(w http.ResponseWriter, record replayRecord) {
	if ct := record.Headers["Content-Type"]; ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(record.Status)
	if decoded, err := base64.StdEncoding.DecodeString(record.Body); err == nil {
		_, _ = w.Write(decoded)
	}
}

func bodyFingerprint(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}

type captureWriter struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *captureWriter) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *captureWriter) Write(b []byte) (int, error) {
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *captureWriter) statusOr(fallback int) int {
	if c.status == 0 {
		return fallback
	}
	return c.status
}
