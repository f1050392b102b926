package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/jirivrbic-boss/extroworld/api/responses"
	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
	"github.com/jirivrbic-boss/extroworld/pkg/logger"
	pkgredis "github.com/jirivrbic-boss/extroworld/pkg/redis"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	ReplayHeader         = "Idempotent-Replay"

	defaultIdempotencyTTL  = 24 * time.Hour
	criticalIdempotencyTTL = 7 * 24 * time.Hour
	// inFlightTTL bounds how long a crashed request keeps its key reserved.
	inFlightTTL = 2 * time.Minute
)

type idempotentRoute struct {
	method string
	match  func(pattern string) bool
	ttl    time.Duration
}

var idempotentRoutes = []idempotentRoute{
	{http.MethodPost, exactly("/api/v1/checkout/intent"), defaultIdempotencyTTL},
	{http.MethodPost, exactly("/api/v1/admin/orders/seed"), defaultIdempotencyTTL},
	{http.MethodPost, between("/api/v1/admin/orders/", "/shipment"), defaultIdempotencyTTL},
	{http.MethodPost, exactly("/api/v1/admin/loyalty-codes"), defaultIdempotencyTTL},
	{http.MethodPost, exactly("/api/v1/orders"), criticalIdempotencyTTL},
}

// storedResponse is what a key maps to. A record without a status is a
// reservation held by a request still being served.
type storedResponse struct {
	RequestHash string `json:"request_hash"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

func (s storedResponse) pending() bool { return s.Status == 0 }

// Idempotency replays the first completed response for a repeated
// Idempotency-Key on the routes listed above. Keys are scoped by caller and
// path. A duplicate that arrives while the first request is still running is
// rejected, and 5xx responses release the key so the client may retry.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, ok := routeTTL(r.Method, routePattern(r))
			if !ok || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			clientKey := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
			if clientKey == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			hash := requestHash(body)
			key := store.IdempotencyKey(callerScope(r), clientKey)

			prior, found, err := loadResponse(ctx, store, key)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if found {
				if err := replay(w, prior, hash); err != nil {
					responses.WriteError(ctx, logg, w, err)
				}
				return
			}

			reserved, err := saveResponse(ctx, store, key, storedResponse{RequestHash: hash}, inFlightTTL)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if !reserved {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "a request with this idempotency key is in progress"))
				return
			}

			rec := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			// release the reservation; a short window remains before the
			// final record lands, placement intents cover order creation there
			if err := store.Del(context.WithoutCancel(ctx), key); err != nil {
				logError(ctx, logg, "release idempotency key", err)
			}
			if rec.statusCode() >= http.StatusInternalServerError {
				return
			}
			final := storedResponse{
				RequestHash: hash,
				Status:      rec.statusCode(),
				ContentType: rec.Header().Get("Content-Type"),
				Body:        rec.body.Bytes(),
			}
			if _, err := saveResponse(context.WithoutCancel(ctx), store, key, final, ttl); err != nil {
				logError(ctx, logg, "persist idempotency record", err)
			}
		})
	}
}

func replay(w http.ResponseWriter, prior storedResponse, hash string) error {
	if prior.RequestHash != hash {
		return pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body")
	}
	if prior.pending() {
		return pkgerrors.New(pkgerrors.CodeIdempotency, "a request with this idempotency key is in progress")
	}
	if prior.ContentType != "" {
		w.Header().Set("Content-Type", prior.ContentType)
	}
	w.Header().Set(ReplayHeader, "true")
	w.WriteHeader(prior.Status)
	_, _ = w.Write(prior.Body)
	return nil
}

func loadResponse(ctx context.Context, store pkgredis.IdempotencyStore, key string) (storedResponse, bool, error) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, redis.Nil) || (err == nil && raw == "") {
		return storedResponse{}, false, nil
	}
	if err != nil {
		return storedResponse{}, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency")
	}
	var out storedResponse
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return storedResponse{}, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode idempotency record")
	}
	return out, true, nil
}

func saveResponse(ctx context.Context, store pkgredis.IdempotencyStore, key string, resp storedResponse, ttl time.Duration) (bool, error) {
	payload, err := json.Marshal(resp)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode idempotency record")
	}
	ok, err := store.SetNX(ctx, key, string(payload), ttl)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key")
	}
	return ok, nil
}

func callerScope(r *http.Request) string {
	ctx := r.Context()
	return strings.Join([]string{UserIDFromContext(ctx), AdminFromContext(ctx), r.Method, r.URL.Path}, "|")
}

func requestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		// group middleware still sees the mount wildcard
		if pattern := rc.RoutePattern(); pattern != "" && !strings.HasSuffix(pattern, "*") {
			return pattern
		}
	}
	return r.URL.Path
}

func routeTTL(method, pattern string) (time.Duration, bool) {
	for _, route := range idempotentRoutes {
		if route.method == method && route.match(pattern) {
			return route.ttl, true
		}
	}
	return 0, false
}

func exactly(path string) func(string) bool {
	return func(pattern string) bool { return pattern == path }
}

func between(prefix, suffix string) func(string) bool {
	return func(pattern string) bool {
		return len(pattern) > len(prefix)+len(suffix) &&
			strings.HasPrefix(pattern, prefix) && strings.HasSuffix(pattern, suffix)
	}
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseCapture) statusCode() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

func logError(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil || err == nil {
		return
	}
	logg.Error(ctx, msg, err)
}
