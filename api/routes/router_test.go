package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jirivrbic-boss/extroworld/api/middleware"
	"github.com/jirivrbic-boss/extroworld/internal/admin"
	"github.com/jirivrbic-boss/extroworld/internal/cart"
	"github.com/jirivrbic-boss/extroworld/internal/sitelock"
	pkgAuth "github.com/jirivrbic-boss/extroworld/pkg/auth"
	"github.com/jirivrbic-boss/extroworld/pkg/config"
	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubAdmin struct{}

func (stubAdmin) Login(context.Context, admin.LoginRequest, string) (admin.Session, error) {
	return admin.Session{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
}

func (stubAdmin) Logout(context.Context, string) error { return nil }

func (stubAdmin) Authenticate(_ context.Context, token, sig string) (string, error) {
	if token == "tok" && sig == "sig" {
		return "owner", nil
	}
	return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid session")
}

func (stubAdmin) CheckCredentials(context.Context, string, admin.LoginRequest, string) error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
}

func (stubAdmin) Stats(context.Context) (admin.StatsDTO, error) {
	return admin.StatsDTO{Orders: 3, PaidOrders: 2, PaidRevenue: 2980, Users: 5}, nil
}

func (stubAdmin) CreatePromo(context.Context, admin.PromoInput) (admin.PromoDTO, error) {
	return admin.PromoDTO{}, nil
}

type memoryIdempotency struct {
	data map[string]string
}

func (m *memoryIdempotency) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryIdempotency) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key], _ = value.(string)
	return true, nil
}

func (m *memoryIdempotency) IdempotencyKey(scope, id string) string {
	return scope + ":" + id
}

func (m *memoryIdempotency) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "extroworld", ExpirationMinutes: 60},
	}
}

func newTestRouter(t *testing.T, mutate func(*Deps)) http.Handler {
	t.Helper()
	cartSvc, err := cart.NewService(cart.NewMemoryStore(), nil)
	require.NoError(t, err)
	deps := Deps{
		Config:      testConfig(),
		DB:          stubPinger{},
		Redis:       stubPinger{},
		Idempotency: &memoryIdempotency{data: map[string]string{}},
		Cart:        cartSvc,
		Admin:       stubAdmin{},
	}
	if mutate != nil {
		mutate(&deps)
	}
	return NewRouter(deps)
}

func bearer(t *testing.T, uid string) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testConfig().JWT, time.Now(), pkgAuth.AccessTokenPayload{UserID: uid, Email: uid + "@extroworld.cz"})
	require.NoError(t, err)
	return "Bearer " + token
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t, nil)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, resp.Code)

	degraded := newTestRouter(t, func(d *Deps) { d.Redis = stubPinger{err: errors.New("connection refused")} })
	resp = httptest.NewRecorder()
	degraded.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestCartRequiresCustomerToken(t *testing.T) {
	router := newTestRouter(t, nil)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestCartAddAndRead(t *testing.T) {
	router := newTestRouter(t, nil)
	auth := bearer(t, "uid-1")

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(
			`{"productId":"prod_tee","name":"Tee","price":1250,"size":"M","quantity":1}`))
		req.Header.Set("Authorization", auth)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", auth)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Data struct {
			Items     []cart.LineItem `json:"items"`
			Subtotal  int64           `json:"subtotal"`
			ItemCount int             `json:"itemCount"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Data.Items, 1)
	assert.Equal(t, 2, body.Data.Items[0].Quantity)
	assert.Equal(t, int64(2500), body.Data.Subtotal)
	assert.Equal(t, 2, body.Data.ItemCount)

	other := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	other.Header.Set("Authorization", bearer(t, "uid-2"))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, other)
	assert.NotContains(t, resp.Body.String(), "prod_tee")
}

func TestPlaceOrderRequiresIdempotencyKey(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{}`))
	req.Header.Set("Authorization", bearer(t, "uid-1"))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "Idempotency-Key")
}

func TestAdminRoutesRequireSession(t *testing.T) {
	router := newTestRouter(t, nil)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AdminCookieName, Value: "tok"})
	req.AddCookie(&http.Cookie{Name: middleware.AdminSignatureCookieName, Value: "sig"})
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"paidRevenue":2980`)
}

func TestSiteLockGatesPagesButNotAPI(t *testing.T) {
	now := time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)
	gate := sitelock.NewGate(config.LockConfig{
		Enabled:  true,
		UnlockAt: time.Date(2025, 12, 8, 0, 0, 0, 0, time.UTC),
	}, stubAdmin{}, func() time.Time { return now })
	router := newTestRouter(t, func(d *Deps) { d.Lock = gate })

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/drops", nil))
	assert.Equal(t, http.StatusFound, resp.Code)

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/lock/status", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"locked":true`)

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/lock/unlock", strings.NewReader(`{"username":"x","password":"y"}`)))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Empty(t, resp.Result().Cookies())
}
