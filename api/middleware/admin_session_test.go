package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jirivrbic-boss/extroworld/internal/sitelock"
	"github.com/jirivrbic-boss/extroworld/pkg/config"
	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
)

type stubAuthenticator struct {
	token, sig string
}

func (s stubAuthenticator) Authenticate(_ context.Context, token, signature string) (string, error) {
	if token == s.token && signature == s.sig {
		return "owner", nil
	}
	return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid session")
}

func TestAdminSessionRequiresBothCookies(t *testing.T) {
	mw := AdminSession(stubAuthenticator{token: "tok", sig: "sig"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	req.AddCookie(&http.Cookie{Name: AdminCookieName, Value: "tok"})
	resp := httptest.NewRecorder()
	mw(okHandler()).ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAdminSessionRejectsForgedSignature(t *testing.T) {
	mw := AdminSession(stubAuthenticator{token: "tok", sig: "sig"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	req.AddCookie(&http.Cookie{Name: AdminCookieName, Value: "tok"})
	req.AddCookie(&http.Cookie{Name: AdminSignatureCookieName, Value: "forged"})
	resp := httptest.NewRecorder()
	mw(okHandler()).ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAdminSessionSeedsContext(t *testing.T) {
	mw := AdminSession(stubAuthenticator{token: "tok", sig: "sig"}, nil)
	var admin string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin = AdminFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	req.AddCookie(&http.Cookie{Name: AdminCookieName, Value: "tok"})
	req.AddCookie(&http.Cookie{Name: AdminSignatureCookieName, Value: "sig"})
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "owner", admin)
}

func TestSiteLockRedirectsPagesUntilUnlocked(t *testing.T) {
	now := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	gate := sitelock.NewGate(config.LockConfig{
		Enabled:  true,
		UnlockAt: time.Date(2025, 12, 8, 0, 0, 0, 0, time.UTC),
	}, nil, func() time.Time { return now })
	handler := SiteLock(gate)(okHandler())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/shop", nil))
	assert.Equal(t, http.StatusFound, resp.Code)
	assert.Equal(t, sitelock.LockPath, resp.Header().Get("Location"))

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	assert.Equal(t, http.StatusOK, resp.Code)

	req := httptest.NewRequest(http.MethodGet, "/shop", nil)
	req.AddCookie(&http.Cookie{Name: sitelock.CookieName, Value: "1"})
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusOK, resp.Code)

	now = time.Date(2025, 12, 8, 0, 0, 1, 0, time.UTC)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/shop", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
}
