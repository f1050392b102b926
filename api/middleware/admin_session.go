package middleware

import (
	"context"
	"net/http"

	"github.com/jirivrbic-boss/extroworld/api/responses"
	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
	"github.com/jirivrbic-boss/extroworld/pkg/logger"
)

const (
	AdminCookieName          = "extro_admin"
	AdminSignatureCookieName = "extro_admin_sig"
)

type adminAuthenticator interface {
	Authenticate(ctx context.Context, token, signature string) (string, error)
}

// AdminSession requires both admin cookies and a live session behind them.
func AdminSession(authn adminAuthenticator, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := cookieValue(r, AdminCookieName)
			sig := cookieValue(r, AdminSignatureCookieName)
			if token == "" || sig == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin session required"))
				return
			}

			username, err := authn.Authenticate(r.Context(), token, sig)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithAdmin(r.Context(), username)
			if logg != nil {
				ctx = logg.WithField(ctx, "admin", username)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
