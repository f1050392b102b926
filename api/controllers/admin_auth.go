package controllers

import (
	"net/http"
	"time"

	"github.com/jirivrbic-boss/extroworld/api/middleware"
	"github.com/jirivrbic-boss/extroworld/api/responses"
	"github.com/jirivrbic-boss/extroworld/api/validators"
	"github.com/jirivrbic-boss/extroworld/internal/admin"
	"github.com/jirivrbic-boss/extroworld/pkg/logger"
)

// AdminLogin checks back-office credentials and sets the session cookie pair.
func AdminLogin(svc admin.Service, secureCookies bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("admin service"))
			return
		}
		var req admin.LoginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		session, err := svc.Login(ctx, req, middleware.ClientIPFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		maxAge := int(time.Until(session.ExpiresAt).Seconds())
		setAdminCookie(w, middleware.AdminCookieName, session.Token, maxAge, secureCookies)
		setAdminCookie(w, middleware.AdminSignatureCookieName, session.Signature, maxAge, secureCookies)
		responses.WriteSuccess(w, session)
	}
}

func AdminLogout(svc admin.Service, secureCookies bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if c, err := r.Cookie(middleware.AdminCookieName); err == nil {
			if err := svc.Logout(ctx, c.Value); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}
		setAdminCookie(w, middleware.AdminCookieName, "", -1, secureCookies)
		setAdminCookie(w, middleware.AdminSignatureCookieName, "", -1, secureCookies)
		responses.WriteSuccess(w, map[string]bool{"ok": true})
	}
}

func AdminStats(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

func AdminCreatePromo(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var input admin.PromoInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		promo, err := svc.CreatePromo(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, promo)
	}
}

func setAdminCookie(w http.ResponseWriter, name, value string, maxAge int, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}
