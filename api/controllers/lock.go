package controllers

import (
	"net/http"

	"github.com/jirivrbic-boss/extroworld/api/middleware"
	"github.com/jirivrbic-boss/extroworld/api/responses"
	"github.com/jirivrbic-boss/extroworld/api/validators"
	"github.com/jirivrbic-boss/extroworld/internal/admin"
	"github.com/jirivrbic-boss/extroworld/internal/sitelock"
	"github.com/jirivrbic-boss/extroworld/pkg/logger"
)

func LockStatus(gate *sitelock.Gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, gate.Status())
	}
}

// LockUnlock sets the unlock cookie for browsers that present admin credentials.
func LockUnlock(gate *sitelock.Gate, secureCookies bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req admin.LoginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		value, ttl, err := gate.Unlock(ctx, req, middleware.ClientIPFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     sitelock.CookieName,
			Value:    value,
			Path:     "/",
			MaxAge:   int(ttl.Seconds()),
			HttpOnly: true,
			Secure:   secureCookies,
			SameSite: http.SameSiteLaxMode,
		})
		responses.WriteSuccess(w, map[string]bool{"ok": true})
	}
}
