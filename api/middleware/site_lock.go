package middleware

import (
	"net/http"

	"github.com/jirivrbic-boss/extroworld/internal/sitelock"
)

type lockGate interface {
	Allows(path, cookie string) bool
}

// SiteLock redirects page requests to the lock page until launch unless the
// browser carries the unlock cookie. API paths pass through.
func SiteLock(gate lockGate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if gate == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if gate.Allows(r.URL.Path, cookieValue(r, sitelock.CookieName)) {
				next.ServeHTTP(w, r)
				return
			}
			http.Redirect(w, r, sitelock.LockPath, http.StatusFound)
		})
	}
}
