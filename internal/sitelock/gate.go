package sitelock

import (
	"context"
	"strings"
	"time"

	"github.com/jirivrbic-boss/extroworld/internal/admin"
	"github.com/jirivrbic-boss/extroworld/pkg/config"
	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
)

const (
	// CookieName marks a browser that passed the unlock check.
	CookieName  = "site_unlocked"
	cookieValue = "1"
	// LockPath is where locked visitors are sent.
	LockPath = "/lock"
)

var allowedPrefixes = []string{
	"/lock",
	"/api/",
	"/health/",
	"/metrics",
	"/_next/",
	"/media/",
	"/apple-touch-icon",
}

type credentialChecker interface {
	CheckCredentials(ctx context.Context, scope string, req admin.LoginRequest, clientIP string) error
}

// Status is the public lock state.
type Status struct {
	Locked           bool      `json:"locked"`
	UnlockAt         time.Time `json:"unlockAt"`
	SecondsRemaining int64     `json:"secondsRemaining"`
}

// Gate holds the pre-launch lock: until UnlockAt, page requests without the
// unlock cookie are sent to the lock page.
type Gate struct {
	enabled   bool
	unlockAt  time.Time
	cookieTTL time.Duration
	creds     credentialChecker
	now       func() time.Time
}

// NewGate builds the gate from configuration. creds may be nil, in which
// case Unlock always fails.
func NewGate(cfg config.LockConfig, creds credentialChecker, now func() time.Time) *Gate {
	if now == nil {
		now = time.Now
	}
	ttl := cfg.CookieTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Gate{
		enabled:   cfg.Enabled,
		unlockAt:  cfg.UnlockAt.UTC(),
		cookieTTL: ttl,
		creds:     creds,
		now:       now,
	}
}

// Locked reports whether the lock is still in force.
func (g *Gate) Locked() bool {
	return g.enabled && g.now().Before(g.unlockAt)
}

// Status reports the lock state and the countdown.
func (g *Gate) Status() Status {
	status := Status{Locked: g.Locked(), UnlockAt: g.unlockAt}
	if status.Locked {
		status.SecondsRemaining = int64(g.unlockAt.Sub(g.now()).Seconds())
	}
	return status
}

// Allows reports whether a request for path may pass. cookie is the value of
// the unlock cookie, empty when absent.
func (g *Gate) Allows(path, cookie string) bool {
	if !g.Locked() {
		return true
	}
	if path == "/favicon.ico" || cookie == cookieValue {
		return true
	}
	for _, prefix := range allowedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	// files with an extension are assets
	if i := strings.LastIndex(path, "/"); strings.Contains(path[i+1:], ".") {
		return true
	}
	return false
}

// Unlock checks admin credentials under the unlock rate limit and returns the
// cookie value and lifetime to set.
func (g *Gate) Unlock(ctx context.Context, req admin.LoginRequest, clientIP string) (string, time.Duration, error) {
	if g.creds == nil {
		return "", 0, pkgerrors.New(pkgerrors.CodeInternal, "unlock is not configured")
	}
	if err := g.creds.CheckCredentials(ctx, "site_unlock", req, clientIP); err != nil {
		return "", 0, err
	}
	return cookieValue, g.cookieTTL, nil
}
