package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jirivrbic-boss/extroworld/api/responses"
	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
	"github.com/jirivrbic-boss/extroworld/pkg/logger"
)

// maxPeekBody bounds how much of a body is read to find the email field.
const maxPeekBody = 64 << 10

// RateLimitStore counts hits in fixed windows. The Redis client satisfies it.
type RateLimitStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimitPolicy throttles one public write surface (newsletter signup,
// checkout intents) per client IP and, optionally, per submitted email.
type RateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
}

// NewRateLimitPolicy builds a policy. A zero limit disables that dimension;
// emailLimit reads the "email" field of JSON bodies.
func NewRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) RateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "public"
	}
	return RateLimitPolicy{name: name, window: window, ipLimit: ipLimit, emailLimit: emailLimit}
}

func (p RateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

// hit is one counter a request is charged against.
type hit struct {
	dimension string
	subject   string
	limit     int
}

func (p RateLimitPolicy) scope(h hit) string {
	return h.dimension + ":" + p.name + ":" + h.subject
}

// RateLimit rejects requests over the policy with 429 and a Retry-After of
// one window. Counter failures surface as a dependency error.
func RateLimit(policy RateLimitPolicy, store RateLimitStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			hits, err := policy.hitsFor(r)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
				return
			}
			for _, h := range hits {
				allowed, count, err := store.FixedWindowAllow(ctx, policy.scope(h), int64(h.limit), policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !allowed {
					policy.reject(ctx, logg, w, h, count)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// hitsFor lists the counters r is charged against. Reading the email
// replaces r.Body with a replayable copy.
func (p RateLimitPolicy) hitsFor(r *http.Request) ([]hit, error) {
	var hits []hit
	if ip := clientIP(r); p.ipLimit > 0 && ip != "" {
		hits = append(hits, hit{dimension: "ip", subject: ip, limit: p.ipLimit})
	}
	if p.emailLimit <= 0 || r.Body == nil {
		return hits, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBody))
	if err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	if email := normalizeEmail(extractEmail(body)); email != "" {
		hits = append(hits, hit{dimension: "email", subject: hashValue(email), limit: p.emailLimit})
	}
	return hits, nil
}

func (p RateLimitPolicy) reject(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, h hit, count int64) {
	if logg != nil {
		fields := map[string]any{
			"scope":          h.dimension,
			"policy":         p.name,
			"attempts":       count,
			"limit":          h.limit,
			"window_seconds": int(p.window.Seconds()),
		}
		// emails are only ever logged hashed
		if h.dimension == "ip" {
			fields["ip"] = h.subject
		} else {
			fields["email_hash"] = h.subject
		}
		logg.Warn(logg.WithFields(ctx, fields), "rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(max(1, int(p.window.Seconds()))))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests, try again later"))
}

// clientIP prefers the first X-Forwarded-For hop set by the load balancer.
func clientIP(r *http.Request) string {
	if first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); strings.TrimSpace(first) != "" {
		return strings.TrimSpace(first)
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func extractEmail(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(payload, &body) != nil {
		return ""
	}
	return body.Email
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
