package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/jirivrbic-boss/extroworld/pkg/logger"
)

// Logging writes one access line per request. Server errors log at warn so
// they stand out next to the request.error line from the responder; probes
// under /health only log at debug.
func Logging(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logg == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			began := time.Now()
			ctx := logg.WithFields(r.Context(), map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
			})
			sw := &accessWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r.WithContext(ctx))

			ctx = logg.WithFields(ctx, map[string]any{
				"status":      sw.status,
				"bytes":       sw.written,
				"duration_ms": time.Since(began).Milliseconds(),
			})
			switch {
			case sw.status >= http.StatusInternalServerError:
				logg.Warn(ctx, "http.request")
			case isProbe(r.URL.Path):
				logg.Debug(ctx, "http.request")
			default:
				logg.Info(ctx, "http.request")
			}
		})
	}
}

func isProbe(path string) bool {
	return strings.HasPrefix(path, "/health")
}

// accessWriter remembers the first status written and counts body bytes.
type accessWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	written     int64
}

func (a *accessWriter) WriteHeader(code int) {
	if !a.wroteHeader {
		a.status, a.wroteHeader = code, true
	}
	a.ResponseWriter.WriteHeader(code)
}

func (a *accessWriter) Write(b []byte) (int, error) {
	a.wroteHeader = true
	n, err := a.ResponseWriter.Write(b)
	a.written += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (a *accessWriter) Unwrap() http.ResponseWriter { return a.ResponseWriter }
