package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/atelierhq/atelier/internal/server/dto"
	"github.com/atelierhq/atelier/internal/server/handlers"
	"github.com/atelierhq/atelier/internal/server/ratelimit"
	"github.com/atelierhq/atelier/internal/server/reqctx"
)

// withRequestMetadata records the client IP in the context and logs the
// request once it completes.
func withRequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := reqctx.WithClientIP(r.Context(), reqctx.GetClientIP(r))
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r.WithContext(ctx))
		slog.DebugContext(ctx, "http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"dur", time.Since(start).Round(time.Millisecond))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// withAuthentication parses a bearer token when present and attaches the
// caller identity. An invalid token is treated as anonymous; routes that
// need authentication reject via requireAuth.
func withAuthentication(secret []byte, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, err := handlers.ParseToken(secret, token)
		if err != nil {
			slog.DebugContext(r.Context(), "Rejected bearer token", "err", err)
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(reqctx.WithIdentity(r.Context(), id)))
	})
}

// requireAuth rejects anonymous requests.
func requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqctx.CallerIdentity(r.Context()) == nil {
			writeError(r.Context(), w, dto.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAdmin rejects callers without the admin role.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := reqctx.CallerIdentity(r.Context())
		if caller == nil {
			writeError(r.Context(), w, dto.Unauthorized("Authentication required"))
			return
		}
		if !caller.IsAdmin() {
			writeError(r.Context(), w, dto.Forbidden("Admin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit gates requests per client IP. A nil limiter disables the
// gate.
func withRateLimit(l *ratelimit.Limiter, next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(reqctx.ClientIP(r.Context())) {
			writeError(r.Context(), w, dto.RateLimited())
			return
		}
		next.ServeHTTP(w, r)
	})
}
