// Package reqctx carries per-request metadata through context values.
package reqctx

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type ctxKey int

const (
	identityKey ctxKey = iota
	clientIPKey
)

// Identity is the authenticated caller, extracted from the bearer token.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

// IsAdmin reports whether the caller has the admin role.
func (i *Identity) IsAdmin() bool { return i != nil && i.Role == "admin" }

// WithIdentity stores the caller identity in the context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// CallerIdentity returns the caller identity, or nil for anonymous
// requests.
func CallerIdentity(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// WithClientIP stores the client IP in the context.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIP returns the client IP, or "" if unknown.
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}

// GetClientIP extracts the client IP from a request, preferring the first
// X-Forwarded-For hop when present.
func GetClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
