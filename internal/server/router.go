package server

import (
	"net/http"
	"time"

	"github.com/atelierhq/atelier/internal/server/handlers"
	"github.com/atelierhq/atelier/internal/server/ratelimit"
	"github.com/atelierhq/atelier/internal/storage"
)

// Options configures the router beyond its service dependencies.
type Options struct {
	JWTSecret   string
	TokenExpiry time.Duration
	// AuthRatePerMin and WriteRatePerMin are per-IP limits. Zero disables
	// the corresponding gate.
	AuthRatePerMin  int
	WriteRatePerMin int
	MaxUploadBytes  int64
	Version         string
}

// Router dispatches HTTP requests and owns the rate limiter buckets.
type Router struct {
	mux        *http.ServeMux
	handler    http.Handler
	authLimit  *ratelimit.Limiter
	writeLimit *ratelimit.Limiter
}

// NewRouter builds the API router over the given services.
func NewRouter(users *storage.UserService, projects *storage.ProjectService, apps *storage.ApplicationService, assets *storage.AssetService, opts Options) *Router {
	rt := &Router{mux: http.NewServeMux()}
	if opts.AuthRatePerMin > 0 {
		rt.authLimit = ratelimit.NewLimiter(opts.AuthRatePerMin, time.Minute)
	}
	if opts.WriteRatePerMin > 0 {
		rt.writeLimit = ratelimit.NewLimiter(opts.WriteRatePerMin, time.Minute)
	}

	auth := handlers.NewAuthHandler(users, opts.JWTSecret, opts.TokenExpiry)
	user := handlers.NewUserHandler(users, projects, apps)
	admin := handlers.NewAdminHandler(users, projects, apps)
	upload := handlers.NewUploadHandler(assets, opts.MaxUploadBytes)
	health := handlers.NewHealthHandler(opts.Version)

	authed := requireAuth
	admined := requireAdmin
	authGate := func(h http.Handler) http.Handler { return withRateLimit(rt.authLimit, h) }
	writeGate := func(h http.Handler) http.Handler { return withRateLimit(rt.writeLimit, h) }

	rt.mux.Handle("POST /api/auth/signup", authGate(Wrap(auth.Signup)))
	rt.mux.Handle("POST /api/auth/login", authGate(Wrap(auth.Login)))
	rt.mux.Handle("POST /api/auth/logout", Wrap(auth.Logout))
	rt.mux.Handle("GET /api/auth/me", authed(Wrap(auth.Me)))

	// The works listing lives under /api/users for frontend compatibility;
	// {id} only matches a single segment so these never collide.
	rt.mux.Handle("GET /api/users/projects/all", Wrap(user.ListWorks))
	rt.mux.Handle("GET /api/users/projects/{id}", Wrap(user.GetWork))
	rt.mux.Handle("GET /api/users", Wrap(user.List))
	rt.mux.Handle("GET /api/users/{id}", Wrap(user.Get))
	rt.mux.Handle("PUT /api/users/{id}", authed(writeGate(Wrap(user.Update))))
	rt.mux.Handle("POST /api/users/{id}/complete-onboarding", authed(writeGate(Wrap(user.CompleteOnboarding))))

	rt.mux.Handle("GET /api/admin/pending-users", admined(Wrap(admin.PendingUsers)))
	rt.mux.Handle("POST /api/admin/approve/{id}", admined(writeGate(Wrap(admin.Approve))))
	rt.mux.Handle("POST /api/admin/reject/{id}", admined(writeGate(Wrap(admin.Reject))))

	rt.mux.Handle("POST /api/upload/profile-image", authed(writeGate(upload.Image(storage.ImageProfile))))
	rt.mux.Handle("POST /api/upload/banner-image", authed(writeGate(upload.Image(storage.ImageBanner))))
	rt.mux.Handle("POST /api/upload/project-image", authed(writeGate(upload.Image(storage.ImageProject))))

	rt.mux.Handle("GET /api/health", Wrap(health.Health))

	rt.handler = withRequestMetadata(withAuthentication([]byte(opts.JWTSecret), rt.mux))
	return rt
}

// ServeHTTP implements http.Handler.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.handler.ServeHTTP(w, r)
}

// Close stops the rate limiter cleanup goroutines.
func (rt *Router) Close() {
	if rt.authLimit != nil {
		rt.authLimit.Stop()
	}
	if rt.writeLimit != nil {
		rt.writeLimit.Stop()
	}
}
