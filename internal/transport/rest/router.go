package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pinpointhq/pinpoint-backend/internal/config"
	"github.com/pinpointhq/pinpoint-backend/internal/domain"
	"github.com/pinpointhq/pinpoint-backend/internal/transport/middleware"
)

// OrgResolver resolves the tenant addressed by a request.
type OrgResolver interface {
	GetBySubdomain(ctx context.Context, subdomain string) (*domain.Organization, error)
}

// TokenValidator verifies access tokens and returns the subject and role.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (uuid.UUID, string, error)
}

// RouterDeps carries everything the HTTP router needs.
type RouterDeps struct {
	Issues   *IssuesHandler
	Machines *MachinesHandler
	Auth     *AuthHandler
	Health   *HealthHandler

	Orgs      OrgResolver
	Validator TokenValidator

	Logger *slog.Logger
	CORS   config.CORSConfig

	// RateLimitPerMin disables rate limiting when zero.
	RateLimitPerMin int
}

// NewRouter assembles the HTTP routes and middleware stack. The returned
// cleanup stops background goroutines and must be called on shutdown.
func NewRouter(deps RouterDeps) (http.Handler, func()) {
	mux := http.NewServeMux()

	// Probes sit outside the tenant scope; they answer on any host.
	mux.HandleFunc("GET /live", deps.Health.Live)
	mux.HandleFunc("GET /ready", deps.Health.Ready)
	mux.HandleFunc("GET /health", deps.Health.Health)

	api := http.NewServeMux()
	api.HandleFunc("POST /api/auth/login", deps.Auth.Login)
	api.HandleFunc("POST /api/auth/register", deps.Auth.Register)
	api.HandleFunc("GET /api/auth/me", deps.Auth.Me)
	api.HandleFunc("GET /api/users", deps.Auth.ListUsers)

	api.HandleFunc("GET /api/machines", deps.Machines.List)
	api.HandleFunc("POST /api/machines", deps.Machines.Create)
	api.HandleFunc("GET /api/machines/{initials}", deps.Machines.Get)
	api.HandleFunc("PATCH /api/machines/{initials}", deps.Machines.Update)

	api.HandleFunc("GET /api/issues", deps.Issues.List)
	api.HandleFunc("POST /api/issues", deps.Issues.Create)
	api.HandleFunc("GET /api/issues/{ref}", deps.Issues.Get)
	api.HandleFunc("PATCH /api/issues/{ref}", deps.Issues.Update)
	api.HandleFunc("DELETE /api/issues/{ref}", deps.Issues.Delete)
	api.HandleFunc("GET /api/issues/{ref}/comments", deps.Issues.ListComments)
	api.HandleFunc("POST /api/issues/{ref}/comments", deps.Issues.AddComment)
	api.HandleFunc("DELETE /api/issues/{ref}/comments/{id}", deps.Issues.DeleteComment)
	api.HandleFunc("POST /api/issues/{ref}/watch", deps.Issues.Watch)
	api.HandleFunc("DELETE /api/issues/{ref}/watch", deps.Issues.Unwatch)

	tenantChain := middleware.Chain(
		middleware.Tenant(deps.Orgs),
		middleware.Auth(deps.Validator),
	)
	mux.Handle("/api/", tenantChain(api))

	outer := []middleware.Middleware{
		middleware.RequestID,
		middleware.Logger(deps.Logger),
		middleware.Recovery(deps.Logger),
		middleware.CORS(deps.CORS),
	}

	cleanup := func() {}
	if deps.RateLimitPerMin > 0 {
		rl := middleware.NewRateLimiter(5 * time.Minute)
		outer = append(outer, rl.Limit(deps.RateLimitPerMin))
		cleanup = rl.Stop
	}

	return middleware.Chain(outer...)(mux), cleanup
}
