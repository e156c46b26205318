package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/pinpointhq/pinpoint-backend/internal/domain"
	"github.com/pinpointhq/pinpoint-backend/pkg/ctxutil"
)

type orgResolver interface {
	GetBySubdomain(ctx context.Context, subdomain string) (*domain.Organization, error)
}

// Tenant resolves the organization for a request and stores its ID in the
// context. The subdomain comes from the X-Organization header when present,
// otherwise from the first label of the Host. Unknown tenants get 404.
func Tenant(orgs orgResolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub := subdomainOf(r)
			if sub == "" {
				http.Error(w, "unknown organization", http.StatusNotFound)
				return
			}
			org, err := orgs.GetBySubdomain(r.Context(), sub)
			if err != nil {
				http.Error(w, "unknown organization", http.StatusNotFound)
				return
			}
			ctx := ctxutil.WithOrgID(r.Context(), org.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func subdomainOf(r *http.Request) string {
	if h := strings.TrimSpace(r.Header.Get("X-Organization")); h != "" {
		return h
	}
	host := r.Host
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	parts := strings.Split(host, ".")
	if len(parts) < 3 {
		return ""
	}
	return parts[0]
}
