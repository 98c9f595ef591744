package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/service-center/internal/apperr"
	"github.com/ukydev/service-center/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	PrincipalContextKey contextKey = "principal"
	RequestIDContextKey contextKey = "request_id"
)

// Resolver turns an Authorization header value into a principal
type Resolver interface {
	Resolve(ctx context.Context, authorization string) (*models.Principal, error)
}

// AuthMiddleware provides bearer token authentication
type AuthMiddleware struct {
	resolver Resolver
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(resolver Resolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

// Authenticate resolves the Authorization header and adds the principal to
// the request context. Routes that need no identity are mounted outside it.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := m.resolver.Resolve(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			status := apperr.HTTPStatus(err)
			if status == http.StatusInternalServerError {
				log.WithError(err).Error("Failed to resolve principal")
				writeError(w, status, "internal server error")
				return
			}
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, status, "could not validate credentials")
			return
		}

		ctx := context.WithValue(r.Context(), PrincipalContextKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetPrincipalFromContext extracts the authenticated principal from ctx
func GetPrincipalFromContext(ctx context.Context) (*models.Principal, bool) {
	p, ok := ctx.Value(PrincipalContextKey).(*models.Principal)
	return p, ok && p != nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
