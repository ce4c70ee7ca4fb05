package httputil

import (
	"context"
	"net/http"
	"strings"

	"github.com/icnsas/payslip-vault/internal/domain"
)

// CORSMiddleware creates CORS middleware that handles preflight requests
// and adds appropriate CORS headers to responses.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	originsSet := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originsSet[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if originsSet[origin] || originsSet["*"] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type contextKey string

// identityKey stores the verified identity in the request context.
const identityKey contextKey = "identity"

// Identity is the decoded, verified set of token claims used for
// authorization decisions downstream.
type Identity struct {
	ID    string
	Role  domain.Role
	Email string
}

// TokenValidator validates a bearer token and returns the identity it encodes.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (Identity, error)
}

// AuthMiddleware creates authentication middleware. Requests without a
// valid bearer token fail closed before any protected handler runs.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				Error(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				Error(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			identity, err := validator.ValidateToken(r.Context(), parts[1])
			if err != nil {
				Error(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole creates RBAC middleware gating privileged routes.
func RequireRole(minRole domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := r.Context().Value(identityKey).(Identity)
			if !ok {
				Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			if !identity.Role.HasPermission(minRole) {
				Error(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetIdentity extracts the verified identity from context.
// The second return value is false for unauthenticated requests.
func GetIdentity(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}

// WithIdentity returns a context carrying the identity. Used in tests.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}
