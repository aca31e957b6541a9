package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"clinic-appointment-service/pkg/identity"
	"clinic-appointment-service/pkg/response"
)

type contextKey string

const (
	IdentityKey contextKey = "identity"
)

type AuthMiddleware struct {
	provider identity.Provider
}

func NewAuthMiddleware(provider identity.Provider) *AuthMiddleware {
	return &AuthMiddleware{
		provider: provider,
	}
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "No token provided")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Unauthorized(w, "Invalid authorization header format")
			return
		}

		id, err := m.provider.Verify(r.Context(), parts[1])
		if err != nil {
			if errors.Is(err, identity.ErrEmailNotVerified) {
				response.Forbidden(w, "Email not verified")
				return
			}
			response.Unauthorized(w, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), IdentityKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetIdentityFromContext extracts the verified caller from context
func GetIdentityFromContext(ctx context.Context) (*identity.Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(*identity.Identity)
	return id, ok && id != nil
}

// GetUserIDFromContext extracts user ID from context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := GetIdentityFromContext(ctx)
	if !ok || id.UserID == "" {
		return "", false
	}
	return id.UserID, true
}

// WithIdentity stores id in ctx the way Authenticate does
func WithIdentity(ctx context.Context, id *identity.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}
