package middleware

import (
	"net/http"

	"clinic-appointment-service/pkg/response"
)

// RequireAdmin allows only callers whose token carries the admin claim.
// Must run after AuthMiddleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetIdentityFromContext(r.Context())
		if !ok {
			response.Unauthorized(w, "Identity not found")
			return
		}

		if !id.Admin {
			response.Forbidden(w, "You don't have permission to access this resource")
			return
		}

		next.ServeHTTP(w, r)
	})
}
