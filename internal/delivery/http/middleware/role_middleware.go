package middleware

import (
	"net/http"

	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/pkg/response"
)

// RequireRole creates a middleware that checks if the caller is any of the allowed
// actor kinds. The actor is read from context (set by AuthMiddleware).
func RequireRole(allowed ...entity.ActorKind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				response.Unauthorized(w, "Role information not found")
				return
			}

			permitted := false
			for _, kind := range allowed {
				if actor.Kind == kind {
					permitted = true
					break
				}
			}

			if !permitted {
				response.Forbidden(w, "You don't have permission to access this resource")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin is a convenience middleware for admin-only endpoints
func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(entity.ActorAdmin)(next)
}

// RequirePatient is a convenience middleware for patient-only endpoints
func RequirePatient(next http.Handler) http.Handler {
	return RequireRole(entity.ActorPatient)(next)
}

// RequireAdminOrDoctor is a convenience middleware for admin or doctor endpoints
func RequireAdminOrDoctor(next http.Handler) http.Handler {
	return RequireRole(entity.ActorAdmin, entity.ActorDoctor)(next)
}
