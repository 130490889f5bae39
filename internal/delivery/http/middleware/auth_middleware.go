package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/usecase"
	"clinic-management-api/pkg/response"
)

type contextKey string

const (
	PrincipalKey contextKey = "principal"
)

// Authenticator resolves a bearer token to the caller.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*usecase.Principal, error)
}

type AuthMiddleware struct {
	authenticator Authenticator
}

func NewAuthMiddleware(authenticator Authenticator) *AuthMiddleware {
	return &AuthMiddleware{
		authenticator: authenticator,
	}
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header is required")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(w, "Invalid authorization header format")
			return
		}

		principal, err := m.authenticator.Authenticate(r.Context(), parts[1])
		if err != nil {
			switch {
			case errors.Is(err, usecase.ErrTokenRevoked):
				response.Unauthorized(w, "Token has been revoked")
			case errors.Is(err, usecase.ErrInvalidToken):
				response.Unauthorized(w, "Invalid or expired token")
			default:
				response.InternalServerError(w, "Failed to validate token")
			}
			return
		}

		ctx := WithPrincipal(r.Context(), *principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithPrincipal stores the authenticated caller on ctx.
func WithPrincipal(ctx context.Context, principal usecase.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, principal)
}

// PrincipalFromContext extracts the authenticated caller from context
func PrincipalFromContext(ctx context.Context) (usecase.Principal, bool) {
	principal, ok := ctx.Value(PrincipalKey).(usecase.Principal)
	return principal, ok
}

// ActorFromContext extracts the caller's actor from context
func ActorFromContext(ctx context.Context) (entity.Actor, bool) {
	principal, ok := PrincipalFromContext(ctx)
	if !ok {
		return entity.Actor{}, false
	}
	return principal.Actor, true
}
