package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/vidmemo/vidmemo-server/internal/http/response"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	contextKeyUserID contextKey = "user_id"
	contextKeyEmail  contextKey = "email"
)

// requireAuth is middleware that validates access tokens and attaches user context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, r, "Missing authorization header", s.logger)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(w, r, "Invalid authorization header format", s.logger)
			return
		}

		claims, err := s.authService.VerifyAccessToken(parts[1])
		if err != nil {
			response.Unauthorized(w, r, "Invalid or expired token", s.logger)
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyUserID, claims.UserID)
		ctx = context.WithValue(ctx, contextKeyEmail, claims.Email)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// getUserID extracts the authenticated user ID from request context.
// Returns empty string if not authenticated.
func getUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(contextKeyUserID).(string); ok {
		return userID
	}
	return ""
}

// getEmail extracts the authenticated user email from request context.
// Returns empty string if not authenticated.
func getEmail(ctx context.Context) string {
	if email, ok := ctx.Value(contextKeyEmail).(string); ok {
		return email
	}
	return ""
}
