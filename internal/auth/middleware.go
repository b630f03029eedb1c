package auth

import (
	"context"
	"net/http"
)

// contextKey is unexported so only this package can read or write the
// session value in a request context; a plain string key could collide
// with or be shadowed by other packages.
type contextKey string

const usernameKey contextKey = "username"

// RequireAuth enforces a valid session on protected routes.
//
// It reads the JWT from the "token" HttpOnly cookie, validates it, and
// stores the username in the request context. A missing or invalid
// token stops the chain with 401.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, err := extractUsername(r, tokens)
			if err != nil {
				http.Error(w, `{"error":"unauthorized","message":"valid authentication required"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), usernameKey, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth extracts the session identity when a valid token is
// present but never blocks the request. Handlers see an anonymous
// request when UsernameFromContext returns ("", false).
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if username, err := extractUsername(r, tokens); err == nil && username != "" {
				ctx := context.WithValue(r.Context(), usernameKey, username)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UsernameFromContext retrieves the session's username, or ("", false)
// for anonymous requests.
func UsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(usernameKey).(string)
	return username, ok && username != ""
}

// extractUsername reads the JWT cookie and validates it. The cookie is
// HttpOnly so page scripts can never read the token.
func extractUsername(r *http.Request, tokens *TokenService) (string, error) {
	cookie, err := r.Cookie("token")
	if err != nil {
		return "", err
	}

	return tokens.Validate(cookie.Value)
}
