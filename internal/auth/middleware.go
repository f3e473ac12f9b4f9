// Package auth provides HTTP middleware for bearer token authentication.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// NewAuthMiddleware returns an HTTP middleware that enforces bearer token
// authentication. If the configured token is empty, authentication is disabled
// and all requests pass through to the next handler unconditionally.
//
// When enabled, the middleware requires the incoming request to carry an
// Authorization header with the exact format:
//
//	Authorization: Bearer <token>
//
// The "Bearer" prefix is case-sensitive and must be followed by exactly one
// space before the token value. Requests whose path is listed in exempt skip
// the check.
func NewAuthMiddleware(token string, exempt ...string) func(http.Handler) http.Handler {
	open := make(map[string]struct{}, len(exempt))
	for _, p := range exempt {
		open[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := open[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			const prefix = "Bearer "
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, prefix) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			provided := authHeader[len(prefix):]
			if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
