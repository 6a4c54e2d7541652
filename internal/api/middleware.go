/**
 * @description
 * This file contains custom middleware for the HTTP router. The auth middleware
 * validates the bearer token on every protected request and threads the caller's
 * principal through the request context, so handlers never trust a caller-supplied
 * identity field.
 *
 * @dependencies
 * - context, net/http, strings: Standard Go libraries.
 * - github.com/golang-jwt/jwt/v5: JWT parsing and validation.
 */

package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// PrincipalContextKey is a custom type for the context key to avoid collisions.
type PrincipalContextKey string

const callerPrincipalKey PrincipalContextKey = "callerPrincipal"

// AuthMiddleware creates a middleware that validates HS256 bearer tokens signed
// with the shared service secret. The `sub` claim carries the caller's principal.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil {
				http.Error(w, fmt.Sprintf("Invalid token: %v", err), http.StatusUnauthorized)
				return
			}
			if !token.Valid {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "Invalid token claims", http.StatusUnauthorized)
				return
			}

			principal, ok := claims["sub"].(string)
			if !ok || strings.TrimSpace(principal) == "" {
				http.Error(w, "Caller principal not found in token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), callerPrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetCallerPrincipal retrieves the authenticated caller's principal from the
// request context. Handlers should use this function for every authorization
// decision.
func GetCallerPrincipal(ctx context.Context) (string, bool) {
	principal, ok := ctx.Value(callerPrincipalKey).(string)
	return principal, ok
}
