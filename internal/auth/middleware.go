package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// contextKey is unexported so only this package can read or write the
// claims stored in a request context.
type contextKey string

const claimsKey contextKey = "claims"

// TokenDecoder is the part of TokenService the middleware needs.
type TokenDecoder interface {
	Decode(tokenStr string) (*Claims, error)
}

// RequireAuth is a middleware that enforces authentication on protected
// routes.
//
// It reads the JWT from the "Authorization: Bearer <token>" header, decodes
// it and stores the claims in the request context. A missing, malformed or
// expired token stops the chain with 401. The response tells an expired
// session apart from an invalid one so clients know to log in again.
func RequireAuth(tokens TokenDecoder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := extractClaims(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				w.WriteHeader(http.StatusUnauthorized)
				if errors.Is(err, ErrTokenExpired) {
					_, _ = w.Write([]byte(`{"error":"unauthorized","message":"session expired"}`))
					return
				}
				_, _ = w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the claims stored by RequireAuth.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok && c != nil
}

// UserIDFromContext retrieves the authenticated user's ID from the request
// context. Returns ("", false) for anonymous requests.
//
//	userID, ok := auth.UserIDFromContext(r.Context())
//	if !ok {
//	    // anonymous user
//	}
func UserIDFromContext(ctx context.Context) (string, bool) {
	c, ok := ClaimsFromContext(ctx)
	if !ok || c.UserID == "" {
		return "", false
	}
	return c.UserID, true
}

func extractClaims(r *http.Request, tokens TokenDecoder) (*Claims, error) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return nil, ErrTokenInvalid
	}
	return tokens.Decode(strings.TrimSpace(token))
}
