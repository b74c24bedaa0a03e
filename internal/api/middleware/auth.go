package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sarelsmotors/garage/internal/auth"
)

// CookieName is the session cookie carrying the signed token.
const CookieName = "auth_token"

type contextKey string

const (
	ClaimsKey         contextKey = "claims"
	TokenKey          contextKey = "token"
	UserIDKey         contextKey = "user_id"
	OrganizationIDKey contextKey = "organization_id"
	UserRoleKey       contextKey = "user_role"
)

// RequireAuth protects JSON endpoints. The token is taken from the
// Authorization header or, for the browser, from the session cookie.
// Failures answer 401 and never redirect.
func RequireAuth(tokens auth.TokenService, revocations auth.RevocationStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				writeUnauthorized(w)
				return
			}

			claims, err := tokens.ValidateToken(token)
			if err != nil {
				logger.Debug("api token rejected", "path", r.URL.Path, "error", err)
				writeUnauthorized(w)
				return
			}

			if isRevoked(r.Context(), revocations, token, logger) {
				writeUnauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims, token)))
		})
	}
}

// TokenFromRequest prefers a Bearer header over the session cookie.
func TokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// isRevoked fails closed: a store error counts as revoked.
func isRevoked(ctx context.Context, store auth.RevocationStore, token string, logger *slog.Logger) bool {
	if store == nil {
		return false
	}
	revoked, err := store.IsRevoked(ctx, token)
	if err != nil {
		logger.Warn("revocation check failed", "error", err)
		return true
	}
	return revoked
}

func withClaims(ctx context.Context, claims *auth.Claims, token string) context.Context {
	ctx = context.WithValue(ctx, ClaimsKey, claims)
	ctx = context.WithValue(ctx, TokenKey, token)
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	ctx = context.WithValue(ctx, OrganizationIDKey, claims.OrganizationID)
	ctx = context.WithValue(ctx, UserRoleKey, claims.Role)
	return ctx
}

func writeUnauthorized(w http.ResponseWriter) {
	writeJSONMessage(w, http.StatusUnauthorized, "Unauthorized")
}

func writeJSONMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// Helper functions to extract values from context
func GetClaims(ctx context.Context) *auth.Claims {
	if claims, ok := ctx.Value(ClaimsKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}

func GetToken(ctx context.Context) string {
	if token, ok := ctx.Value(TokenKey).(string); ok {
		return token
	}
	return ""
}

func GetUserID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(UserIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

func GetOrganizationID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(OrganizationIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

func GetUserRole(ctx context.Context) string {
	if role, ok := ctx.Value(UserRoleKey).(string); ok {
		return role
	}
	return ""
}

// RequireRole middleware ensures user has specific role
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userRole := GetUserRole(r.Context())

			for _, role := range roles {
				if userRole == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeJSONMessage(w, http.StatusForbidden, "Forbidden")
		})
	}
}
