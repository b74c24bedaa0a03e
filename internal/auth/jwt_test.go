package auth_test

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sarelsmotors/garage/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var issuedAt = time.Unix(1_700_000_000, 0)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func TestJWTService_GenerateToken(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", 24*time.Hour)

	userID := uuid.New()
	orgID := uuid.New()

	t.Run("round trips claims", func(t *testing.T) {
		token, err := jwtService.GenerateToken(userID, orgID, "OWNER")
		require.NoError(t, err)
		assert.NotEmpty(t, token)

		claims, err := jwtService.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
		assert.Equal(t, orgID, claims.OrganizationID)
		assert.Equal(t, "OWNER", claims.Role)
	})

	t.Run("payload carries only the session fields", func(t *testing.T) {
		token, err := jwtService.GenerateToken(userID, orgID, "ADMIN")
		require.NoError(t, err)

		parts := strings.Split(token, ".")
		require.Len(t, parts, 3)
		raw, err := base64.RawURLEncoding.DecodeString(parts[1])
		require.NoError(t, err)

		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &payload))

		keys := make([]string, 0, len(payload))
		for k := range payload {
			keys = append(keys, k)
		}
		assert.ElementsMatch(t, []string{"userId", "role", "organizationId", "iat", "exp"}, keys)
		assert.Equal(t, userID.String(), payload["userId"])
	})

	t.Run("uses HS256", func(t *testing.T) {
		token, err := jwtService.GenerateToken(userID, orgID, "MECHANIC")
		require.NoError(t, err)

		parsed, _, err := jwt.NewParser().ParseUnverified(token, &auth.Claims{})
		require.NoError(t, err)
		assert.Equal(t, "HS256", parsed.Method.Alg())
	})

	t.Run("fails without signing key", func(t *testing.T) {
		_, err := auth.NewJWTService("", time.Hour).GenerateToken(userID, orgID, "OWNER")
		assert.ErrorIs(t, err, auth.ErrMissingSigningKey)
	})
}

func TestJWTService_ValidateToken(t *testing.T) {
	userID := uuid.New()
	orgID := uuid.New()

	t.Run("verification is idempotent", func(t *testing.T) {
		jwtService := auth.NewJWTService("test-secret", 24*time.Hour)

		token, err := jwtService.GenerateToken(userID, orgID, "ADMIN")
		require.NoError(t, err)

		first, err := jwtService.ValidateToken(token)
		require.NoError(t, err)
		second, err := jwtService.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("rejects token signed with different secret", func(t *testing.T) {
		token, err := auth.NewJWTService("secret-1", time.Hour).GenerateToken(userID, orgID, "OWNER")
		require.NoError(t, err)

		_, err = auth.NewJWTService("secret-2", time.Hour).ValidateToken(token)
		assert.ErrorIs(t, err, auth.ErrSignatureInvalid)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("rejects tampered payload", func(t *testing.T) {
		jwtService := auth.NewJWTService("test-secret", time.Hour)

		token, err := jwtService.GenerateToken(userID, orgID, "MECHANIC")
		require.NoError(t, err)
		other, err := jwtService.GenerateToken(userID, orgID, "OWNER")
		require.NoError(t, err)

		parts := strings.Split(token, ".")
		parts[1] = strings.Split(other, ".")[1]

		_, err = jwtService.ValidateToken(strings.Join(parts, "."))
		assert.ErrorIs(t, err, auth.ErrSignatureInvalid)
	})

	t.Run("rejects other signing methods", func(t *testing.T) {
		claims := auth.Claims{
			UserID:         userID,
			OrganizationID: orgID,
			Role:           "OWNER",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = auth.NewJWTService("test-secret", time.Hour).ValidateToken(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("rejects token without expiry", func(t *testing.T) {
		claims := auth.Claims{UserID: userID, OrganizationID: orgID, Role: "OWNER"}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = auth.NewJWTService("test-secret", time.Hour).ValidateToken(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("rejects malformed token", func(t *testing.T) {
		jwtService := auth.NewJWTService("test-secret", time.Hour)

		for _, raw := range []string{"", "not-a-valid-jwt", "a.b.c"} {
			_, err := jwtService.ValidateToken(raw)
			assert.ErrorIs(t, err, auth.ErrMalformedToken, raw)
		}
	})

	t.Run("fails closed without signing key", func(t *testing.T) {
		token, err := auth.NewJWTService("test-secret", time.Hour).GenerateToken(userID, orgID, "OWNER")
		require.NoError(t, err)

		_, err = auth.NewJWTService("", time.Hour).ValidateToken(token)
		assert.ErrorIs(t, err, auth.ErrMissingSigningKey)
	})
}

func TestJWTService_ExpiryBoundary(t *testing.T) {
	const ttl = 24 * time.Hour
	clock := &fakeClock{now: issuedAt}
	jwtService := auth.NewJWTService("test-secret", ttl, auth.WithClock(clock.Now))

	token, err := jwtService.GenerateToken(uuid.New(), uuid.New(), "OWNER")
	require.NoError(t, err)

	tests := []struct {
		name    string
		at      time.Time
		expired bool
	}{
		{"at issue", issuedAt, false},
		{"one second before expiry", issuedAt.Add(ttl - time.Second), false},
		{"exactly at expiry", issuedAt.Add(ttl), true},
		{"one second after expiry", issuedAt.Add(ttl + time.Second), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.now = tt.at
			claims, err := jwtService.ValidateToken(token)
			if tt.expired {
				assert.ErrorIs(t, err, auth.ErrExpiredToken)
				assert.ErrorIs(t, err, auth.ErrInvalidToken)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, issuedAt.Unix(), claims.IssuedAt.Unix())
			assert.Equal(t, issuedAt.Add(ttl).Unix(), claims.ExpiresAt.Unix())
		})
	}
}

func TestJWTService_DifferentRoles(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", 24*time.Hour)

	userID := uuid.New()
	orgID := uuid.New()

	for _, role := range []string{"OWNER", "ADMIN", "MECHANIC"} {
		t.Run("handles "+role+" role", func(t *testing.T) {
			token, err := jwtService.GenerateToken(userID, orgID, role)
			require.NoError(t, err)

			claims, err := jwtService.ValidateToken(token)
			require.NoError(t, err)
			assert.Equal(t, role, claims.Role)
		})
	}
}

func TestRemainingTTL(t *testing.T) {
	claims := &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
	}}
	assert.Equal(t, time.Hour, auth.RemainingTTL(claims, issuedAt))
	assert.Equal(t, time.Duration(0), auth.RemainingTTL(&auth.Claims{}, issuedAt))

	assert.True(t, strings.HasPrefix(auth.RevocationKey("abc"), "revoked_token:"))
	assert.NotContains(t, auth.RevocationKey("abc"), "abc")
}
