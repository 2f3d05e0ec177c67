package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizbook/internal/core/id"
)

func testUser() *User {
	return &User{
		ID:          id.New(),
		Email:       "clerk@example.com",
		Roles:       []Role{{Code: RoleUser}},
		Permissions: []string{"sales-orders:create"},
	}
}

func TestJWT_RoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("secret"))
	user := testUser()
	now := time.Now()

	token, exp, err := svc.GenerateAccessToken(user, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(15*time.Minute), exp)

	uc, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), uc.UserID)
	assert.Equal(t, "clerk@example.com", uc.Email)
	assert.Equal(t, []string{RoleUser}, uc.Roles)
	assert.True(t, uc.HasPermission("sales-orders:create"))
}

func TestJWT_Rejects(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("secret"))
	user := testUser()

	expired, _, err := svc.GenerateAccessToken(user, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	cfg := DefaultJWTConfig("other-secret")
	foreign, _, err := NewJWTService(cfg).GenerateAccessToken(user, time.Now())
	require.NoError(t, err)

	cfg = DefaultJWTConfig("secret")
	cfg.Issuer = "someone-else"
	wrongIssuer, _, err := NewJWTService(cfg).GenerateAccessToken(user, time.Now())
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:    "bizbook",
		Subject:   user.ID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"expired":      expired,
		"wrong secret": foreign,
		"wrong issuer": wrongIssuer,
		"alg none":     unsigned,
		"garbage":      "not.a.token",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			assert.Error(t, err)
		})
	}
}
