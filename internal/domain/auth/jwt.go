package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	appctx "bizbook/internal/core/context"
	"bizbook/internal/core/id"
)

// JWTConfig configures access token signing.
type JWTConfig struct {
	Secret         string
	Issuer         string
	AccessTokenTTL time.Duration
	// Leeway tolerates clock skew between API replicas.
	Leeway time.Duration
}

func DefaultJWTConfig(secret string) JWTConfig {
	return JWTConfig{
		Secret:         secret,
		Issuer:         "bizbook",
		AccessTokenTTL: 15 * time.Minute,
		Leeway:         5 * time.Second,
	}
}

// accessClaims is the access token payload. The user id travels as sub.
type accessClaims struct {
	jwt.RegisteredClaims
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"perms,omitempty"`
	IsAdmin     bool     `json:"adm,omitempty"`
}

var errMissingSubject = errors.New("token has no subject")

// JWTService signs and verifies HS256 access tokens.
type JWTService struct {
	key    []byte
	ttl    time.Duration
	issuer string
	parser *jwt.Parser
}

func NewJWTService(cfg JWTConfig) *JWTService {
	return &JWTService{
		key:    []byte(cfg.Secret),
		ttl:    cfg.AccessTokenTTL,
		issuer: cfg.Issuer,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(cfg.Leeway),
		),
	}
}

// GenerateAccessToken signs a token carrying the user's roles and flattened
// permissions. It returns the token and its expiry.
func (s *JWTService) GenerateAccessToken(user *User, now time.Time) (string, time.Time, error) {
	exp := now.Add(s.ttl)
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id.New().String(),
			Issuer:    s.issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email:       user.Email,
		Roles:       user.RoleCodes(),
		Permissions: user.Permissions,
		IsAdmin:     user.Admin(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// ValidateToken verifies signature, issuer and expiry, and returns the caller.
func (s *JWTService) ValidateToken(raw string) (*appctx.UserContext, error) {
	var claims accessClaims
	_, err := s.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if claims.Subject == "" {
		return nil, errMissingSubject
	}

	return &appctx.UserContext{
		UserID:      claims.Subject,
		Email:       claims.Email,
		Roles:       claims.Roles,
		Permissions: claims.Permissions,
		IsAdmin:     claims.IsAdmin,
	}, nil
}
