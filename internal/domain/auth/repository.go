package auth

import (
	"context"
	"time"

	"bizbook/internal/core/id"
)

// UserRepository defines user storage operations.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, userID id.ID) (*User, error)

	// GetByEmail matches case-insensitively.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update fails with ConcurrentModification when the version differs.
	Update(ctx context.Context, user *User) error

	// RecordLogin stores the login counters without bumping the version.
	RecordLogin(ctx context.Context, user *User) error

	// Delete soft-deletes a user.
	Delete(ctx context.Context, userID id.ID) error

	List(ctx context.Context, filter UserFilter) ([]User, int64, error)
	Exists(ctx context.Context, email string) (bool, error)

	// LoadRoles loads the user's roles with their permissions.
	LoadRoles(ctx context.Context, userID id.ID) ([]Role, error)

	// SetRoles replaces the user's role assignments.
	SetRoles(ctx context.Context, userID id.ID, roleIDs []id.ID, grantedBy *id.ID) error
}

// RoleRepository defines role storage operations.
type RoleRepository interface {
	Create(ctx context.Context, role *Role) error
	GetByID(ctx context.Context, roleID id.ID) (*Role, error)
	GetByCode(ctx context.Context, code string) (*Role, error)
	Update(ctx context.Context, role *Role) error
	Delete(ctx context.Context, roleID id.ID) error
	List(ctx context.Context) ([]Role, error)
}

// TokenRepository defines refresh token storage operations.
type TokenRepository interface {
	SaveRefreshToken(ctx context.Context, token *RefreshToken) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error
	RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error

	// CleanupExpiredTokens removes tokens that expired before the given time.
	CleanupExpiredTokens(ctx context.Context, before time.Time) (int64, error)
}
