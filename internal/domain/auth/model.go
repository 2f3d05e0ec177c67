// Package auth provides authentication and authorization domain logic.
package auth

import (
	"slices"
	"time"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/id"
)

// RoleAdmin and RoleUser are the built-in roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents a system user.
type User struct {
	ID                  id.ID      `db:"id" json:"id"`
	Email               string     `db:"email" json:"email"`
	PasswordHash        string     `db:"password_hash" json:"-"`
	FirstName           string     `db:"first_name" json:"firstName"`
	LastName            string     `db:"last_name" json:"lastName"`
	IsActive            bool       `db:"is_active" json:"isActive"`
	IsAdmin             bool       `db:"is_admin" json:"isAdmin"`
	EmailVerified       bool       `db:"email_verified" json:"emailVerified"`
	EmailVerifiedAt     *time.Time `db:"email_verified_at" json:"emailVerifiedAt,omitempty"`
	LastLoginAt         *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	FailedLoginAttempts int        `db:"failed_login_attempts" json:"-"`
	LockedUntil         *time.Time `db:"locked_until" json:"-"`
	CreatedAt           time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updatedAt"`
	DeletedAt           *time.Time `db:"deleted_at" json:"-"`
	Version             int        `db:"version" json:"version"`

	// Loaded relations
	Roles       []Role   `db:"-" json:"roles"`
	Permissions []string `db:"-" json:"permissions"`
}

// NewUser creates an active user.
func NewUser(email, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		ID:           id.New(),
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      1,
	}
}

// IsLocked reports whether the lockout window is still open at now.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// CanLogin checks that the account is active and not locked.
func (u *User) CanLogin(now time.Time) error {
	if !u.IsActive || u.DeletedAt != nil {
		return apperror.NewForbidden("account is disabled")
	}
	if u.IsLocked(now) {
		return apperror.NewForbidden("account is temporarily locked").
			WithDetail("lockedUntil", u.LockedUntil.Format(time.RFC3339))
	}
	return nil
}

// RecordFailedLogin counts a failed attempt and locks the account once
// maxAttempts is reached.
func (u *User) RecordFailedLogin(now time.Time, maxAttempts int, lockDuration time.Duration) {
	if u.LockedUntil != nil && !u.IsLocked(now) {
		u.FailedLoginAttempts = 0
		u.LockedUntil = nil
	}
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= maxAttempts {
		until := now.Add(lockDuration)
		u.LockedUntil = &until
	}
}

// RecordSuccessfulLogin resets the failure counter.
func (u *User) RecordSuccessfulLogin(now time.Time) {
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	u.LastLoginAt = &now
}

// RoleCodes returns the codes of the loaded roles.
func (u *User) RoleCodes() []string {
	codes := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		codes[i] = r.Code
	}
	return codes
}

// HasRole checks if user has a specific role.
func (u *User) HasRole(code string) bool {
	return slices.Contains(u.RoleCodes(), code)
}

// Admin reports whether the user bypasses permission checks.
func (u *User) Admin() bool {
	return u.IsAdmin || u.HasRole(RoleAdmin)
}

// resolvePermissions flattens the permissions of the loaded roles.
func (u *User) resolvePermissions() {
	var perms []string
	for _, r := range u.Roles {
		for _, p := range r.Permissions {
			if !slices.Contains(perms, p) {
				perms = append(perms, p)
			}
		}
	}
	slices.Sort(perms)
	if perms == nil {
		perms = []string{}
	}
	u.Permissions = perms
}

// FullName returns user's full name.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "" && u.LastName == "":
		return u.Email
	case u.LastName == "":
		return u.FirstName
	case u.FirstName == "":
		return u.LastName
	}
	return u.FirstName + " " + u.LastName
}

// Role groups module permissions.
type Role struct {
	ID          id.ID     `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Permissions []string  `db:"permissions" json:"permissions"`
	IsSystem    bool      `db:"is_system" json:"isSystem"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// NewRole creates a new role.
func NewRole(code, name string) *Role {
	now := time.Now().UTC()
	return &Role{
		ID:          id.New(),
		Code:        code,
		Name:        name,
		Permissions: []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate checks the code, the name and every permission.
func (r *Role) Validate() error {
	if r.Code == "" {
		return apperror.NewValidation("code is required").WithDetail("field", "code")
	}
	if r.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	for _, p := range r.Permissions {
		if !IsKnownPermission(p) {
			return apperror.NewValidation("unknown permission").WithDetail("permission", p)
		}
	}
	return nil
}

// RefreshToken is a stored refresh token. Only its sha256 hash is kept.
type RefreshToken struct {
	ID            id.ID      `db:"id"`
	UserID        id.ID      `db:"user_id"`
	TokenHash     string     `db:"token_hash"`
	ExpiresAt     time.Time  `db:"expires_at"`
	CreatedAt     time.Time  `db:"created_at"`
	RevokedAt     *time.Time `db:"revoked_at"`
	RevokedReason string     `db:"revoked_reason"`
	UserAgent     string     `db:"user_agent"`
	IPAddress     string     `db:"ip_address"`
}

// IsValid reports whether the token is neither revoked nor expired at now.
func (t *RefreshToken) IsValid(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

// TokenPair contains access and refresh tokens.
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	TokenType    string    `json:"tokenType"`
}

// Session is a token pair with the user it was issued to.
type Session struct {
	Tokens *TokenPair `json:"tokens"`
	User   *User      `json:"user"`
}

// Credentials for login.
type Credentials struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

// SignupRequest registers a new user with the default role.
type SignupRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	UserAgent string
	IPAddress string
}

// UserInput creates or updates a user from the admin API.
// Password is optional on update.
type UserInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	IsActive  bool
	IsAdmin   bool
	Roles     []string
	Version   int
}

// RoleInput creates or updates a role.
type RoleInput struct {
	Code        string
	Name        string
	Description string
	Permissions []string
}

// UserFilter for listing users.
type UserFilter struct {
	Search   string
	IsActive *bool
	RoleCode string
	Limit    int
	Offset   int
}
