package dto

import (
	"time"

	"bizbook/internal/domain/auth"
)

// --- Request DTOs ---

// SignupRequest for user registration.
type SignupRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// ToAuthRequest converts to domain request.
func (r *SignupRequest) ToAuthRequest(userAgent, ip string) auth.SignupRequest {
	return auth.SignupRequest{
		Email:     r.Email,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		UserAgent: userAgent,
		IPAddress: ip,
	}
}

// LoginRequest for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ToCredentials converts to domain credentials.
func (r *LoginRequest) ToCredentials(userAgent, ip string) auth.Credentials {
	return auth.Credentials{
		Email:     r.Email,
		Password:  r.Password,
		UserAgent: userAgent,
		IPAddress: ip,
	}
}

// RefreshTokenRequest for token refresh and logout.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// UserRequest creates or updates a user. Password is optional on update.
type UserRequest struct {
	Email     string   `json:"email" binding:"required,email"`
	Password  string   `json:"password" binding:"omitempty,min=8"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	IsActive  *bool    `json:"isActive"`
	IsAdmin   bool     `json:"isAdmin"`
	Roles     []string `json:"roles"`
	Version   int      `json:"version"`
}

// ToInput converts to domain input. A missing isActive means active.
func (r *UserRequest) ToInput() auth.UserInput {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return auth.UserInput{
		Email:     r.Email,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		IsActive:  active,
		IsAdmin:   r.IsAdmin,
		Roles:     r.Roles,
		Version:   r.Version,
	}
}

// AssignRoleRequest for assigning a role to a user.
type AssignRoleRequest struct {
	RoleCode string `json:"roleCode" binding:"required"`
}

// RoleRequest creates or updates a role.
type RoleRequest struct {
	Code        string   `json:"code" binding:"required"`
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

// ToInput converts to domain input.
func (r *RoleRequest) ToInput() auth.RoleInput {
	return auth.RoleInput{
		Code:        r.Code,
		Name:        r.Name,
		Description: r.Description,
		Permissions: r.Permissions,
	}
}

// --- Response DTOs ---

// TokenResponse represents token pair response.
type TokenResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	TokenType    string    `json:"tokenType"`
}

// FromTokenPair creates response from domain token pair.
func FromTokenPair(tp *auth.TokenPair) *TokenResponse {
	return &TokenResponse{
		AccessToken:  tp.AccessToken,
		RefreshToken: tp.RefreshToken,
		ExpiresAt:    tp.ExpiresAt,
		TokenType:    tp.TokenType,
	}
}

// UserResponse represents user in API response.
type UserResponse struct {
	ID          string         `json:"id"`
	Email       string         `json:"email"`
	FirstName   string         `json:"firstName,omitempty"`
	LastName    string         `json:"lastName,omitempty"`
	FullName    string         `json:"fullName"`
	IsActive    bool           `json:"isActive"`
	IsAdmin     bool           `json:"isAdmin"`
	Roles       []RoleResponse `json:"roles"`
	Permissions []string       `json:"permissions"`
	LastLoginAt *time.Time     `json:"lastLoginAt,omitempty"`
	Version     int            `json:"version"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// FromUser creates response from domain user.
func FromUser(u *auth.User) UserResponse {
	roles := make([]RoleResponse, len(u.Roles))
	for i := range u.Roles {
		roles[i] = FromRole(&u.Roles[i])
	}
	perms := u.Permissions
	if perms == nil {
		perms = []string{}
	}

	return UserResponse{
		ID:          u.ID.String(),
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		FullName:    u.FullName(),
		IsActive:    u.IsActive,
		IsAdmin:     u.IsAdmin,
		Roles:       roles,
		Permissions: perms,
		LastLoginAt: u.LastLoginAt,
		Version:     u.Version,
		CreatedAt:   u.CreatedAt,
	}
}

// RoleResponse represents role in API response.
type RoleResponse struct {
	ID          string   `json:"id"`
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions"`
	IsSystem    bool     `json:"isSystem"`
}

// FromRole creates response from domain role.
func FromRole(r *auth.Role) RoleResponse {
	perms := r.Permissions
	if perms == nil {
		perms = []string{}
	}
	return RoleResponse{
		ID:          r.ID.String(),
		Code:        r.Code,
		Name:        r.Name,
		Description: r.Description,
		Permissions: perms,
		IsSystem:    r.IsSystem,
	}
}

// LoginResponse includes tokens and user info.
type LoginResponse struct {
	Tokens *TokenResponse `json:"tokens"`
	User   UserResponse   `json:"user"`
}

// FromSession creates response from a domain session.
func FromSession(s *auth.Session) LoginResponse {
	return LoginResponse{
		Tokens: FromTokenPair(s.Tokens),
		User:   FromUser(s.User),
	}
}
