package auth

import (
	"context"
	"slices"
	"strings"
	"time"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/id"
)

type memoryStore struct {
	users      map[id.ID]*User
	roles      map[id.ID]*Role
	userRoles  map[id.ID][]id.ID
	tokens     map[string]*RefreshToken
	loginSaves int
}

func newMemoryStore() *memoryStore {
	m := &memoryStore{
		users:     map[id.ID]*User{},
		roles:     map[id.ID]*Role{},
		userRoles: map[id.ID][]id.ID{},
		tokens:    map[string]*RefreshToken{},
	}
	admin := NewRole(RoleAdmin, "Administrator")
	admin.IsSystem = true
	user := NewRole(RoleUser, "User")
	user.IsSystem = true
	user.Permissions = []string{"customers:read", "reports:read"}
	m.roles[admin.ID] = admin
	m.roles[user.ID] = user
	return m
}

type userRepo struct{ *memoryStore }

func (r userRepo) Create(_ context.Context, u *User) error {
	c := *u
	r.users[u.ID] = &c
	return nil
}

func (r userRepo) GetByID(_ context.Context, userID id.ID) (*User, error) {
	u, ok := r.users[userID]
	if !ok || u.DeletedAt != nil {
		return nil, apperror.NewNotFound("user", userID)
	}
	c := *u
	return &c, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) && u.DeletedAt == nil {
			c := *u
			return &c, nil
		}
	}
	return nil, apperror.NewNotFound("user", email)
}

func (r userRepo) Update(_ context.Context, u *User) error {
	cur, ok := r.users[u.ID]
	if !ok {
		return apperror.NewNotFound("user", u.ID)
	}
	if cur.Version != u.Version {
		return apperror.NewConcurrentModification("user", u.ID.String())
	}
	u.Version++
	c := *u
	r.users[u.ID] = &c
	return nil
}

func (r userRepo) RecordLogin(_ context.Context, u *User) error {
	cur := r.users[u.ID]
	cur.FailedLoginAttempts = u.FailedLoginAttempts
	cur.LockedUntil = u.LockedUntil
	cur.LastLoginAt = u.LastLoginAt
	r.loginSaves++
	return nil
}

func (r userRepo) Delete(_ context.Context, userID id.ID) error {
	u, ok := r.users[userID]
	if !ok {
		return apperror.NewNotFound("user", userID)
	}
	now := time.Now()
	u.DeletedAt = &now
	return nil
}

func (r userRepo) List(context.Context, UserFilter) ([]User, int64, error) {
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (r userRepo) Exists(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func (r userRepo) LoadRoles(_ context.Context, userID id.ID) ([]Role, error) {
	var out []Role
	for _, rid := range r.userRoles[userID] {
		out = append(out, *r.roles[rid])
	}
	return out, nil
}

func (r userRepo) SetRoles(_ context.Context, userID id.ID, roleIDs []id.ID, _ *id.ID) error {
	r.userRoles[userID] = slices.Clone(roleIDs)
	return nil
}

type roleRepo struct{ *memoryStore }

func (r roleRepo) Create(_ context.Context, role *Role) error {
	for _, x := range r.roles {
		if x.Code == role.Code {
			return apperror.NewDuplicate("role", "code", role.Code)
		}
	}
	c := *role
	r.roles[role.ID] = &c
	return nil
}

func (r roleRepo) GetByID(_ context.Context, roleID id.ID) (*Role, error) {
	x, ok := r.roles[roleID]
	if !ok {
		return nil, apperror.NewNotFound("role", roleID)
	}
	c := *x
	return &c, nil
}

func (r roleRepo) GetByCode(_ context.Context, code string) (*Role, error) {
	for _, x := range r.roles {
		if x.Code == code {
			c := *x
			return &c, nil
		}
	}
	return nil, apperror.NewNotFound("role", code)
}

func (r roleRepo) Update(_ context.Context, role *Role) error {
	c := *role
	r.roles[role.ID] = &c
	return nil
}

func (r roleRepo) Delete(_ context.Context, roleID id.ID) error {
	delete(r.roles, roleID)
	return nil
}

func (r roleRepo) List(context.Context) ([]Role, error) {
	var out []Role
	for _, x := range r.roles {
		out = append(out, *x)
	}
	return out, nil
}

type tokenRepo struct{ *memoryStore }

func (r tokenRepo) SaveRefreshToken(_ context.Context, t *RefreshToken) error {
	c := *t
	r.tokens[t.TokenHash] = &c
	return nil
}

func (r tokenRepo) GetRefreshToken(_ context.Context, hash string) (*RefreshToken, error) {
	t, ok := r.tokens[hash]
	if !ok {
		return nil, apperror.NewNotFound("refresh token", "")
	}
	c := *t
	return &c, nil
}

func (r tokenRepo) RevokeRefreshToken(_ context.Context, tokenID id.ID, reason string) error {
	for _, t := range r.tokens {
		if t.ID == tokenID && t.RevokedAt == nil {
			now := time.Now()
			t.RevokedAt, t.RevokedReason = &now, reason
		}
	}
	return nil
}

func (r tokenRepo) RevokeAllUserTokens(_ context.Context, userID id.ID, reason string) error {
	for _, t := range r.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			now := time.Now()
			t.RevokedAt, t.RevokedReason = &now, reason
		}
	}
	return nil
}

func (r tokenRepo) CleanupExpiredTokens(_ context.Context, before time.Time) (int64, error) {
	var n int64
	for h, t := range r.tokens {
		if t.ExpiresAt.Before(before) {
			delete(r.tokens, h)
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) activeTokens(userID id.ID) int {
	n := 0
	for _, t := range m.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			n++
		}
	}
	return n
}
