package auth

import (
	"context"
	"fmt"
	"strings"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/id"
	"bizbook/pkg/logger"
)

// GetUser retrieves user with roles and permissions.
func (s *Service) GetUser(ctx context.Context, userID id.ID) (*User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.loadAccess(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers lists users with filtering.
func (s *Service) ListUsers(ctx context.Context, filter UserFilter) ([]User, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 500 {
		filter.Limit = 500
	}
	return s.userRepo.List(ctx, filter)
}

// CreateUser creates a user from the admin API. Without roles the
// default role is assigned.
func (s *Service) CreateUser(ctx context.Context, in UserInput) (*User, error) {
	in.Email = normalizeEmail(in.Email)
	if err := s.validateCredentials(in.Email, in.Password); err != nil {
		return nil, err
	}
	if len(in.Roles) == 0 {
		in.Roles = []string{RoleUser}
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := NewUser(in.Email, hash)
	user.FirstName = strings.TrimSpace(in.FirstName)
	user.LastName = strings.TrimSpace(in.LastName)
	user.IsActive = in.IsActive
	user.IsAdmin = in.IsAdmin

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.userRepo.Exists(ctx, user.Email)
		if err != nil {
			return fmt.Errorf("check email exists: %w", err)
		}
		if exists {
			return apperror.NewDuplicate("user", "email", user.Email)
		}

		ids, roles, err := s.roleIDs(ctx, in.Roles)
		if err != nil {
			return err
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		if err := s.userRepo.SetRoles(ctx, user.ID, ids, callerID(ctx)); err != nil {
			return fmt.Errorf("assign roles: %w", err)
		}
		user.Roles = roles
		user.resolvePermissions()
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "user created", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// UpdateUser changes profile, flags and roles. A nil Roles keeps the
// current assignments; a password is rehashed when given.
func (s *Service) UpdateUser(ctx context.Context, userID id.ID, in UserInput) (*User, error) {
	var user *User
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if in.Version != 0 && in.Version != user.Version {
			return apperror.NewConcurrentModification("user", userID.String())
		}

		if in.Email != "" {
			email := normalizeEmail(in.Email)
			if email != user.Email {
				if err := validateEmail(email); err != nil {
					return err
				}
				exists, err := s.userRepo.Exists(ctx, email)
				if err != nil {
					return fmt.Errorf("check email exists: %w", err)
				}
				if exists {
					return apperror.NewDuplicate("user", "email", email)
				}
				user.Email = email
			}
		}
		if in.Password != "" {
			if err := s.validatePassword(in.Password); err != nil {
				return err
			}
			if user.PasswordHash, err = s.hashPassword(in.Password); err != nil {
				return err
			}
		}
		user.FirstName = strings.TrimSpace(in.FirstName)
		user.LastName = strings.TrimSpace(in.LastName)
		user.IsActive = in.IsActive
		user.IsAdmin = in.IsAdmin
		user.UpdatedAt = s.now()

		if err := s.userRepo.Update(ctx, user); err != nil {
			return err
		}

		if in.Roles != nil {
			ids, _, err := s.roleIDs(ctx, in.Roles)
			if err != nil {
				return err
			}
			if err := s.userRepo.SetRoles(ctx, user.ID, ids, callerID(ctx)); err != nil {
				return fmt.Errorf("assign roles: %w", err)
			}
		}
		if !user.IsActive {
			if err := s.tokenRepo.RevokeAllUserTokens(ctx, user.ID, "deactivated"); err != nil {
				return fmt.Errorf("revoke sessions: %w", err)
			}
		}
		return s.loadAccess(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser soft-deletes a user and revokes their sessions.
// Users cannot delete themselves.
func (s *Service) DeleteUser(ctx context.Context, userID id.ID) error {
	if caller := callerID(ctx); caller != nil && *caller == userID {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "cannot delete your own account")
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.userRepo.Delete(ctx, userID); err != nil {
			return err
		}
		return s.tokenRepo.RevokeAllUserTokens(ctx, userID, "deleted")
	})
}

// AssignRole adds a role to a user.
func (s *Service) AssignRole(ctx context.Context, userID id.ID, roleCode string) (*User, error) {
	return s.changeRoles(ctx, userID, func(codes []string) []string {
		for _, c := range codes {
			if c == roleCode {
				return codes
			}
		}
		return append(codes, roleCode)
	})
}

// RevokeRole removes a role from a user.
func (s *Service) RevokeRole(ctx context.Context, userID id.ID, roleCode string) (*User, error) {
	return s.changeRoles(ctx, userID, func(codes []string) []string {
		out := codes[:0]
		for _, c := range codes {
			if c != roleCode {
				out = append(out, c)
			}
		}
		return out
	})
}

func (s *Service) changeRoles(ctx context.Context, userID id.ID, change func([]string) []string) (*User, error) {
	var user *User
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if user, err = s.GetUser(ctx, userID); err != nil {
			return err
		}
		ids, _, err := s.roleIDs(ctx, change(user.RoleCodes()))
		if err != nil {
			return err
		}
		if err := s.userRepo.SetRoles(ctx, userID, ids, callerID(ctx)); err != nil {
			return fmt.Errorf("assign roles: %w", err)
		}
		return s.loadAccess(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "user roles changed", "user_id", userID, "roles", user.RoleCodes())
	return user, nil
}
