package auth

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/id"
	"bizbook/pkg/logger"
)

// ListRoles lists all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.roleRepo.List(ctx)
}

// GetRole retrieves a role.
func (s *Service) GetRole(ctx context.Context, roleID id.ID) (*Role, error) {
	return s.roleRepo.GetByID(ctx, roleID)
}

func normalizePermissions(perms []string) []string {
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(p)
		if p != "" && !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	slices.Sort(out)
	return out
}

// CreateRole creates a role with catalog permissions.
func (s *Service) CreateRole(ctx context.Context, in RoleInput) (*Role, error) {
	role := NewRole(strings.TrimSpace(in.Code), strings.TrimSpace(in.Name))
	role.Description = in.Description
	role.Permissions = normalizePermissions(in.Permissions)
	if err := role.Validate(); err != nil {
		return nil, err
	}

	if err := s.roleRepo.Create(ctx, role); err != nil {
		return nil, err
	}
	logger.Info(ctx, "role created", "role", role.Code)
	return role, nil
}

// UpdateRole changes name, description and permissions.
// The code of a system role is fixed.
func (s *Service) UpdateRole(ctx context.Context, roleID id.ID, in RoleInput) (*Role, error) {
	var role *Role
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if role, err = s.roleRepo.GetByID(ctx, roleID); err != nil {
			return err
		}

		code := strings.TrimSpace(in.Code)
		if code != "" && code != role.Code {
			if role.IsSystem {
				return apperror.NewBusinessRule(apperror.CodeBusinessRule, "system role code cannot change").
					WithDetail("role", role.Code)
			}
			role.Code = code
		}
		role.Name = strings.TrimSpace(in.Name)
		role.Description = in.Description
		role.Permissions = normalizePermissions(in.Permissions)
		role.UpdatedAt = s.now()
		if err := role.Validate(); err != nil {
			return err
		}
		return s.roleRepo.Update(ctx, role)
	})
	if err != nil {
		return nil, err
	}
	return role, nil
}

// DeleteRole deletes a non-system role.
func (s *Service) DeleteRole(ctx context.Context, roleID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		role, err := s.roleRepo.GetByID(ctx, roleID)
		if err != nil {
			return err
		}
		if role.IsSystem {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "system roles cannot be deleted").
				WithDetail("role", role.Code)
		}
		if err := s.roleRepo.Delete(ctx, roleID); err != nil {
			return fmt.Errorf("delete role: %w", err)
		}
		return nil
	})
}
