package auth_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/id"
	"bizbook/internal/domain/auth"
	"bizbook/internal/infrastructure/storage/postgres"
)

const roleColumns = "id, code, name, description, permissions, is_system, created_at, updated_at"

// RoleRepo implements auth.RoleRepository.
type RoleRepo struct {
	txManager *postgres.TxManager
}

// NewRoleRepo creates a new role repository.
func NewRoleRepo(txManager *postgres.TxManager) *RoleRepo {
	return &RoleRepo{txManager: txManager}
}

// Create creates a new role.
func (r *RoleRepo) Create(ctx context.Context, role *auth.Role) error {
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO roles (id, code, name, description, permissions, is_system, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, role.ID, role.Code, role.Name, role.Description, role.Permissions, role.IsSystem, role.CreatedAt, role.UpdatedAt)
	if err != nil {
		return postgres.MapError(err, "role")
	}
	return nil
}

func (r *RoleRepo) getOne(ctx context.Context, key any, where string, arg any) (*auth.Role, error) {
	var role auth.Role
	err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &role,
		"SELECT "+roleColumns+" FROM roles WHERE "+where, arg)
	if pgxscan.NotFound(err) {
		return nil, apperror.NewNotFound("role", key)
	}
	if err != nil {
		return nil, fmt.Errorf("query role: %w", err)
	}
	return &role, nil
}

// GetByID retrieves role by ID.
func (r *RoleRepo) GetByID(ctx context.Context, roleID id.ID) (*auth.Role, error) {
	return r.getOne(ctx, roleID.String(), "id = $1", roleID)
}

// GetByCode retrieves role by code.
func (r *RoleRepo) GetByCode(ctx context.Context, code string) (*auth.Role, error) {
	return r.getOne(ctx, code, "code = $1", code)
}

// Update updates role data.
func (r *RoleRepo) Update(ctx context.Context, role *auth.Role) error {
	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE roles SET code = $2, name = $3, description = $4, permissions = $5, updated_at = NOW()
		WHERE id = $1
	`, role.ID, role.Code, role.Name, role.Description, role.Permissions)
	if err != nil {
		return postgres.MapError(err, "role")
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("role", role.ID.String())
	}
	return nil
}

// Delete deletes a non-system role; assignments cascade.
func (r *RoleRepo) Delete(ctx context.Context, roleID id.ID) error {
	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		DELETE FROM roles WHERE id = $1 AND is_system = FALSE
	`, roleID)
	if err != nil {
		return postgres.MapError(err, "role")
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("role", roleID.String())
	}
	return nil
}

// List retrieves all roles ordered by code.
func (r *RoleRepo) List(ctx context.Context) ([]auth.Role, error) {
	roles := make([]auth.Role, 0)
	err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &roles,
		"SELECT "+roleColumns+" FROM roles ORDER BY code")
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}
