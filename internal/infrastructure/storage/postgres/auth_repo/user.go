// Package auth_repo provides PostgreSQL implementations for auth repositories.
package auth_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/id"
	"bizbook/internal/domain/auth"
	"bizbook/internal/infrastructure/storage/postgres"
)

const userColumns = `id, email, password_hash, first_name, last_name,
	is_active, is_admin, email_verified, email_verified_at,
	last_login_at, failed_login_attempts, locked_until,
	created_at, updated_at, deleted_at, version`

// UserRepo implements auth.UserRepository.
type UserRepo struct {
	txManager *postgres.TxManager
}

// NewUserRepo creates a new user repository.
func NewUserRepo(txManager *postgres.TxManager) *UserRepo {
	return &UserRepo{txManager: txManager}
}

// Create creates a new user.
func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO users (
			id, email, password_hash, first_name, last_name,
			is_active, is_admin, email_verified, created_at, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.IsActive, user.IsAdmin, user.EmailVerified, user.CreatedAt, user.UpdatedAt, user.Version,
	)
	if err != nil {
		return postgres.MapError(err, "user")
	}
	return nil
}

func (r *UserRepo) getOne(ctx context.Context, key any, where string, arg any) (*auth.User, error) {
	var user auth.User
	err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &user,
		"SELECT "+userColumns+" FROM users WHERE "+where+" AND deleted_at IS NULL", arg)
	if pgxscan.NotFound(err) {
		return nil, apperror.NewNotFound("user", key)
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// GetByID retrieves user by ID.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	return r.getOne(ctx, userID.String(), "id = $1", userID)
}

// GetByEmail retrieves user by email, case-insensitively.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.getOne(ctx, email, "lower(email) = lower($1)", email)
}

// Update updates profile fields under the version check.
func (r *UserRepo) Update(ctx context.Context, user *auth.User) error {
	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE users SET
			email = $2,
			password_hash = $3,
			first_name = $4,
			last_name = $5,
			is_active = $6,
			is_admin = $7,
			email_verified = $8,
			email_verified_at = $9,
			updated_at = NOW(),
			version = version + 1
		WHERE id = $1 AND deleted_at IS NULL AND version = $10
	`,
		user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.IsActive, user.IsAdmin, user.EmailVerified, user.EmailVerifiedAt,
		user.Version,
	)
	if err != nil {
		return postgres.MapError(err, "user")
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("user", user.ID)
	}
	user.Version++
	return nil
}

// RecordLogin stores the login counters.
func (r *UserRepo) RecordLogin(ctx context.Context, user *auth.User) error {
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE users SET
			last_login_at = $2,
			failed_login_attempts = $3,
			locked_until = $4
		WHERE id = $1
	`, user.ID, user.LastLoginAt, user.FailedLoginAttempts, user.LockedUntil)
	if err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	return nil
}

// Delete soft-deletes a user.
func (r *UserRepo) Delete(ctx context.Context, userID id.ID) error {
	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE users SET deleted_at = NOW(), is_active = FALSE, version = version + 1
		WHERE id = $1 AND deleted_at IS NULL
	`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("user", userID.String())
	}
	return nil
}

func listQuery(filter auth.UserFilter) squirrel.SelectBuilder {
	q := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select().
		From("users u").
		Where("u.deleted_at IS NULL")

	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + s + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"u.email": like},
			squirrel.ILike{"u.first_name": like},
			squirrel.ILike{"u.last_name": like},
		})
	}
	if filter.IsActive != nil {
		q = q.Where(squirrel.Eq{"u.is_active": *filter.IsActive})
	}
	if filter.RoleCode != "" {
		q = q.Where(`EXISTS (
			SELECT 1 FROM user_roles ur JOIN roles r ON r.id = ur.role_id
			WHERE ur.user_id = u.id AND r.code = ?)`, filter.RoleCode)
	}
	return q
}

// List retrieves users with filtering, newest first.
func (r *UserRepo) List(ctx context.Context, filter auth.UserFilter) ([]auth.User, int64, error) {
	q := r.txManager.GetQuerier(ctx)
	base := listQuery(filter)

	sql, args, err := base.Column("COUNT(*)").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	var total int64
	if err := q.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	sql, args, err = base.
		Columns(prefixed("u.", userColumns)...).
		OrderBy("u.created_at DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}

	users := make([]auth.User, 0)
	if err := pgxscan.Select(ctx, q, &users, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

func prefixed(prefix, columns string) []string {
	parts := strings.Split(columns, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = prefix + strings.TrimSpace(p)
	}
	return out
}

// Exists checks whether an active user has the email.
func (r *UserRepo) Exists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = lower($1) AND deleted_at IS NULL)
	`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return exists, nil
}

// LoadRoles loads user's roles ordered by code.
func (r *UserRepo) LoadRoles(ctx context.Context, userID id.ID) ([]auth.Role, error) {
	roles := make([]auth.Role, 0)
	err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &roles, `
		SELECT `+prefixedList("r.", roleColumns)+`
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.code
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("load user roles: %w", err)
	}
	return roles, nil
}

func prefixedList(prefix, columns string) string {
	return strings.Join(prefixed(prefix, columns), ", ")
}

// SetRoles replaces the user's role assignments.
func (r *UserRepo) SetRoles(ctx context.Context, userID id.ID, roleIDs []id.ID, grantedBy *id.ID) error {
	q := r.txManager.GetQuerier(ctx)

	if _, err := q.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear user roles: %w", err)
	}
	if len(roleIDs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, roleID := range roleIDs {
		batch.Queue(`
			INSERT INTO user_roles (user_id, role_id, granted_by)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING
		`, userID, roleID, grantedBy)
	}

	tx := r.txManager.GetTx(ctx)
	if tx == nil {
		return fmt.Errorf("set roles requires transaction context")
	}
	results := tx.SendBatch(ctx, batch)
	defer results.Close()
	for range roleIDs {
		if _, err := results.Exec(); err != nil {
			return postgres.MapError(err, "role")
		}
	}
	return nil
}
