package auth_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/id"
	"bizbook/internal/domain/auth"
	"bizbook/internal/infrastructure/storage/postgres"
)

// TokenRepo implements auth.TokenRepository.
type TokenRepo struct {
	txManager *postgres.TxManager
}

// NewTokenRepo creates a new token repository.
func NewTokenRepo(txManager *postgres.TxManager) *TokenRepo {
	return &TokenRepo{txManager: txManager}
}

// SaveRefreshToken saves a refresh token.
func (r *TokenRepo) SaveRefreshToken(ctx context.Context, token *auth.RefreshToken) error {
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		token.ID, token.UserID, token.TokenHash, token.ExpiresAt,
		token.CreatedAt, token.UserAgent, token.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

// GetRefreshToken retrieves refresh token by hash and locks it.
func (r *TokenRepo) GetRefreshToken(ctx context.Context, tokenHash string) (*auth.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, created_at, revoked_at,
		       revoked_reason, user_agent, ip_address
		FROM refresh_tokens WHERE token_hash = $1
	`
	if r.txManager.GetTx(ctx) != nil {
		query += " FOR UPDATE"
	}

	var token auth.RefreshToken
	err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &token, query, tokenHash)
	if pgxscan.NotFound(err) {
		return nil, apperror.NewNotFound("refresh token", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("query refresh token: %w", err)
	}
	return &token, nil
}

// RevokeRefreshToken revokes a refresh token.
func (r *TokenRepo) RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error {
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE refresh_tokens SET revoked_at = NOW(), revoked_reason = $2
		WHERE id = $1 AND revoked_at IS NULL
	`, tokenID, reason)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAllUserTokens revokes all active tokens for a user.
func (r *TokenRepo) RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error {
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE refresh_tokens SET revoked_at = NOW(), revoked_reason = $2
		WHERE user_id = $1 AND revoked_at IS NULL
	`, userID, reason)
	if err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}
	return nil
}

// CleanupExpiredTokens removes tokens that expired before the given time.
func (r *TokenRepo) CleanupExpiredTokens(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		DELETE FROM refresh_tokens WHERE expires_at < $1
	`, before)
	if err != nil {
		return 0, fmt.Errorf("cleanup tokens: %w", err)
	}
	return result.RowsAffected(), nil
}
