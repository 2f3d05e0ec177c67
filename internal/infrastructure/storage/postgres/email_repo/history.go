// Package email_repo stores email delivery history in PostgreSQL.
package email_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"bizbook/internal/domain/email"
	"bizbook/internal/infrastructure/storage/postgres"
)

// HistoryRepo implements email.Repository.
type HistoryRepo struct {
	txManager *postgres.TxManager
}

// NewHistoryRepo creates a new history repository.
func NewHistoryRepo(txManager *postgres.TxManager) *HistoryRepo {
	return &HistoryRepo{txManager: txManager}
}

// Create stores one attempt.
func (r *HistoryRepo) Create(ctx context.Context, h *email.History) error {
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO email_history (id, recipients, subject, body, attachments, status, error, sent_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, h.ID, h.Recipients, h.Subject, h.Body, h.Attachments, h.Status, h.Error, h.SentBy, h.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert email history: %w", err)
	}
	return nil
}

// List returns attempts newest first.
func (r *HistoryRepo) List(ctx context.Context, limit, offset int) ([]email.History, int64, error) {
	q := r.txManager.GetQuerier(ctx)

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM email_history`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count email history: %w", err)
	}

	items := make([]email.History, 0)
	err := pgxscan.Select(ctx, q, &items, `
		SELECT id, recipients, subject, body, attachments, status, error, sent_by, created_at
		FROM email_history
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list email history: %w", err)
	}
	return items, total, nil
}
