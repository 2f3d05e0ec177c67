package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"bizbook/internal/core/apperror"
)

// IdempotencyStatus is the state of one X-Idempotency-Key.
type IdempotencyStatus string

const (
	IdempotencyStatusPending IdempotencyStatus = "pending"
	IdempotencyStatusSuccess IdempotencyStatus = "success"
	IdempotencyStatusFailed  IdempotencyStatus = "failed"
)

const (
	idempotencyTable = "sys_idempotency"

	// A pending key older than this belongs to a request that died; the next
	// caller with the same key may take it over.
	idempotencyStaleAfter = time.Minute
)

// IdempotencyRecord is one row of sys_idempotency.
type IdempotencyRecord struct {
	Key         string            `db:"idempotency_key"`
	UserID      string            `db:"user_id"`
	Operation   string            `db:"operation"` // "METHOD /route"
	Status      IdempotencyStatus `db:"status"`
	RequestHash string            `db:"request_hash"`
	Response    []byte            `db:"response"`
	StatusCode  int               `db:"response_status"`
	ContentType string            `db:"response_content_type"`
	CreatedAt   time.Time         `db:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at"`
	ExpiresAt   time.Time         `db:"expires_at"`
}

// IdempotencyReplay is a stored response sent again instead of re-running
// the request.
type IdempotencyReplay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// claimOutcome is what AcquireKey decided about an existing record.
type claimOutcome int

const (
	claimRun claimOutcome = iota
	claimReplay
	claimReclaim
	claimBusy
	claimMismatch
)

// judge decides what to do with a key that already had a record.
func judge(rec IdempotencyRecord, userID, operation, requestHash string, now time.Time) claimOutcome {
	if rec.UserID != userID || rec.Operation != operation || rec.RequestHash != requestHash {
		return claimMismatch
	}
	switch rec.Status {
	case IdempotencyStatusSuccess, IdempotencyStatusFailed:
		return claimReplay
	case IdempotencyStatusPending:
		if now.Sub(rec.UpdatedAt) > idempotencyStaleAfter {
			return claimReclaim
		}
		return claimBusy
	}
	return claimRun
}

func (r IdempotencyRecord) replay() *IdempotencyReplay {
	out := &IdempotencyReplay{StatusCode: http.StatusOK, ContentType: "application/json", Body: r.Response}
	if r.StatusCode != 0 {
		out.StatusCode = r.StatusCode
	}
	if r.ContentType != "" {
		out.ContentType = r.ContentType
	}
	return out
}

// IdempotencyStore keeps X-Idempotency-Key records so retried writes
// (orders, payments) are applied once.
type IdempotencyStore struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
	ttl       time.Duration
	now       func() time.Time
}

// NewIdempotencyStore keeps keys for ttl, or 24h when ttl is not positive.
func NewIdempotencyStore(txManager *TxManager, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		ttl:       ttl,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// AcquireKey claims key for one request. It returns (nil, nil) when the
// request should run, a replay when it already finished, and an
// IDEMPOTENCY_CONFLICT error while it is in flight or when the key was used
// for another user, route or body.
func (s *IdempotencyStore) AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*IdempotencyReplay, error) {
	now := s.now()
	q := s.txManager.GetQuerier(ctx)

	var row struct {
		IdempotencyRecord
		Inserted bool `db:"inserted"`
	}
	err := pgxscan.Get(ctx, q, &row, `
		INSERT INTO sys_idempotency (idempotency_key, user_id, operation, status, request_hash, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6, $7)
		ON CONFLICT (idempotency_key) DO UPDATE SET
			expires_at = GREATEST(sys_idempotency.expires_at, EXCLUDED.expires_at)
		RETURNING *, (xmax = 0) AS inserted
	`, key, userID, operation, IdempotencyStatusPending, requestHash, now, now.Add(s.ttl))
	if err != nil {
		return nil, fmt.Errorf("acquire idempotency key: %w", err)
	}
	if row.Inserted {
		return nil, nil
	}

	switch judge(row.IdempotencyRecord, userID, operation, requestHash, now) {
	case claimMismatch:
		return nil, apperror.NewIdempotencyMismatch(key).WithDetail("operation", row.Operation)
	case claimReplay:
		return row.replay(), nil
	case claimBusy:
		return nil, apperror.NewIdempotencyConflict(key)
	case claimReclaim:
		// Compare-and-set on updated_at so only one retry wins the takeover.
		sql, args, err := s.builder.Update(idempotencyTable).
			Set("updated_at", now).
			Where(squirrel.Eq{
				"idempotency_key": key,
				"status":          IdempotencyStatusPending,
				"updated_at":      row.UpdatedAt,
			}).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("build reclaim: %w", err)
		}
		tag, err := q.Exec(ctx, sql, args...)
		if err != nil {
			return nil, fmt.Errorf("reclaim stale key: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil, apperror.NewIdempotencyConflict(key)
		}
	}
	return nil, nil
}

// CompleteKey stores a 2xx response for replay.
func (s *IdempotencyStore) CompleteKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error {
	return s.finish(ctx, key, IdempotencyStatusSuccess, statusCode, contentType, body)
}

// FailKey stores a 4xx response for replay.
func (s *IdempotencyStore) FailKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error {
	return s.finish(ctx, key, IdempotencyStatusFailed, statusCode, contentType, body)
}

// ReleaseKey forgets a pending key so the client may retry after a 5xx.
func (s *IdempotencyStore) ReleaseKey(ctx context.Context, key string) error {
	return s.exec(ctx, "release idempotency key", s.builder.Delete(idempotencyTable).
		Where(squirrel.Eq{"idempotency_key": key, "status": IdempotencyStatusPending}))
}

func (s *IdempotencyStore) finish(ctx context.Context, key string, status IdempotencyStatus, statusCode int, contentType string, body []byte) error {
	if contentType == "application/json" && body != nil && !json.Valid(body) {
		body, _ = json.Marshal(map[string]string{"message": string(body)})
	}
	return s.exec(ctx, "finish idempotency key", s.builder.Update(idempotencyTable).
		SetMap(map[string]any{
			"status":                status,
			"response":              body,
			"response_status":       statusCode,
			"response_content_type": contentType,
			"updated_at":            s.now(),
		}).
		Where(squirrel.Eq{"idempotency_key": key}))
}

// CleanupExpired deletes records past their expiry. The worker runs it hourly.
func (s *IdempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	sql, args, err := s.builder.Delete(idempotencyTable).
		Where(squirrel.Lt{"expires_at": s.now()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build cleanup: %w", err)
	}
	tag, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("cleanup idempotency keys: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *IdempotencyStore) exec(ctx context.Context, what string, b squirrel.Sqlizer) error {
	sql, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build %s: %w", what, err)
	}
	if _, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}
