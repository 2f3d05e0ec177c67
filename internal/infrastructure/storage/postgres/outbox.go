package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"bizbook/internal/core/id"
	"bizbook/pkg/logger"
)

// OutboxStatus is the delivery state of an outbox message.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

const (
	outboxTable = "sys_outbox"

	// A message that failed this many deliveries is parked as failed and
	// later moved to sys_outbox_dlq.
	outboxMaxRetries = 5
)

// OutboxMessage is one row of sys_outbox.
type OutboxMessage struct {
	ID            id.ID        `db:"id" json:"id"`
	AggregateType string       `db:"aggregate_type" json:"aggregateType"` // sales_order, purchase, ...
	AggregateID   id.ID        `db:"aggregate_id" json:"aggregateId"`
	EventType     string       `db:"event_type" json:"eventType"` // ledger.synced, ...
	Payload       []byte       `db:"payload" json:"payload"`
	Status        OutboxStatus `db:"status" json:"status"`
	RetryCount    int          `db:"retry_count" json:"retryCount"`
	LastError     *string      `db:"last_error" json:"lastError,omitempty"`
	NextRetryAt   *time.Time   `db:"next_retry_at" json:"nextRetryAt,omitempty"`
	CreatedAt     time.Time    `db:"created_at" json:"createdAt"`
	PublishedAt   *time.Time   `db:"published_at" json:"publishedAt,omitempty"`
}

var (
	outboxColumns = ExtractDBColumns[OutboxMessage]()

	errOutboxNeedsTx = errors.New("outbox publish requires a transaction")
)

// retryDelay is the linear backoff before delivery attempt n+1.
func retryDelay(failures int) time.Duration {
	return time.Duration(failures) * time.Minute
}

// OutboxPublisher records domain events in the transaction of the write that
// caused them. It implements ledger.EventOutbox.
type OutboxPublisher struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

func NewOutboxPublisher(txManager *TxManager) *OutboxPublisher {
	return &OutboxPublisher{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Publish queues one event. It fails outside a transaction so an event never
// outlives a rolled back write.
func (p *OutboxPublisher) Publish(ctx context.Context, aggregateType string, aggregateID id.ID, eventType string, payload any) error {
	tx := p.txManager.GetTx(ctx)
	if tx == nil {
		return errOutboxNeedsTx
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	sql, args, err := p.builder.Insert(outboxTable).
		Columns("id", "aggregate_type", "aggregate_id", "event_type", "payload", "status", "created_at").
		Values(id.New(), aggregateType, aggregateID, eventType, body, OutboxStatusPending, time.Now().UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build outbox insert: %w", err)
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}
	return nil
}

// OutboxHandler delivers one message to the broker.
type OutboxHandler interface {
	Handle(ctx context.Context, msg *OutboxMessage) error
}

// OutboxRelay is the worker side of the outbox: it hands pending messages to
// the handler (Redis pub/sub) and records the outcome.
type OutboxRelay struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
	batchSize uint64
	handler   OutboxHandler
}

// NewOutboxRelay delivers up to batchSize messages per run (100 when not positive).
func NewOutboxRelay(txManager *TxManager, batchSize int, handler OutboxHandler) *OutboxRelay {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxRelay{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		batchSize: uint64(batchSize),
		handler:   handler,
	}
}

func (r *OutboxRelay) pendingQuery(now time.Time) squirrel.SelectBuilder {
	return r.builder.Select(outboxColumns...).
		From(outboxTable).
		Where(squirrel.Eq{"status": OutboxStatusPending}).
		Where(squirrel.Or{squirrel.Eq{"next_retry_at": nil}, squirrel.LtOrEq{"next_retry_at": now}}).
		OrderBy("created_at").
		Limit(r.batchSize).
		Suffix("FOR UPDATE SKIP LOCKED")
}

// ProcessBatch delivers one batch and returns how many were published. Rows
// stay locked (SKIP LOCKED) until the transaction ends, so several workers
// can relay at once.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	delivered := 0
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sql, args, err := r.pendingQuery(time.Now().UTC()).ToSql()
		if err != nil {
			return fmt.Errorf("build outbox fetch: %w", err)
		}
		var messages []*OutboxMessage
		if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &messages, sql, args...); err != nil {
			return fmt.Errorf("fetch outbox messages: %w", err)
		}

		for _, msg := range messages {
			published, err := r.deliver(ctx, msg)
			if err != nil {
				return err
			}
			if published {
				delivered++
			}
		}
		return nil
	})
	return delivered, err
}

// deliver runs the handler. A handler failure reschedules the message and is
// not an error of the batch.
func (r *OutboxRelay) deliver(ctx context.Context, msg *OutboxMessage) (bool, error) {
	now := time.Now().UTC()
	update := r.builder.Update(outboxTable).Where(squirrel.Eq{"id": msg.ID})

	handleErr := r.handler.Handle(ctx, msg)
	if handleErr == nil {
		update = update.SetMap(map[string]any{"status": OutboxStatusPublished, "published_at": now})
	} else {
		failures := msg.RetryCount + 1
		logger.Warn(ctx, "outbox delivery failed",
			"message_id", msg.ID, "event_type", msg.EventType, "retry", failures, "error", handleErr)

		status := OutboxStatusPending
		if failures >= outboxMaxRetries {
			status = OutboxStatusFailed
		}
		update = update.SetMap(map[string]any{
			"retry_count":   failures,
			"last_error":    handleErr.Error(),
			"next_retry_at": now.Add(retryDelay(failures)),
			"status":        status,
		})
	}

	sql, args, err := update.ToSql()
	if err != nil {
		return false, fmt.Errorf("build outbox update: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return false, fmt.Errorf("record outbox delivery: %w", err)
	}
	return handleErr == nil, nil
}

// MoveToDLQ moves failed messages to sys_outbox_dlq.
func (r *OutboxRelay) MoveToDLQ(ctx context.Context) (int64, error) {
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		WITH moved AS (
			DELETE FROM sys_outbox
			WHERE status = $1 AND retry_count >= $2
			RETURNING *
		)
		INSERT INTO sys_outbox_dlq
		SELECT *, NOW() AS failed_at, last_error AS failure_reason FROM moved
	`, OutboxStatusFailed, outboxMaxRetries)
	if err != nil {
		return 0, fmt.Errorf("move to DLQ: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PurgePublished deletes messages published more than olderThan ago.
func (r *OutboxRelay) PurgePublished(ctx context.Context, olderThan time.Duration) (int64, error) {
	sql, args, err := r.builder.Delete(outboxTable).
		Where(squirrel.Eq{"status": OutboxStatusPublished}).
		Where(squirrel.Lt{"published_at": time.Now().UTC().Add(-olderThan)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build purge: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("purge published: %w", err)
	}
	return tag.RowsAffected(), nil
}
