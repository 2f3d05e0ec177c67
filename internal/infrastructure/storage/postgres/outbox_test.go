package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizbook/internal/core/id"
)

func TestOutboxRelay_PendingQuery(t *testing.T) {
	r := NewOutboxRelay(nil, 0, nil)
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	sql, args, err := r.pendingQuery(now).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM sys_outbox WHERE status = $1 AND (next_retry_at IS NULL OR next_retry_at <= $2)")
	assert.Contains(t, sql, "ORDER BY created_at LIMIT 100 FOR UPDATE SKIP LOCKED")
	assert.Equal(t, []any{OutboxStatusPending, now}, args)
}

func TestRetryDelay(t *testing.T) {
	assert.Equal(t, time.Minute, retryDelay(1))
	assert.Equal(t, 4*time.Minute, retryDelay(4))
}

func TestOutboxPublisher_RequiresTransaction(t *testing.T) {
	p := NewOutboxPublisher(&TxManager{})

	err := p.Publish(context.Background(), "sales_order", id.New(), "ledger.synced", map[string]int{"n": 1})
	assert.True(t, errors.Is(err, errOutboxNeedsTx))
}
