package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizbook/internal/core/id"
	"bizbook/internal/infrastructure/storage/postgres"
)

type publisherFake struct {
	channel string
	body    []byte
	err     error
}

func (p *publisherFake) Publish(_ context.Context, channel string, message any) *redis.IntCmd {
	p.channel = channel
	p.body, _ = message.([]byte)
	cmd := redis.NewIntCmd(context.Background())
	if p.err != nil {
		cmd.SetErr(p.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func TestRedisHandler_Handle(t *testing.T) {
	pub := &publisherFake{}
	h := NewRedisHandler(pub, "")

	msg := &postgres.OutboxMessage{
		ID:            id.New(),
		AggregateType: "sales_order",
		AggregateID:   id.New(),
		EventType:     "ledger.synced",
		Payload:       []byte(`{"number":"SO-000001"}`),
		CreatedAt:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, h.Handle(context.Background(), msg))
	assert.Equal(t, DefaultChannel, pub.channel)

	var env Envelope
	require.NoError(t, json.Unmarshal(pub.body, &env))
	assert.Equal(t, msg.ID.String(), env.ID)
	assert.Equal(t, "ledger.synced", env.EventType)
	assert.JSONEq(t, `{"number":"SO-000001"}`, string(env.Payload))
	assert.True(t, msg.CreatedAt.Equal(env.OccurredAt))
}

func TestRedisHandler_PublishError(t *testing.T) {
	pub := &publisherFake{err: errors.New("connection refused")}
	h := NewRedisHandler(pub, "events")

	err := h.Handle(context.Background(), &postgres.OutboxMessage{ID: id.New(), EventType: "ledger.synced"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish to events")
}
