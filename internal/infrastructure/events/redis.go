// Package events delivers outbox messages to Redis pub/sub.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bizbook/internal/infrastructure/storage/postgres"
)

// DefaultChannel is used when no channel is configured.
const DefaultChannel = "bizbook.events"

// Publisher is the subset of the redis client the handler needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Envelope is the JSON document published for each outbox message.
type Envelope struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregateType"`
	AggregateID   string          `json:"aggregateId"`
	EventType     string          `json:"eventType"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurredAt"`
}

// RedisHandler implements postgres.OutboxHandler.
type RedisHandler struct {
	client  Publisher
	channel string
}

// NewRedisHandler creates a handler publishing on channel.
func NewRedisHandler(client Publisher, channel string) *RedisHandler {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisHandler{client: client, channel: channel}
}

// Handle publishes msg. Having no subscribers is not an error.
func (h *RedisHandler) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	payload := json.RawMessage(msg.Payload)
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}

	body, err := json.Marshal(Envelope{
		ID:            msg.ID.String(),
		AggregateType: msg.AggregateType,
		AggregateID:   msg.AggregateID.String(),
		EventType:     msg.EventType,
		Payload:       payload,
		OccurredAt:    msg.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	if err := h.client.Publish(ctx, h.channel, body).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", h.channel, err)
	}
	return nil
}

var _ postgres.OutboxHandler = (*RedisHandler)(nil)
