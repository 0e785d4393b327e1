package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"course-marketplace/internal/domain/ports/adapter"
)

var _ adapter.EventNotifier = (*EventNotifier)(nil)

// EventNotifier publishes purchase lifecycle events on a redis pub/sub
// channel. Delivery is fire-and-forget: downstream consumers (mailer,
// analytics) subscribe independently, and a publish failure is reported to
// the caller only so it can be logged.
type EventNotifier struct {
	client  RedisClient
	channel string
	log     *zerolog.Logger
}

func NewEventNotifier(client RedisClient, channel string, logger *zerolog.Logger) *EventNotifier {
	if channel == "" {
		channel = "purchase.events"
	}
	return &EventNotifier{client: client, channel: channel, log: logger}
}

type eventEnvelope struct {
	Event     string                 `json:"event"`
	Payload   map[string]interface{} `json:"payload"`
	EmittedAt time.Time              `json:"emitted_at"`
}

func (n *EventNotifier) Emit(ctx context.Context, event string, payload map[string]interface{}) error {
	b, err := json.Marshal(eventEnvelope{Event: event, Payload: payload, EmittedAt: time.Now()})
	if err != nil {
		return err
	}
	if err := n.client.Publish(ctx, n.channel, b); err != nil {
		return err
	}
	n.log.Debug().Str("event", event).Msg("event published")
	return nil
}

var _ adapter.EventNotifier = (*NoopNotifier)(nil)

// NoopNotifier swallows events; used in dev mode and tests.
type NoopNotifier struct{}

func (NoopNotifier) Emit(ctx context.Context, event string, payload map[string]interface{}) error {
	return nil
}
