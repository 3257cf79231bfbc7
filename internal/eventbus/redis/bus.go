package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"staking-ledger/internal/domain"
)

// eventChannel is the Pub/Sub channel carrying ledger events.
const eventChannel = "ledger:events"

// EventBus implements domain.EventBus and ledger.EventSink over Redis
// Pub/Sub. Events are JSON-encoded domain.Event payloads.
type EventBus struct {
	client *Client
}

// NewEventBus creates an EventBus backed by the given Client.
func NewEventBus(c *Client) *EventBus {
	return &EventBus{client: c}
}

// Publish sends a raw payload to the ledger event channel.
func (b *EventBus) Publish(ctx context.Context, payload []byte) error {
	if err := b.client.rdb.Publish(ctx, eventChannel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", eventChannel, err)
	}
	return nil
}

// PublishEvent marshals a ledger event and publishes it. Satisfies
// ledger.EventSink through the Adapter below.
func (b *EventBus) PublishEvent(ctx context.Context, e *domain.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal ledger event: %w", err)
	}
	return b.Publish(ctx, payload)
}

// Subscribe creates a Pub/Sub subscription on the ledger event channel and
// returns a read-only payload channel. The subscription closes when ctx is
// cancelled; the returned channel is closed at that point as well.
func (b *EventBus) Subscribe(ctx context.Context) (<-chan []byte, error) {
	pubsub := b.client.rdb.Subscribe(ctx, eventChannel)

	// Verify the subscription is established by receiving the confirmation.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", eventChannel, err)
	}

	out := make(chan []byte, 128)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Compile-time interface check.
var _ domain.EventBus = (*EventBus)(nil)

// Sink adapts the bus to the ledger's event sink interface.
type Sink struct {
	bus *EventBus
}

// NewSink wraps an EventBus for use as a ledger event sink.
func NewSink(bus *EventBus) *Sink {
	return &Sink{bus: bus}
}

// Publish marshals and publishes one ledger event.
func (s *Sink) Publish(ctx context.Context, e *domain.Event) error {
	return s.bus.PublishEvent(ctx, e)
}
