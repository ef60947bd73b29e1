package eventbus

import (
	"context"
	"fmt"
)

// Publisher delivers encoded command events under a routing key. The
// RabbitMQ publisher, the in-process bus, the breaker and the outbox
// writer all implement it.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
	Close() error
}

// PublishEvent encodes event and publishes it under its routing key.
func PublishEvent(ctx context.Context, p Publisher, event *CommandEvent) error {
	payload, err := event.Marshal()
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.RoutingKey, err)
	}
	return p.Publish(ctx, event.RoutingKey, payload)
}

// PublisherFunc adapts a function to Publisher. Close does nothing.
type PublisherFunc func(ctx context.Context, routingKey string, payload []byte) error

func (f PublisherFunc) Publish(ctx context.Context, routingKey string, payload []byte) error {
	return f(ctx, routingKey, payload)
}

func (PublisherFunc) Close() error { return nil }

// Discard accepts and drops every event.
var Discard Publisher = PublisherFunc(func(context.Context, string, []byte) error { return nil })
