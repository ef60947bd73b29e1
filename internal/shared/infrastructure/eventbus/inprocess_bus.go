package eventbus

import (
	"context"
	"log/slog"
	"sync"
)

// InProcessEventBus is the Publisher used when no broker is configured. It
// hands each event to the registered consumers before Publish returns.
// Undecodable payloads and consumer failures are logged, never returned, so
// a broken consumer cannot fail a command.
type InProcessEventBus struct {
	mu       sync.Mutex
	registry *ConsumerRegistry
	logger   *slog.Logger
}

// NewInProcessEventBus creates a bus with no consumers.
func NewInProcessEventBus(logger *slog.Logger) *InProcessEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessEventBus{registry: NewConsumerRegistry(logger), logger: logger}
}

// RegisterConsumer subscribes consumer to its patterns.
func (b *InProcessEventBus) RegisterConsumer(consumer EventConsumer) {
	b.registry.Register(consumer)
}

// Publish implements Publisher. Deliveries are serialized so consumers
// observe events in publish order.
func (b *InProcessEventBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	event, err := DecodeEvent(routingKey, payload)
	if err != nil {
		b.logger.ErrorContext(ctx, "dropping in-process event", "error", err)
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.registry.Dispatch(ctx, event); err == nil {
		b.logger.DebugContext(ctx, "event delivered in process",
			"routing_key", event.RoutingKey,
			"command", event.Command,
		)
	}
	return nil
}

// Close implements Publisher.
func (b *InProcessEventBus) Close() error {
	return nil
}
