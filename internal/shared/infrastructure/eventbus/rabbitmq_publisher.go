package eventbus

import (
	"context"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/felixgeelhaar/canvasbridge/pkg/observability"
)

// RabbitMQPublisher publishes command events to the canvas topic exchange.
type RabbitMQPublisher struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *slog.Logger
}

// NewRabbitMQPublisher connects to url and declares the exchange.
func NewRabbitMQPublisher(url string, logger *slog.Logger) (*RabbitMQPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, ch, err := dialTopic(url, ExchangeName)
	if err != nil {
		return nil, err
	}
	logger.Info("RabbitMQ publisher connected", "exchange", ExchangeName)
	return &RabbitMQPublisher{conn: conn, channel: ch, logger: logger}, nil
}

// Publish implements Publisher. Messages are persistent and carry the
// correlation id of the CLI or MCP request that caused them.
func (p *RabbitMQPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	msg := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		AppId:         "canvas",
		Type:          routingKey,
		CorrelationId: observability.CorrelationIDFromContext(ctx),
		Timestamp:     time.Now(),
		Body:          payload,
	}

	p.mu.Lock()
	err := p.channel.PublishWithContext(ctx, ExchangeName, routingKey, false, false, msg)
	p.mu.Unlock()
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to publish event", "routing_key", routingKey, "error", err)
		return err
	}
	p.logger.DebugContext(ctx, "event published", "routing_key", routingKey, "size", len(payload))
	return nil
}

// Close implements Publisher. Closing the connection also closes the channel.
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.conn.Close(); err != nil {
		return err
	}
	p.logger.Info("RabbitMQ publisher closed")
	return nil
}
